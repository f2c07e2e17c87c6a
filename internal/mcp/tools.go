package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/acolita/termhost/internal/sticky"
)

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(terminalSpawnTool(), s.handleTerminalSpawn)
	s.mcpServer.AddTool(terminalWriteTool(), s.handleTerminalWrite)
	s.mcpServer.AddTool(terminalResizeTool(), s.handleTerminalResize)
	s.mcpServer.AddTool(terminalKillTool(), s.handleTerminalKill)
	s.mcpServer.AddTool(terminalListTool(), s.handleTerminalList)
	s.mcpServer.AddTool(terminalGetCwdTool(), s.handleTerminalGetCwd)
	s.mcpServer.AddTool(historyLoadTool(), s.handleHistoryLoad)
	s.mcpServer.AddTool(historyAppendTool(), s.handleHistoryAppend)
	s.mcpServer.AddTool(historyRemoveTool(), s.handleHistoryRemove)
	s.mcpServer.AddTool(historyClearTool(), s.handleHistoryClear)
	s.mcpServer.AddTool(stickyLoadTool(), s.handleStickyLoad)
	s.mcpServer.AddTool(stickySaveTool(), s.handleStickySave)
}

// Tool definitions

func terminalSpawnTool() mcp.Tool {
	return mcp.NewTool("terminal_spawn",
		mcp.WithDescription("Spawn the user's shell in a new PTY session"),
		mcp.WithNumber("cols",
			mcp.Description("Terminal columns (default: 80)"),
		),
		mcp.WithNumber("rows",
			mcp.Description("Terminal rows (default: 24)"),
		),
	)
}

func terminalWriteTool() mcp.Tool {
	return mcp.NewTool("terminal_write",
		mcp.WithDescription("Write raw input to a PTY session; no-op for unknown ids"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The session id returned by terminal_spawn"),
		),
		mcp.WithString("data",
			mcp.Required(),
			mcp.Description("The raw text to write"),
		),
	)
}

func terminalResizeTool() mcp.Tool {
	return mcp.NewTool("terminal_resize",
		mcp.WithDescription("Propagate a terminal geometry change; no-op for unknown ids"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The session id"),
		),
		mcp.WithNumber("cols",
			mcp.Required(),
			mcp.Description("Terminal columns"),
		),
		mcp.WithNumber("rows",
			mcp.Required(),
			mcp.Description("Terminal rows"),
		),
	)
}

func terminalKillTool() mcp.Tool {
	return mcp.NewTool("terminal_kill",
		mcp.WithDescription("Forcibly terminate and remove a PTY session; idempotent"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The session id"),
		),
	)
}

func terminalListTool() mcp.Tool {
	return mcp.NewTool("terminal_list",
		mcp.WithDescription("List live PTY session ids"),
	)
}

func terminalGetCwdTool() mcp.Tool {
	return mcp.NewTool("terminal_get_cwd",
		mcp.WithDescription("Best-effort working directory of the session's foreground process"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The session id"),
		),
	)
}

func historyLoadTool() mcp.Tool {
	return mcp.NewTool("history_load",
		mcp.WithDescription("Load the merged command history, oldest first"),
	)
}

func historyAppendTool() mcp.Tool {
	return mcp.NewTool("history_append",
		mcp.WithDescription("Record a command as most recent in the history"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("The command line to record"),
		),
	)
}

func historyRemoveTool() mcp.Tool {
	return mcp.NewTool("history_remove",
		mcp.WithDescription("Remove a command from the history; no-op when absent"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("The command line to remove"),
		),
	)
}

func historyClearTool() mcp.Tool {
	return mcp.NewTool("history_clear",
		mcp.WithDescription("Clear the app-managed command history (shell file untouched)"),
	)
}

func stickyLoadTool() mcp.Tool {
	return mcp.NewTool("sticky_load",
		mcp.WithDescription("Load the ordered sticky command list"),
	)
}

func stickySaveTool() mcp.Tool {
	return mcp.NewTool("sticky_save",
		mcp.WithDescription("Replace the sticky command list whole (insert/remove/reorder computed by the caller)"),
		mcp.WithString("commands",
			mcp.Required(),
			mcp.Description("JSON array of {id,label,command,createdAt} objects"),
		),
	)
}

// Tool handlers

func (s *Server) handleTerminalSpawn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cols := mcp.ParseInt(req, "cols", 80)
	rows := mcp.ParseInt(req, "rows", 24)

	if cols <= 0 || rows <= 0 {
		return mcp.NewToolResultError("cols and rows must be positive"), nil
	}

	id, err := s.sessions.Spawn(uint16(cols), uint16(rows))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{"id": id})
}

func (s *Server) handleTerminalWrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(req, "id", "")
	data := mcp.ParseString(req, "data", "")

	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	s.sessions.Write(id, []byte(data))
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) handleTerminalResize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(req, "id", "")
	cols := mcp.ParseInt(req, "cols", 0)
	rows := mcp.ParseInt(req, "rows", 0)

	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if cols <= 0 || rows <= 0 {
		return mcp.NewToolResultError("cols and rows must be positive"), nil
	}

	s.sessions.Resize(id, uint16(cols), uint16(rows))
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) handleTerminalKill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(req, "id", "")

	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	s.sessions.Kill(id)
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) handleTerminalList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"sessions": s.sessions.List()})
}

func (s *Server) handleTerminalGetCwd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(req, "id", "")

	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	dir := s.resolver.Resolve(id)
	if dir == "" {
		return jsonResult(map[string]any{"cwd": nil})
	}
	return jsonResult(map[string]any{"cwd": dir})
}

func (s *Server) handleHistoryLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.history.Load())
}

func (s *Server) handleHistoryAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command := mcp.ParseString(req, "command", "")

	if command == "" {
		return mcp.NewToolResultError("command is required"), nil
	}

	if err := s.history.Append(command); err != nil {
		slog.Error("history append failed", slog.String("error", err.Error()))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) handleHistoryRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command := mcp.ParseString(req, "command", "")

	if command == "" {
		return mcp.NewToolResultError("command is required"), nil
	}

	if err := s.history.Remove(command); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) handleHistoryClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.history.Clear(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) handleStickyLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sticky.Load())
}

func (s *Server) handleStickySave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := mcp.ParseString(req, "commands", "")

	if raw == "" {
		return mcp.NewToolResultError("commands is required"), nil
	}

	var cmds []sticky.Command
	if err := json.Unmarshal([]byte(raw), &cmds); err != nil {
		return mcp.NewToolResultError("parse commands: " + err.Error()), nil
	}

	if err := s.sticky.Save(cmds); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

// jsonResult converts a value to a JSON tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
