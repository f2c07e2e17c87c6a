// Package mcp implements the IPC boundary between the presentation layer
// and the termhost stores, as an MCP stdio server.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/acolita/termhost/internal/config"
	"github.com/acolita/termhost/internal/cwd"
	"github.com/acolita/termhost/internal/history"
	"github.com/acolita/termhost/internal/session"
	"github.com/acolita/termhost/internal/sticky"
)

// Notification methods pushed to the presentation layer.
const (
	notifyData = "terminal/data" // {id, data} per output chunk
	notifyExit = "terminal/exit" // {id, exitCode, signal} once per session
)

// Server wraps the MCP server implementation and the core stores.
type Server struct {
	mcpServer *server.MCPServer
	sessions  *session.Store
	history   *history.Store
	sticky    *sticky.Store
	resolver  *cwd.Resolver
	config    *config.Config
}

// NewServer creates a new MCP server over the given stores.
func NewServer(cfg *config.Config, sessions *session.Store, hist *history.Store, stickyStore *sticky.Store, resolver *cwd.Resolver) *Server {
	mcpServer := server.NewMCPServer(
		"termhost",
		"0.3.0",
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		sessions:  sessions,
		history:   hist,
		sticky:    stickyStore,
		resolver:  resolver,
		config:    cfg,
	}

	// Session events flow out as notifications. The data listener runs
	// synchronously in the per-session reader goroutine, preserving chunk
	// order on the wire.
	sessions.SetDataListener(func(id string, data []byte) {
		s.mcpServer.SendNotificationToAllClients(notifyData, map[string]any{
			"id":   id,
			"data": string(data),
		})
	})
	sessions.SetExitListener(func(id string, exitCode, signal int) {
		s.resolver.Forget(id)
		s.mcpServer.SendNotificationToAllClients(notifyExit, map[string]any{
			"id":       id,
			"exitCode": exitCode,
			"signal":   signal,
		})
	})

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio transport.
func (s *Server) Run() error {
	slog.Info("starting MCP server on stdio transport")
	return server.ServeStdio(s.mcpServer)
}

// Shutdown disposes every live session. Must complete before process exit.
func (s *Server) Shutdown() {
	slog.Info("disposing all sessions")
	s.sessions.DisposeAll()
}

// UpdateConfig applies a new configuration at runtime.
// Only certain settings can be hot-reloaded; others require a restart.
func (s *Server) UpdateConfig(cfg *config.Config) {
	slog.Debug("applying config update")

	s.history.SetMaxEntries(cfg.History.MaxEntries)
	s.resolver.SetTTL(cfg.Cwd.CacheTTL)
	s.config = cfg

	slog.Info("configuration hot-reloaded successfully")
}
