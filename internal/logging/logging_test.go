package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newCaptureLogger(sanitize bool) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	jsonHandler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewSanitizingHandler(jsonHandler, sanitize)), &buf
}

func TestSanitizingHandler_RedactsSensitiveKeys(t *testing.T) {
	logger, buf := newCaptureLogger(true)

	logger.Info("command executed",
		slog.String("command", "ls"),
		slog.String("password", "hunter2"),
		slog.String("api_token", "tok-abc123"),
	)

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "tok-abc123") {
		t.Errorf("sensitive values leaked: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("expected redaction marker: %s", out)
	}

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["command"] != "ls" {
		t.Errorf("non-sensitive attr altered: %v", record["command"])
	}
}

func TestSanitizingHandler_RedactsNestedGroups(t *testing.T) {
	logger, buf := newCaptureLogger(true)

	logger.Info("session",
		slog.Group("env",
			slog.String("shell", "/bin/zsh"),
			slog.String("aws_secret", "s3cr3t"),
		),
	)

	out := buf.String()
	if strings.Contains(out, "s3cr3t") {
		t.Errorf("nested sensitive value leaked: %s", out)
	}
	if !strings.Contains(out, "/bin/zsh") {
		t.Errorf("nested non-sensitive value lost: %s", out)
	}
}

func TestSanitizingHandler_DisabledPassesThrough(t *testing.T) {
	logger, buf := newCaptureLogger(false)

	logger.Info("raw", slog.String("password", "hunter2"))

	if !strings.Contains(buf.String(), "hunter2") {
		t.Errorf("sanitization disabled but value missing: %s", buf.String())
	}
}

func TestSanitizingHandler_WithAttrsRedacts(t *testing.T) {
	logger, buf := newCaptureLogger(true)

	logger.With(slog.String("auth_header", "Bearer xyz")).Info("request")

	out := buf.String()
	if strings.Contains(out, "Bearer xyz") {
		t.Errorf("With-attached sensitive value leaked: %s", out)
	}
}

func TestSetup_LevelParsing(t *testing.T) {
	// Setup installs the global logger; just exercise the level branches.
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		Setup(Options{Level: level, Sanitize: true})
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("default logger should log at info after Setup")
	}
}
