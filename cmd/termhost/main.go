// termhost is the host process of a terminal-replacement application: it
// owns PTY sessions and persisted command state, exposed to the
// presentation layer over MCP stdio.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/acolita/termhost/internal/adapters/realfs"
	"github.com/acolita/termhost/internal/config"
	"github.com/acolita/termhost/internal/cwd"
	"github.com/acolita/termhost/internal/history"
	"github.com/acolita/termhost/internal/logging"
	"github.com/acolita/termhost/internal/mcp"
	"github.com/acolita/termhost/internal/session"
	"github.com/acolita/termhost/internal/sticky"
)

// Version information - set at build time.
var (
	Version   = "0.3.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath  string
		showVersion bool
		debug       bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if showVersion {
		fmt.Printf("termhost version %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		os.Exit(0)
	}

	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Options{
		Level:     cfg.Logging.Level,
		Sanitize:  cfg.Logging.Sanitize,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
	})

	slog.Info("starting termhost",
		slog.String("version", Version),
		slog.String("data_dir", cfg.DataDir),
	)

	fs := realfs.New()

	// The shell binary drives both spawning and history file integration.
	shellPath := cfg.Shell.Path
	if shellPath == "" {
		shellPath = fs.Getenv("SHELL")
	}

	sessions := session.NewStore(
		session.WithFileSystem(fs),
		session.WithShellPath(cfg.Shell.Path),
	)

	historyStore := history.NewStore(cfg.DataDir, shellPath,
		history.WithFileSystem(fs),
		history.WithMaxEntries(cfg.History.MaxEntries),
		history.WithShellHistoryPath(cfg.History.File),
	)

	stickyStore := sticky.NewStore(cfg.DataDir, sticky.WithFileSystem(fs))

	resolver := cwd.NewResolver(sessions, cwd.WithTTL(cfg.Cwd.CacheTTL))

	srv := mcp.NewServer(cfg, sessions, historyStore, stickyStore, resolver)

	// Config hot-reload
	watcher, watcherErr := config.NewWatcher(configPath, func(newCfg *config.Config) {
		if debug {
			newCfg.Logging.Level = "debug"
		}
		srv.UpdateConfig(newCfg)
	})
	if watcherErr != nil {
		slog.Warn("config hot-reload disabled",
			slog.String("error", watcherErr.Error()),
		)
	} else {
		slog.Info("config hot-reload enabled",
			slog.String("path", configPath),
		)
	}

	// Graceful shutdown: every live session must be killed before exit.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("received shutdown signal")
		srv.Shutdown()
		if watcher != nil {
			watcher.Close()
		}
		os.Exit(0)
	}()

	if err := srv.Run(); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		srv.Shutdown()
		if watcher != nil {
			watcher.Close()
		}
		os.Exit(1)
	}

	// Stdio transport closed (presentation layer went away).
	srv.Shutdown()
	if watcher != nil {
		watcher.Close()
	}
}
