// Package session manages PTY sessions for termhost.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/acolita/termhost/internal/adapters/realfs"
	"github.com/acolita/termhost/internal/ports"
	localpty "github.com/acolita/termhost/internal/pty"
)

// PTY defines the interface the store requires from a pseudo-terminal.
// The real implementation lives in internal/pty; tests use fakepty.
type PTY interface {
	io.Reader
	io.Writer

	// Resize propagates a terminal geometry change.
	Resize(cols, rows uint16) error

	// Kill forcibly terminates the underlying process.
	Kill() error

	// Wait blocks until the underlying process exits.
	Wait() (exitCode int, signal int, err error)

	// Close closes the PTY file descriptor.
	Close() error

	// Pid returns the OS process id of the shell.
	Pid() int
}

// SpawnFunc launches a shell attached to a new PTY.
type SpawnFunc func(opts localpty.Options) (PTY, error)

// DataListener receives output chunks, in order, per session.
type DataListener func(id string, data []byte)

// ExitListener receives the exit notification, exactly once per session.
type ExitListener func(id string, exitCode, signal int)

// Store owns the id→session table and the lifecycle of every PTY session.
// Ids are "pty-N" with a process-lifetime monotonic counter, so no two
// sessions ever share an id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	nextID   int

	spawn     SpawnFunc
	fs        ports.FileSystem
	shellPath string // config override; empty means resolve from environment

	onData DataListener
	onExit ExitListener
}

type session struct {
	id       string
	pty      PTY
	exitOnce sync.Once
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSpawnFunc sets the PTY spawn function (for testing).
func WithSpawnFunc(spawn SpawnFunc) StoreOption {
	return func(s *Store) {
		s.spawn = spawn
	}
}

// WithFileSystem sets the filesystem used for shell resolution.
func WithFileSystem(fs ports.FileSystem) StoreOption {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithShellPath overrides shell detection with a fixed binary path.
func WithShellPath(path string) StoreOption {
	return func(s *Store) {
		s.shellPath = path
	}
}

// NewStore creates a new session store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*session),
		fs:       realfs.New(), // default to real filesystem
		spawn: func(opts localpty.Options) (PTY, error) {
			return localpty.Start(opts)
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetDataListener registers the listener for session output chunks.
// Must be called before the first Spawn.
func (s *Store) SetDataListener(fn DataListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onData = fn
}

// SetExitListener registers the listener for session exit notifications.
// Must be called before the first Spawn.
func (s *Store) SetExitListener(fn ExitListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExit = fn
}

// Spawn launches the user's shell with the given terminal geometry, cwd set
// to the home directory, and returns the fresh session id.
func (s *Store) Spawn(cols, rows uint16) (string, error) {
	shell := s.resolveShell()

	home, err := s.fs.UserHomeDir()
	if err != nil {
		home = ""
	}

	p, err := s.spawn(localpty.Options{
		Shell: shell,
		Cols:  cols,
		Rows:  rows,
		Dir:   home,
	})
	if err != nil {
		return "", fmt.Errorf("spawn session: %w", err)
	}

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("pty-%d", s.nextID)
	sess := &session{id: id, pty: p}
	s.sessions[id] = sess
	s.mu.Unlock()

	slog.Info("spawned session",
		slog.String("session_id", id),
		slog.String("shell", shell),
		slog.Int("pid", p.Pid()),
	)

	go s.readLoop(sess)
	go s.waitLoop(sess)

	return id, nil
}

// Write forwards raw bytes to the session's input stream.
// Unknown ids are a no-op: sessions can be reaped between a UI action
// being queued and executed.
func (s *Store) Write(id string, data []byte) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()

	if !ok {
		return
	}

	if _, err := sess.pty.Write(data); err != nil {
		slog.Debug("write to session failed",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// Resize propagates a terminal geometry change. No-op on unknown ids.
func (s *Store) Resize(id string, cols, rows uint16) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()

	if !ok {
		return
	}

	if err := sess.pty.Resize(cols, rows); err != nil {
		slog.Debug("resize session failed",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// Kill forcibly terminates and removes the session. Idempotent.
func (s *Store) Kill(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	slog.Info("killing session", slog.String("session_id", id))
	if err := sess.pty.Kill(); err != nil {
		slog.Debug("kill session failed",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// DisposeAll kills every live session. Called once at process shutdown;
// safe with zero or already-dead sessions.
func (s *Store) DisposeAll() {
	s.mu.Lock()
	live := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range live {
		if err := sess.pty.Kill(); err != nil {
			slog.Debug("dispose kill failed",
				slog.String("session_id", sess.id),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Pid returns the shell pid for a live session.
func (s *Store) Pid(id string) (int32, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()

	if !ok {
		return 0, false
	}
	return int32(sess.pty.Pid()), true
}

// List returns the ids of all live sessions, sorted.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// readLoop forwards PTY output chunks to the data listener, in order.
// The listener is invoked synchronously so the OS pipe provides
// backpressure and ordering.
func (s *Store) readLoop(sess *session) {
	buf := make([]byte, 32*1024)
	for {
		n, err := sess.pty.Read(buf)
		if n > 0 && s.onData != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.onData(sess.id, chunk)
		}
		if err != nil {
			return
		}
	}
}

// waitLoop waits for process exit, removes the session from the table, and
// then emits the exit notification. Removal happens first so a subsequent
// Write/Resize on the id is a guaranteed no-op by the time listeners run.
func (s *Store) waitLoop(sess *session) {
	exitCode, signal, err := sess.pty.Wait()
	if err != nil {
		slog.Debug("wait failed",
			slog.String("session_id", sess.id),
			slog.String("error", err.Error()),
		)
	}

	sess.pty.Close()

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	sess.exitOnce.Do(func() {
		slog.Info("session exited",
			slog.String("session_id", sess.id),
			slog.Int("exit_code", exitCode),
			slog.Int("signal", signal),
		)
		if s.onExit != nil {
			s.onExit(sess.id, exitCode, signal)
		}
	})
}

// resolveShell determines the shell binary to launch: config override,
// then $SHELL, then the first common shell present on disk.
func (s *Store) resolveShell() string {
	if s.shellPath != "" {
		return s.shellPath
	}

	if shell := s.fs.Getenv("SHELL"); shell != "" {
		return shell
	}

	for _, shell := range []string{"/bin/bash", "/bin/zsh", "/bin/sh"} {
		if _, err := s.fs.Stat(shell); err == nil {
			return shell
		}
	}

	return "/bin/sh"
}
