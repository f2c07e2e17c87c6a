package history

import (
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/acolita/termhost/internal/adapters/realclock"
	"github.com/acolita/termhost/internal/adapters/realfs"
	"github.com/acolita/termhost/internal/ports"
	"github.com/acolita/termhost/internal/storage"
)

// MaxEntries bounds the merged history; oldest entries are evicted first.
const MaxEntries = 5000

// FileNameJSON is the app-managed history file under the data directory.
const FileNameJSON = "command-history.json"

// Store is the single logical view over the app-managed persisted history
// and the shell's on-disk history file. Mutations are serialized by a
// per-store mutex so concurrent appends cannot lose updates on the shared
// in-memory cache.
type Store struct {
	fs    ports.FileSystem
	clock ports.Clock
	path  string     // app JSON log
	shell *shellFile // nil when the shell is unrecognized
	max   int

	mu     sync.Mutex
	cache  []string
	loaded bool

	shellPath      string
	shellFileExtra string // explicit shell history path override
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFileSystem sets the filesystem used by the store.
func WithFileSystem(fs ports.FileSystem) StoreOption {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithClock sets the clock used for extended-format timestamps.
func WithClock(clock ports.Clock) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithMaxEntries overrides the history bound (for testing).
func WithMaxEntries(max int) StoreOption {
	return func(s *Store) {
		if max > 0 {
			s.max = max
		}
	}
}

// WithShellHistoryPath overrides the shell history file location.
func WithShellHistoryPath(path string) StoreOption {
	return func(s *Store) {
		s.shellFileExtra = path
	}
}

// NewStore creates a history store. shellPath identifies the user's shell
// binary; an unrecognized or empty shell skips shell-history integration
// entirely (app-only history).
func NewStore(dataDir, shellPath string, opts ...StoreOption) *Store {
	s := &Store{
		fs:        realfs.New(),    // default to real filesystem
		clock:     realclock.New(), // default to real clock
		path:      filepath.Join(dataDir, FileNameJSON),
		max:       MaxEntries,
		shellPath: shellPath,
	}

	for _, opt := range opts {
		opt(s)
	}

	if format := DetectFormat(shellPath); format != FormatUnsupported {
		path := s.shellFileExtra
		if path == "" {
			if home, err := s.fs.UserHomeDir(); err == nil {
				path = filepath.Join(home, FileName(format))
			}
		}
		if path != "" {
			s.shell = &shellFile{fs: s.fs, path: path, format: format}
		}
	}

	return s
}

// SetMaxEntries updates the history bound (config hot reload). The new
// bound applies on the next mutation.
func (s *Store) SetMaxEntries(max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if max > 0 {
		s.max = max
	}
}

// Load returns the merged history, oldest first. The merge runs once; until
// invalidated by a mutation, subsequent loads serve a defensive copy of the
// in-memory cache.
func (s *Store) Load() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()

	out := make([]string, len(s.cache))
	copy(out, s.cache)
	return out
}

// loadLocked populates the cache if needed. Caller holds s.mu.
func (s *Store) loadLocked() {
	if s.loaded {
		return
	}

	var shellCmds []string
	if s.shell != nil {
		shellCmds = s.shell.read()
	}
	appCmds := storage.Load(s.fs, s.path, []string(nil))

	s.cache = merge(shellCmds, appCmds, s.max)
	s.loaded = true
}

// merge resolves duplicates across the shell-then-app concatenation by
// keeping each command's last position, so app history wins on recency.
// Final order is ascending by resolved position, truncated from the front.
func merge(shellCmds, appCmds []string, max int) []string {
	seq := make([]string, 0, len(shellCmds)+len(appCmds))
	seq = append(seq, shellCmds...)
	seq = append(seq, appCmds...)

	pos := make(map[string]int, len(seq))
	for i, cmd := range seq {
		pos[cmd] = i
	}

	uniq := make([]string, 0, len(pos))
	seen := make(map[string]bool, len(pos))
	for _, cmd := range seq {
		if !seen[cmd] {
			seen[cmd] = true
			uniq = append(uniq, cmd)
		}
	}

	sort.SliceStable(uniq, func(i, j int) bool {
		return pos[uniq[i]] < pos[uniq[j]]
	})

	if len(uniq) > max {
		uniq = uniq[len(uniq)-max:]
	}
	return uniq
}

// Append records a command as most recent: any existing occurrence moves to
// the end, the bound is enforced, the JSON log is persisted (errors
// propagate), and the shell history file gets a best-effort native-format
// append.
func (s *Store) Append(cmd string) error {
	if cmd == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()

	s.cache = removeFirst(s.cache, cmd)
	s.cache = append(s.cache, cmd)
	if len(s.cache) > s.max {
		s.cache = s.cache[len(s.cache)-s.max:]
	}

	if err := storage.Save(s.fs, s.path, s.cache); err != nil {
		return err
	}

	if s.shell != nil {
		if err := s.shell.append(cmd, s.clock.Now()); err != nil {
			slog.Warn("shell history append failed",
				slog.String("path", s.shell.path),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// Remove deletes a command from the history. Absent commands are a silent
// no-op. Matching shell history lines are removed best-effort.
func (s *Store) Remove(cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()

	trimmed := removeFirst(s.cache, cmd)
	if len(trimmed) == len(s.cache) {
		return nil
	}
	s.cache = trimmed

	if err := storage.Save(s.fs, s.path, s.cache); err != nil {
		return err
	}

	if s.shell != nil {
		if err := s.shell.remove(cmd); err != nil {
			slog.Warn("shell history remove failed",
				slog.String("path", s.shell.path),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// Clear empties the in-memory list and the persisted JSON log. The shell
// history file is left untouched.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = []string{}
	s.loaded = true

	return storage.Save(s.fs, s.path, s.cache)
}

// removeFirst returns cmds without the first occurrence of cmd.
func removeFirst(cmds []string, cmd string) []string {
	for i, c := range cmds {
		if c == cmd {
			out := make([]string, 0, len(cmds)-1)
			out = append(out, cmds[:i]...)
			out = append(out, cmds[i+1:]...)
			return out
		}
	}
	return cmds
}
