// Package sticky persists the user's pinned command shortcuts.
package sticky

import (
	"path/filepath"
	"time"

	"github.com/acolita/termhost/internal/adapters/realfs"
	"github.com/acolita/termhost/internal/ports"
	"github.com/acolita/termhost/internal/storage"
)

// FileNameJSON is the sticky command file under the data directory.
const FileNameJSON = "sticky-commands.json"

// Command is a user-pinned command shortcut with a custom display label,
// independent of recency-based history.
type Command struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Command   string    `json:"command"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists the explicitly ordered sticky command list. The caller
// computes the new list (insert/remove/reorder) and replaces it whole;
// last-write-wins, no size bound.
type Store struct {
	fs   ports.FileSystem
	path string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFileSystem sets the filesystem used by the store.
func WithFileSystem(fs ports.FileSystem) StoreOption {
	return func(s *Store) {
		s.fs = fs
	}
}

// NewStore creates a sticky command store under the given data directory.
func NewStore(dataDir string, opts ...StoreOption) *Store {
	s := &Store{
		fs:   realfs.New(), // default to real filesystem
		path: filepath.Join(dataDir, FileNameJSON),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load returns the persisted list in order. Missing or corrupt files yield
// an empty list.
func (s *Store) Load() []Command {
	cmds := storage.Load(s.fs, s.path, []Command{})
	if cmds == nil {
		cmds = []Command{}
	}
	return cmds
}

// Save replaces the persisted list.
func (s *Store) Save(cmds []Command) error {
	if cmds == nil {
		cmds = []Command{}
	}
	return storage.Save(s.fs, s.path, cmds)
}
