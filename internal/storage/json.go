// Package storage provides generic JSON persistence to the application data directory.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/acolita/termhost/internal/ports"
)

// Load reads and decodes a JSON file. Any failure (missing file, parse
// error) yields the caller-supplied default instead of an error: load
// operations must degrade to a typed default, never fail.
func Load[T any](fsys ports.FileSystem, path string, def T) T {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return def
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return def
	}
	return v
}

// Save encodes a value as JSON and writes it to path, ensuring the parent
// directory exists first so first-write-ever succeeds. Save failures
// propagate: silently losing persisted state is worse than an error.
func Save(fsys ports.FileSystem, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
