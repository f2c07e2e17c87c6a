// Package realfs provides a real implementation of the FileSystem port using the os package.
package realfs

import (
	"io/fs"
	"os"

	"github.com/acolita/termhost/internal/ports"
)

// FS implements ports.FileSystem using the standard os package.
type FS struct{}

// New returns a new real FileSystem.
func New() *FS {
	return &FS{}
}

// ReadFile reads the named file and returns its contents.
func (f *FS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFile writes data to the named file, creating it if necessary.
func (f *FS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// AppendFile appends data to the named file, creating it if necessary.
func (f *FS) AppendFile(name string, data []byte, perm fs.FileMode) error {
	file, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Stat returns file info for the named file.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// MkdirAll creates a directory and all parent directories.
func (f *FS) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// UserHomeDir returns the current user's home directory.
func (f *FS) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// Getenv retrieves the value of the environment variable named by the key.
func (f *FS) Getenv(key string) string {
	return os.Getenv(key)
}

// Ensure FS implements ports.FileSystem.
var _ ports.FileSystem = (*FS)(nil)
