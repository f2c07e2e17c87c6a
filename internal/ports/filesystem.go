package ports

import (
	"io/fs"
)

// FileSystem abstracts file operations for testing.
type FileSystem interface {
	// ReadFile reads the named file and returns its contents.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// AppendFile appends data to the named file, creating it if necessary.
	AppendFile(name string, data []byte, perm fs.FileMode) error

	// Stat returns file info for the named file.
	Stat(name string) (fs.FileInfo, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm fs.FileMode) error

	// UserHomeDir returns the current user's home directory.
	UserHomeDir() (string, error)

	// Getenv retrieves the value of the environment variable named by the key.
	Getenv(key string) string
}
