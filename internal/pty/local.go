// Package pty provides PTY (pseudo-terminal) management for local shell sessions.
package pty

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// Shell represents a shell process attached to a local pseudo-terminal.
type Shell struct {
	cmd  *exec.Cmd
	ptmx *os.File
	path string
}

// Options configures PTY allocation.
type Options struct {
	Shell string // Shell binary to launch
	Cols  uint16 // Terminal columns (default: 80)
	Rows  uint16 // Terminal rows (default: 24)
	Dir   string // Initial working directory
}

// Start launches the shell attached to a new PTY with the given geometry.
// The child inherits the parent environment.
func Start(opts Options) (*Shell, error) {
	if opts.Shell == "" {
		return nil, fmt.Errorf("start pty: no shell specified")
	}
	if opts.Cols == 0 {
		opts.Cols = 80
	}
	if opts.Rows == 0 {
		opts.Rows = 24
	}

	cmd := exec.Command(opts.Shell)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	winSize := &pty.Winsize{
		Rows: opts.Rows,
		Cols: opts.Cols,
	}

	ptmx, err := pty.StartWithSize(cmd, winSize)
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}

	return &Shell{
		cmd:  cmd,
		ptmx: ptmx,
		path: opts.Shell,
	}, nil
}

// Path returns the shell binary path.
func (s *Shell) Path() string {
	return s.path
}

// Pid returns the OS process id of the shell.
func (s *Shell) Pid() int {
	if s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Read reads from the PTY output.
func (s *Shell) Read(b []byte) (int, error) {
	return s.ptmx.Read(b)
}

// Write writes to the PTY input.
func (s *Shell) Write(b []byte) (int, error) {
	return s.ptmx.Write(b)
}

// Resize propagates a terminal geometry change.
func (s *Shell) Resize(cols, rows uint16) error {
	return pty.Setsize(s.ptmx, &pty.Winsize{
		Rows: rows,
		Cols: cols,
	})
}

// Kill forcibly terminates the shell process.
func (s *Shell) Kill() error {
	if s.cmd.Process == nil {
		return nil
	}
	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process: %w", err)
	}
	return nil
}

// Wait blocks until the shell process exits and reports how it ended.
// Exactly one of exitCode/signal is meaningful: signal is non-zero when
// the process died from a signal, otherwise exitCode carries the status.
func (s *Shell) Wait() (exitCode int, signal int, err error) {
	waitErr := s.cmd.Wait()
	if waitErr == nil {
		return 0, 0, nil
	}

	var ee *exec.ExitError
	if errors.As(waitErr, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return 0, int(ws.Signal()), nil
			}
			return ws.ExitStatus(), 0, nil
		}
	}
	return 0, 0, waitErr
}

// Close closes the PTY file descriptor.
func (s *Shell) Close() error {
	return s.ptmx.Close()
}
