package history

import (
	"strings"
	"time"

	"github.com/acolita/termhost/internal/ports"
)

// shellFile wraps the shell's on-disk history file. All operations are
// best-effort side channels: the app-level JSON store stays authoritative.
type shellFile struct {
	fs     ports.FileSystem
	path   string
	format Format
}

// read returns the commands in the shell history file, oldest first.
// A missing or unreadable file yields nil.
func (s *shellFile) read() []string {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var cmds []string
	for _, line := range strings.Split(string(data), "\n") {
		if cmd, ok := parseLine(line, s.format); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// append adds one command in the file's native format.
func (s *shellFile) append(cmd string, now time.Time) error {
	return s.fs.AppendFile(s.path, []byte(formatEntry(cmd, s.format, now)), 0o600)
}

// remove rewrites the file without lines whose parsed command matches cmd.
// Matching is on parsed command text, not raw line text, so extended-format
// timestamps don't interfere.
func (s *shellFile) remove(cmd string) error {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return err
	}

	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	changed := false
	for _, line := range lines {
		if parsed, ok := parseLine(line, s.format); ok && parsed == cmd {
			changed = true
			continue
		}
		kept = append(kept, line)
	}

	if !changed {
		return nil
	}
	return s.fs.WriteFile(s.path, []byte(strings.Join(kept, "\n")), 0o600)
}
