// Package history provides the merged command-history store: the app's own
// persisted log unified with the shell's native history file.
package history

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies a shell history file format.
type Format int

const (
	// FormatUnsupported means the shell's history file is not integrated;
	// the store runs app-only.
	FormatUnsupported Format = iota

	// FormatPlain is one command per line (bash).
	FormatPlain

	// FormatZshExtended is ": <epoch>:<duration>;<command>" per line.
	FormatZshExtended
)

// DetectFormat maps a shell binary path to its history file format.
// Pure function: unit-testable without any OS environment.
func DetectFormat(shellPath string) Format {
	switch filepath.Base(shellPath) {
	case "zsh":
		return FormatZshExtended
	case "bash":
		return FormatPlain
	default:
		return FormatUnsupported
	}
}

// FileName returns the history file name under the home directory for a
// supported format.
func FileName(f Format) string {
	switch f {
	case FormatZshExtended:
		return ".zsh_history"
	case FormatPlain:
		return ".bash_history"
	default:
		return ""
	}
}

// parseLine extracts the command from one history file line. Extended
// lines missing the timestamp marker fall back to plain parsing, matching
// zsh's own tolerance for mixed files.
func parseLine(line string, f Format) (string, bool) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return "", false
	}

	if f == FormatZshExtended && strings.HasPrefix(line, ": ") {
		// ": <epoch>:<duration>;<command>"
		if idx := strings.Index(line, ";"); idx >= 0 {
			cmd := line[idx+1:]
			if cmd == "" {
				return "", false
			}
			return cmd, true
		}
		return "", false
	}

	return line, true
}

// formatEntry renders a command as one history file line in the given
// format, including the trailing newline.
func formatEntry(cmd string, f Format, now time.Time) string {
	if f == FormatZshExtended {
		return fmt.Sprintf(": %d:0;%s\n", now.Unix(), cmd)
	}
	return cmd + "\n"
}
