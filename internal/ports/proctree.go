package ports

// ProcessInfo describes one OS process in a process tree.
type ProcessInfo struct {
	Pid        int32
	CreateTime int64 // milliseconds since the Unix epoch
}

// ProcessTree abstracts OS process-tree introspection for testing.
// Implementations are best-effort: processes may vanish between calls.
type ProcessTree interface {
	// Children returns the direct children of the given pid.
	// A process with no children yields an empty slice, not an error.
	Children(pid int32) ([]ProcessInfo, error)

	// Cwd returns the current working directory of the given pid.
	Cwd(pid int32) (string, error)
}
