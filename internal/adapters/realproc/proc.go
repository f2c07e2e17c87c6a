// Package realproc provides a real implementation of the ProcessTree port using gopsutil.
package realproc

import (
	"errors"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/acolita/termhost/internal/ports"
)

// Tree implements ports.ProcessTree using gopsutil process introspection.
type Tree struct{}

// New returns a new real ProcessTree.
func New() *Tree {
	return &Tree{}
}

// Children returns the direct children of the given pid.
func (t *Tree) Children(pid int32) ([]ports.ProcessInfo, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}

	kids, err := proc.Children()
	if err != nil {
		// A childless process is not an error for our purposes.
		if errors.Is(err, process.ErrorNoChildren) {
			return nil, nil
		}
		return nil, err
	}

	infos := make([]ports.ProcessInfo, 0, len(kids))
	for _, k := range kids {
		ct, err := k.CreateTime()
		if err != nil {
			// Process may have vanished between Children and CreateTime.
			ct = 0
		}
		infos = append(infos, ports.ProcessInfo{Pid: k.Pid, CreateTime: ct})
	}
	return infos, nil
}

// Cwd returns the current working directory of the given pid.
func (t *Tree) Cwd(pid int32) (string, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return proc.Cwd()
}

// Ensure Tree implements ports.ProcessTree.
var _ ports.ProcessTree = (*Tree)(nil)
