// Package fakeproc provides an in-memory ProcessTree implementation for
// testing working-directory resolution.
package fakeproc

import (
	"sync"

	"github.com/acolita/termhost/internal/ports"
)

// Tree is a scripted process tree.
type Tree struct {
	mu       sync.Mutex
	children map[int32][]ports.ProcessInfo
	cwds     map[int32]string
	cwdErrs  map[int32]error
	cwdCalls int
}

// New creates a new empty fake process tree.
func New() *Tree {
	return &Tree{
		children: make(map[int32][]ports.ProcessInfo),
		cwds:     make(map[int32]string),
		cwdErrs:  make(map[int32]error),
	}
}

// SetChildren sets the direct children reported for pid.
func (t *Tree) SetChildren(pid int32, children ...ports.ProcessInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.children[pid] = children
}

// SetCwd sets the working directory reported for pid.
func (t *Tree) SetCwd(pid int32, dir string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cwds[pid] = dir
	delete(t.cwdErrs, pid)
}

// SetCwdErr makes Cwd fail for pid.
func (t *Tree) SetCwdErr(pid int32, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cwdErrs[pid] = err
}

// Children returns the scripted children of pid.
func (t *Tree) Children(pid int32) ([]ports.ProcessInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.children[pid], nil
}

// Cwd returns the scripted working directory of pid.
func (t *Tree) Cwd(pid int32) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cwdCalls++
	if err := t.cwdErrs[pid]; err != nil {
		return "", err
	}
	return t.cwds[pid], nil
}

// CwdCalls returns how many times Cwd has been queried.
func (t *Tree) CwdCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cwdCalls
}

// Ensure Tree implements ports.ProcessTree.
var _ ports.ProcessTree = (*Tree)(nil)
