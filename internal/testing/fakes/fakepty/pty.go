// Package fakepty provides a fake PTY implementation for testing session
// logic without real terminals.
package fakepty

import (
	"bytes"
	"io"
	"sync"
)

// Geometry records one Resize call.
type Geometry struct {
	Cols, Rows uint16
}

// PTY is a fake PTY. Output is scripted with Emit; the reader blocks until
// data arrives or ExitWith ends the session, matching real PTY semantics.
type PTY struct {
	mu      sync.Mutex
	out     chan []byte
	pending []byte

	written bytes.Buffer
	resizes []Geometry
	pid     int
	killed  bool
	closed  bool

	exited   bool
	exitOnce sync.Once
	done     chan struct{}
	exitCode int
	signal   int
}

// New creates a new fake PTY.
func New() *PTY {
	return &PTY{
		out:  make(chan []byte, 64),
		done: make(chan struct{}),
		pid:  12345,
	}
}

// SetPid sets the pid reported by Pid.
func (p *PTY) SetPid(pid int) *PTY {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pid = pid
	return p
}

// Emit queues an output chunk for the reader. Chunks emitted after
// ExitWith are dropped.
func (p *PTY) Emit(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return
	}
	p.out <- []byte(data)
}

// ExitWith ends the session: queued output still drains, then Read returns
// io.EOF and Wait unblocks with the given status. Safe to call repeatedly;
// only the first status sticks.
func (p *PTY) ExitWith(exitCode, signal int) {
	p.exitOnce.Do(func() {
		p.mu.Lock()
		p.exited = true
		p.exitCode = exitCode
		p.signal = signal
		close(p.out)
		p.mu.Unlock()
		close(p.done)
	})
}

// Read implements io.Reader. Blocks until output is emitted or the
// session exits.
func (p *PTY) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(p.pending) > 0 {
		n := copy(b, p.pending)
		p.pending = p.pending[n:]
		p.mu.Unlock()
		return n, nil
	}
	p.mu.Unlock()

	chunk, ok := <-p.out
	if !ok {
		return 0, io.EOF
	}

	n := copy(b, chunk)
	if n < len(chunk) {
		p.mu.Lock()
		p.pending = chunk[n:]
		p.mu.Unlock()
	}
	return n, nil
}

// Write implements io.Writer. Captures written data for later inspection.
func (p *PTY) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exited {
		return 0, io.ErrClosedPipe
	}
	return p.written.Write(b)
}

// Resize records the requested geometry.
func (p *PTY) Resize(cols, rows uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resizes = append(p.resizes, Geometry{Cols: cols, Rows: rows})
	return nil
}

// Kill marks the PTY killed and ends the session as if SIGKILLed.
func (p *PTY) Kill() error {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	p.ExitWith(0, 9)
	return nil
}

// Wait blocks until ExitWith (or Kill) and returns the recorded status.
func (p *PTY) Wait() (int, int, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.signal, nil
}

// Close closes the fake PTY.
func (p *PTY) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Pid returns the configured pid.
func (p *PTY) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// --- Test inspection methods ---

// Written returns all data that was written to the PTY.
func (p *PTY) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// Resizes returns all recorded Resize calls in order.
func (p *PTY) Resizes() []Geometry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Geometry, len(p.resizes))
	copy(out, p.resizes)
	return out
}

// WasKilled returns true if Kill() was called.
func (p *PTY) WasKilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// IsClosed returns true if Close() was called.
func (p *PTY) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
