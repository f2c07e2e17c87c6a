// Package cwd discovers a PTY session's current working directory by
// inspecting the OS process tree.
package cwd

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/acolita/termhost/internal/adapters/realclock"
	"github.com/acolita/termhost/internal/adapters/realproc"
	"github.com/acolita/termhost/internal/ports"
)

// DefaultTTL bounds how long a resolved cwd is served from cache. Link
// resolution calls Resolve once per rendered line, so the cache collapses
// bursts into one OS query.
const DefaultTTL = 500 * time.Millisecond

// PidLookup maps a session id to the shell's OS pid.
// The session store satisfies this.
type PidLookup interface {
	Pid(id string) (int32, bool)
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Resolver resolves the working directory of the foreground child of a
// session's shell. Results are cached per session id with a short TTL, and
// concurrent cache misses for the same id are coalesced into a single
// underlying OS query.
type Resolver struct {
	pids  PidLookup
	tree  ports.ProcessTree
	clock ports.Clock
	ttl   time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
	group singleflight.Group
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClock sets the clock used for cache expiry.
func WithClock(clock ports.Clock) ResolverOption {
	return func(r *Resolver) {
		r.clock = clock
	}
}

// WithProcessTree sets the process-tree introspection implementation.
func WithProcessTree(tree ports.ProcessTree) ResolverOption {
	return func(r *Resolver) {
		r.tree = tree
	}
}

// WithTTL sets the cache time-to-live.
func WithTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.ttl = ttl
	}
}

// NewResolver creates a resolver backed by the given session pid lookup.
func NewResolver(pids PidLookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		pids:  pids,
		tree:  realproc.New(),  // default to real process tree
		clock: realclock.New(), // default to real clock
		ttl:   DefaultTTL,
		cache: make(map[string]cacheEntry),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// SetTTL updates the cache time-to-live (config hot reload).
func (r *Resolver) SetTTL(ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ttl > 0 {
		r.ttl = ttl
	}
}

// Resolve returns the session's best-effort working directory, or "" when
// it cannot be determined. Lookups are inherently racy (the foreground
// child may exit mid-query); every failure degrades to "", never an error.
func (r *Resolver) Resolve(id string) string {
	now := r.clock.Now()

	r.mu.Lock()
	if entry, ok := r.cache[id]; ok && now.Before(entry.expiresAt) {
		r.mu.Unlock()
		return entry.value
	}
	ttl := r.ttl
	r.mu.Unlock()

	v, _, _ := r.group.Do(id, func() (any, error) {
		value := r.lookup(id)

		r.mu.Lock()
		r.cache[id] = cacheEntry{
			value:     value,
			expiresAt: r.clock.Now().Add(ttl),
		}
		r.mu.Unlock()

		return value, nil
	})

	return v.(string)
}

// Forget drops the cached entry for a session (e.g. after it exits).
func (r *Resolver) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, id)
}

// lookup queries the process tree: the most-recently-created direct child
// of the shell is assumed to be the foreground command; its cwd wins, the
// shell's own cwd is the fallback.
func (r *Resolver) lookup(id string) string {
	shellPid, ok := r.pids.Pid(id)
	if !ok {
		return ""
	}

	target := shellPid
	if children, err := r.tree.Children(shellPid); err == nil && len(children) > 0 {
		newest := children[0]
		for _, c := range children[1:] {
			if c.CreateTime > newest.CreateTime {
				newest = c
			}
		}
		target = newest.Pid
	}

	dir, err := r.tree.Cwd(target)
	if err == nil && dir != "" {
		return dir
	}

	// The child may have exited between discovery and query; fall back to
	// the shell itself before giving up.
	if target != shellPid {
		if dir, err := r.tree.Cwd(shellPid); err == nil {
			return dir
		}
	}

	return ""
}
