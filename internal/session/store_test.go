package session

import (
	"errors"
	"testing"
	"time"

	localpty "github.com/acolita/termhost/internal/pty"
	"github.com/acolita/termhost/internal/testing/fakes/fakefs"
	"github.com/acolita/termhost/internal/testing/fakes/fakepty"
)

// newTestStore wires a store to a queue of fake PTYs: each Spawn hands out
// the next one, so tests control every session's output and exit.
func newTestStore(t *testing.T, ptys ...*fakepty.PTY) (*Store, *[]localpty.Options) {
	t.Helper()

	var spawned []localpty.Options
	idx := 0
	s := NewStore(
		WithFileSystem(fakefs.New()),
		WithSpawnFunc(func(opts localpty.Options) (PTY, error) {
			if idx >= len(ptys) {
				t.Fatalf("unexpected spawn #%d", idx+1)
			}
			spawned = append(spawned, opts)
			p := ptys[idx]
			idx++
			return p, nil
		}),
	)
	return s, &spawned
}

type exitEvent struct {
	id       string
	exitCode int
	signal   int
}

func TestStore_Spawn_AssignsMonotonicIDs(t *testing.T) {
	p1, p2 := fakepty.New(), fakepty.New()
	s, _ := newTestStore(t, p1, p2)
	defer s.DisposeAll()

	id1, err := s.Spawn(80, 24)
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	id2, err := s.Spawn(80, 24)
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}

	if id1 != "pty-1" {
		t.Errorf("first id = %q, want %q", id1, "pty-1")
	}
	if id2 != "pty-2" {
		t.Errorf("second id = %q, want %q", id2, "pty-2")
	}
	if s.Count() != 2 {
		t.Errorf("Count = %d, want 2", s.Count())
	}

	ids := s.List()
	if len(ids) != 2 || ids[0] != "pty-1" || ids[1] != "pty-2" {
		t.Errorf("List = %v, want [pty-1 pty-2]", ids)
	}
}

func TestStore_Spawn_IDNeverReused(t *testing.T) {
	p1, p2 := fakepty.New(), fakepty.New()
	s, _ := newTestStore(t, p1, p2)
	defer s.DisposeAll()

	exitCh := make(chan exitEvent, 1)
	s.SetExitListener(func(id string, exitCode, signal int) {
		exitCh <- exitEvent{id, exitCode, signal}
	})

	id1, _ := s.Spawn(80, 24)
	s.Kill(id1)
	waitExit(t, exitCh)

	// A fresh session after a kill must get a new id.
	id2, _ := s.Spawn(80, 24)
	if id2 == id1 {
		t.Errorf("id reused after kill: %q", id2)
	}
	if id2 != "pty-2" {
		t.Errorf("id after kill = %q, want %q", id2, "pty-2")
	}
}

func TestStore_Spawn_ErrorDoesNotConsumeID(t *testing.T) {
	spawnErr := errors.New("fork failed")
	calls := 0
	p := fakepty.New()
	s := NewStore(
		WithFileSystem(fakefs.New()),
		WithSpawnFunc(func(opts localpty.Options) (PTY, error) {
			calls++
			if calls == 1 {
				return nil, spawnErr
			}
			return p, nil
		}),
	)
	defer s.DisposeAll()

	if _, err := s.Spawn(80, 24); !errors.Is(err, spawnErr) {
		t.Fatalf("Spawn error = %v, want wrapped %v", err, spawnErr)
	}
	if s.Count() != 0 {
		t.Errorf("Count after failed spawn = %d, want 0", s.Count())
	}

	id, err := s.Spawn(80, 24)
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	if id != "pty-1" {
		t.Errorf("id after failed spawn = %q, want %q", id, "pty-1")
	}
}

func TestStore_Spawn_PassesGeometryAndHome(t *testing.T) {
	p := fakepty.New()
	s, spawned := newTestStore(t, p)
	defer s.DisposeAll()

	if _, err := s.Spawn(120, 40); err != nil {
		t.Fatalf("Spawn error: %v", err)
	}

	opts := (*spawned)[0]
	if opts.Cols != 120 || opts.Rows != 40 {
		t.Errorf("geometry = %dx%d, want 120x40", opts.Cols, opts.Rows)
	}
	if opts.Dir != "/home/test" {
		t.Errorf("Dir = %q, want fake home", opts.Dir)
	}
}

func TestStore_DataListener_ChunksInOrder(t *testing.T) {
	p := fakepty.New()
	s, _ := newTestStore(t, p)
	defer s.DisposeAll()

	dataCh := make(chan string, 8)
	s.SetDataListener(func(id string, data []byte) {
		dataCh <- string(data)
	})

	id, _ := s.Spawn(80, 24)
	_ = id

	p.Emit("one")
	p.Emit("two")
	p.Emit("three")

	for _, want := range []string{"one", "two", "three"} {
		select {
		case got := <-dataCh:
			if got != want {
				t.Errorf("chunk = %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for chunk %q", want)
		}
	}
}

func TestStore_Write_ForwardsToPTY(t *testing.T) {
	p := fakepty.New()
	s, _ := newTestStore(t, p)
	defer s.DisposeAll()

	id, _ := s.Spawn(80, 24)
	s.Write(id, []byte("ls -la\n"))

	if got := p.Written(); got != "ls -la\n" {
		t.Errorf("Written = %q, want %q", got, "ls -la\n")
	}
}

func TestStore_Write_UnknownIDIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	s.Write("pty-99", []byte("data"))
	s.Resize("pty-99", 80, 24)
	s.Kill("pty-99")
}

func TestStore_Resize_ForwardsGeometry(t *testing.T) {
	p := fakepty.New()
	s, _ := newTestStore(t, p)
	defer s.DisposeAll()

	id, _ := s.Spawn(80, 24)
	s.Resize(id, 132, 50)

	resizes := p.Resizes()
	if len(resizes) != 1 {
		t.Fatalf("resize calls = %d, want 1", len(resizes))
	}
	if resizes[0].Cols != 132 || resizes[0].Rows != 50 {
		t.Errorf("resize = %dx%d, want 132x50", resizes[0].Cols, resizes[0].Rows)
	}
}

func TestStore_Exit_RemovesSessionThenNotifiesOnce(t *testing.T) {
	p := fakepty.New()
	s, _ := newTestStore(t, p)

	exitCh := make(chan exitEvent, 4)
	s.SetExitListener(func(id string, exitCode, signal int) {
		// Removal must be visible before the notification fires.
		if _, ok := s.Pid(id); ok {
			t.Errorf("session %q still registered during exit notification", id)
		}
		exitCh <- exitEvent{id, exitCode, signal}
	})

	id, _ := s.Spawn(80, 24)
	p.ExitWith(3, 0)

	ev := waitExit(t, exitCh)
	if ev.id != id {
		t.Errorf("exit id = %q, want %q", ev.id, id)
	}
	if ev.exitCode != 3 || ev.signal != 0 {
		t.Errorf("exit = (%d, %d), want (3, 0)", ev.exitCode, ev.signal)
	}

	if s.Count() != 0 {
		t.Errorf("Count after exit = %d, want 0", s.Count())
	}

	// Post-exit operations on the stale id are silent no-ops.
	s.Write(id, []byte("ignored"))
	s.Resize(id, 10, 10)
	s.Kill(id)

	select {
	case ev := <-exitCh:
		t.Errorf("unexpected second exit event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStore_Exit_ReportsSignal(t *testing.T) {
	p := fakepty.New()
	s, _ := newTestStore(t, p)

	exitCh := make(chan exitEvent, 1)
	s.SetExitListener(func(id string, exitCode, signal int) {
		exitCh <- exitEvent{id, exitCode, signal}
	})

	s.Spawn(80, 24)
	p.ExitWith(0, 15)

	ev := waitExit(t, exitCh)
	if ev.exitCode != 0 || ev.signal != 15 {
		t.Errorf("exit = (%d, %d), want (0, 15)", ev.exitCode, ev.signal)
	}
}

func TestStore_Kill_TerminatesAndEmitsOneExit(t *testing.T) {
	p := fakepty.New()
	s, _ := newTestStore(t, p)

	exitCh := make(chan exitEvent, 4)
	s.SetExitListener(func(id string, exitCode, signal int) {
		exitCh <- exitEvent{id, exitCode, signal}
	})

	id, _ := s.Spawn(80, 24)
	s.Kill(id)

	if !p.WasKilled() {
		t.Error("expected PTY to be killed")
	}
	if s.Count() != 0 {
		t.Errorf("Count after kill = %d, want 0", s.Count())
	}

	waitExit(t, exitCh)

	// Kill is idempotent and the exit event stays exactly-once.
	s.Kill(id)
	select {
	case ev := <-exitCh:
		t.Errorf("unexpected second exit event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStore_DisposeAll_KillsEverySession(t *testing.T) {
	p1, p2, p3 := fakepty.New(), fakepty.New(), fakepty.New()
	s, _ := newTestStore(t, p1, p2, p3)

	s.Spawn(80, 24)
	s.Spawn(80, 24)
	s.Spawn(80, 24)

	s.DisposeAll()

	for i, p := range []*fakepty.PTY{p1, p2, p3} {
		if !p.WasKilled() {
			t.Errorf("pty %d not killed by DisposeAll", i+1)
		}
	}
	if s.Count() != 0 {
		t.Errorf("Count after DisposeAll = %d, want 0", s.Count())
	}

	// Safe on an empty store.
	s.DisposeAll()
}

func TestStore_Pid_LiveAndStale(t *testing.T) {
	p := fakepty.New().SetPid(4242)
	s, _ := newTestStore(t, p)

	id, _ := s.Spawn(80, 24)

	pid, ok := s.Pid(id)
	if !ok || pid != 4242 {
		t.Errorf("Pid = (%d, %v), want (4242, true)", pid, ok)
	}

	if _, ok := s.Pid("pty-99"); ok {
		t.Error("Pid for unknown id should report not found")
	}

	s.DisposeAll()
	if _, ok := s.Pid(id); ok {
		t.Error("Pid after dispose should report not found")
	}
}

func TestStore_ResolveShell_Precedence(t *testing.T) {
	t.Run("config override wins", func(t *testing.T) {
		fs := fakefs.New()
		fs.SetEnv("SHELL", "/bin/zsh")
		s := NewStore(WithFileSystem(fs), WithShellPath("/opt/fish"))
		if got := s.resolveShell(); got != "/opt/fish" {
			t.Errorf("resolveShell = %q, want %q", got, "/opt/fish")
		}
	})

	t.Run("SHELL env", func(t *testing.T) {
		fs := fakefs.New()
		fs.SetEnv("SHELL", "/bin/zsh")
		s := NewStore(WithFileSystem(fs))
		if got := s.resolveShell(); got != "/bin/zsh" {
			t.Errorf("resolveShell = %q, want %q", got, "/bin/zsh")
		}
	})

	t.Run("probe common shells", func(t *testing.T) {
		fs := fakefs.New()
		fs.AddFile("/bin/zsh", []byte{}, 0o755)
		s := NewStore(WithFileSystem(fs))
		if got := s.resolveShell(); got != "/bin/zsh" {
			t.Errorf("resolveShell = %q, want %q", got, "/bin/zsh")
		}
	})

	t.Run("last resort", func(t *testing.T) {
		s := NewStore(WithFileSystem(fakefs.New()))
		if got := s.resolveShell(); got != "/bin/sh" {
			t.Errorf("resolveShell = %q, want %q", got, "/bin/sh")
		}
	})
}

func waitExit(t *testing.T, ch chan exitEvent) exitEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for exit event")
		return exitEvent{}
	}
}
