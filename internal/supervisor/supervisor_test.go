package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/internal/event"
)

type fakeProcess struct {
	dir      string
	done     chan struct{}
	stopOnce sync.Once
	owner    *fakeLauncher
}

func (p *fakeProcess) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.owner.mu.Lock()
		delete(p.owner.live, p)
		p.owner.mu.Unlock()
		close(p.done)
	})
	return nil
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) Err() error            { return nil }

// fakeLauncher records live processes. Directories in fail refuse to
// start; block, when set, holds every launch until it is closed.
type fakeLauncher struct {
	mu       sync.Mutex
	live     map[*fakeProcess]bool
	fail     map[string]bool
	block    chan struct{}
	started  chan string
	launches []string
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{live: map[*fakeProcess]bool{}, fail: map[string]bool{}}
}

func (l *fakeLauncher) Launch(ctx context.Context, dir string) (Process, error) {
	if l.started != nil {
		l.started <- dir
	}
	if l.block != nil {
		select {
		case <-l.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches = append(l.launches, dir)
	if l.fail[dir] {
		return nil, errors.New("cannot start in " + dir)
	}
	p := &fakeProcess{dir: dir, done: make(chan struct{}), owner: l}
	l.live[p] = true
	return p, nil
}

func (l *fakeLauncher) liveDirs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var dirs []string
	for p := range l.live {
		dirs = append(dirs, p.dir)
	}
	return dirs
}

func memoryConnector(ctx context.Context, dir string) (docstore.Store, error) {
	return docstore.NewMemory(), nil
}

func newTestSupervisor(l *fakeLauncher, bus *event.Bus) *Supervisor {
	return New(Config{
		Launcher: l,
		Connect:  memoryConnector,
		Bus:      bus,
		Logger:   zerolog.Nop(),
	})
}

func TestStartAndStop(t *testing.T) {
	ctx := context.Background()
	l := newFakeLauncher()
	s := newTestSupervisor(l, nil)

	assert.Equal(t, StateStopped, s.State())
	_, err := s.Handle().Store()
	assert.ErrorIs(t, err, docstore.ErrUninitialized)

	require.NoError(t, s.Start(ctx, "/data/one"))
	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, "/data/one", s.Dir())
	assert.Equal(t, []string{"/data/one"}, l.liveDirs())

	_, err = s.Handle().Store()
	require.NoError(t, err)

	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, StateStopped, s.State())
	assert.Empty(t, l.liveDirs())
	_, err = s.Handle().Store()
	assert.ErrorIs(t, err, docstore.ErrUninitialized)
}

func TestStartFailure(t *testing.T) {
	l := newFakeLauncher()
	l.fail["/bad"] = true
	s := newTestSupervisor(l, nil)

	err := s.Start(context.Background(), "/bad")
	assert.ErrorIs(t, err, ErrLaunch)
	assert.Equal(t, StateStopped, s.State())
}

func TestStartConnectFailureStopsProcess(t *testing.T) {
	l := newFakeLauncher()
	s := New(Config{
		Launcher: l,
		Connect: func(ctx context.Context, dir string) (docstore.Store, error) {
			return nil, docstore.ErrUnreachable
		},
		Logger: zerolog.Nop(),
	})

	err := s.Start(context.Background(), "/data")
	assert.ErrorIs(t, err, ErrLaunch)
	assert.ErrorIs(t, err, docstore.ErrUnreachable)
	assert.Empty(t, l.liveDirs())
}

func TestSwitch(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus()
	defer bus.Close()

	got := make(chan event.Event, 1)
	bus.Subscribe(event.DatabaseSwitched, func(e event.Event) { got <- e })

	l := newFakeLauncher()
	s := newTestSupervisor(l, bus)
	require.NoError(t, s.Start(ctx, "/data/one"))

	before, err := s.Handle().Store()
	require.NoError(t, err)

	require.NoError(t, s.Switch(ctx, "/data/two"))
	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, "/data/two", s.Dir())
	assert.Equal(t, []string{"/data/two"}, l.liveDirs())

	after, err := s.Handle().Store()
	require.NoError(t, err)
	assert.NotSame(t, before, after)

	_, err = before.Count(ctx, docstore.Users, nil)
	assert.ErrorIs(t, err, docstore.ErrClosed)

	select {
	case e := <-got:
		assert.Equal(t, event.DatabaseSwitchedData{Path: "/data/two"}, e.Data)
	case <-time.After(time.Second):
		t.Fatal("database.switched not published")
	}
}

func TestSwitchTwiceLeavesOneProcess(t *testing.T) {
	ctx := context.Background()
	l := newFakeLauncher()
	s := newTestSupervisor(l, nil)
	require.NoError(t, s.Start(ctx, "/data/one"))

	require.NoError(t, s.Switch(ctx, "/data/two"))
	require.NoError(t, s.Switch(ctx, "/data/two"))

	assert.Equal(t, []string{"/data/two"}, l.liveDirs())
	assert.Equal(t, []string{"/data/one", "/data/two"}, l.launches)
}

func TestSwitchSameDirIsNoop(t *testing.T) {
	ctx := context.Background()
	l := newFakeLauncher()
	s := newTestSupervisor(l, nil)
	require.NoError(t, s.Start(ctx, "/data/one"))

	require.NoError(t, s.Switch(ctx, "/data/one/"))
	assert.Equal(t, []string{"/data/one"}, l.launches)
}

func TestSwitchRollsBack(t *testing.T) {
	ctx := context.Background()
	l := newFakeLauncher()
	l.fail["/data/bad"] = true
	s := newTestSupervisor(l, nil)
	require.NoError(t, s.Start(ctx, "/data/one"))

	err := s.Switch(ctx, "/data/bad")
	require.Error(t, err)
	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, "/data/one", s.Dir())
	assert.Equal(t, []string{"/data/one"}, l.liveDirs())

	_, err = s.Handle().Store()
	assert.NoError(t, err)
}

func TestSwitchRestoreFails(t *testing.T) {
	ctx := context.Background()
	l := newFakeLauncher()
	s := newTestSupervisor(l, nil)
	require.NoError(t, s.Start(ctx, "/data/one"))

	l.mu.Lock()
	l.fail["/data/one"] = true
	l.fail["/data/bad"] = true
	l.mu.Unlock()

	require.Error(t, s.Switch(ctx, "/data/bad"))
	assert.Equal(t, StateStopped, s.State())
	assert.Empty(t, l.liveDirs())
}

func TestSwitchNotRunning(t *testing.T) {
	s := newTestSupervisor(newFakeLauncher(), nil)
	assert.ErrorIs(t, s.Switch(context.Background(), "/x"), ErrNotRunning)
}

func TestSwitchWhileStartingIsBusy(t *testing.T) {
	ctx := context.Background()
	l := newFakeLauncher()
	l.block = make(chan struct{})
	l.started = make(chan string, 1)
	s := newTestSupervisor(l, nil)

	errc := make(chan error, 1)
	go func() { errc <- s.Start(ctx, "/data/one") }()
	<-l.started

	assert.Equal(t, StateStarting, s.State())
	assert.ErrorIs(t, s.Switch(ctx, "/data/two"), ErrBusy)
	assert.ErrorIs(t, s.Start(ctx, "/data/two"), ErrBusy)

	close(l.block)
	require.NoError(t, <-errc)
	assert.Equal(t, "/data/one", s.Dir())
}

func TestNoLauncher(t *testing.T) {
	ctx := context.Background()
	s := New(Config{Connect: memoryConnector, Logger: zerolog.Nop()})

	require.NoError(t, s.Start(ctx, "/mem"))
	require.NoError(t, s.Switch(ctx, "/mem2"))
	assert.Equal(t, "/mem2", s.Dir())
	require.NoError(t, s.Stop(ctx))
}

func TestSwitchIgnoresCancelledContext(t *testing.T) {
	l := newFakeLauncher()
	s := newTestSupervisor(l, nil)
	require.NoError(t, s.Start(context.Background(), "/data/one"))

	l.block = make(chan struct{})
	l.started = make(chan string, 4)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Switch(ctx, "/data/two") }()

	require.Equal(t, "/data/two", <-l.started)
	cancel()
	close(l.block)

	require.NoError(t, <-errCh)
	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, "/data/two", s.Dir())
	assert.Equal(t, []string{"/data/two"}, l.liveDirs())
}

func TestSwitchRestoresAfterCancelledContext(t *testing.T) {
	l := newFakeLauncher()
	s := newTestSupervisor(l, nil)
	require.NoError(t, s.Start(context.Background(), "/data/one"))

	l.block = make(chan struct{})
	l.started = make(chan string, 4)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Switch(ctx, "/data/two") }()

	require.Equal(t, "/data/two", <-l.started)
	cancel()
	l.mu.Lock()
	l.fail["/data/two"] = true
	l.mu.Unlock()
	close(l.block)

	assert.Error(t, <-errCh)
	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, "/data/one", s.Dir())
	assert.Equal(t, []string{"/data/one"}, l.liveDirs())
	_, err := s.Handle().Store()
	assert.NoError(t, err)
}
