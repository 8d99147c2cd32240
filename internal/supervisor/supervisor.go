// Package supervisor owns the lifecycle of the database service: it
// launches it for a storage directory, connects the document store and
// switches both to another directory on request.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/internal/event"
	"github.com/buildtrack/buildtrack/internal/metrics"
)

var (
	// ErrBusy is returned while a start or switch is in progress.
	ErrBusy = errors.New("supervisor busy")
	// ErrNotRunning is returned by Switch before Start succeeded.
	ErrNotRunning = errors.New("supervisor not running")
	// ErrLaunch wraps any failure to bring the database up at startup.
	ErrLaunch = errors.New("failed to launch database")
	// ErrExitedEarly is returned when the process exits before it is ready.
	ErrExitedEarly = errors.New("database process exited before ready")
)

// State is the lifecycle state of the supervisor.
type State string

const (
	StateStopped   State = "stopped"
	StateStarting  State = "starting"
	StateRunning   State = "running"
	StateSwitching State = "switching"
)

var allStates = []string{string(StateStopped), string(StateStarting), string(StateRunning), string(StateSwitching)}

// Connector opens the document store for dir once the process (if any) is up.
type Connector func(ctx context.Context, dir string) (docstore.Store, error)

// Config wires a Supervisor.
type Config struct {
	// Launcher is nil for backends that need no external process.
	Launcher Launcher
	Connect  Connector
	Handle   *docstore.Handle

	Bus     *event.Bus
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// Supervisor serializes start, switch and stop. Concurrent calls fail
// fast with ErrBusy instead of queueing.
type Supervisor struct {
	cfg Config
	ops sync.Mutex

	mu    sync.RWMutex
	state State
	dir   string
	proc  Process
}

// New creates a stopped supervisor.
func New(cfg Config) *Supervisor {
	if cfg.Handle == nil {
		cfg.Handle = docstore.NewHandle()
	}
	s := &Supervisor{cfg: cfg, state: StateStopped}
	cfg.Metrics.SetState(string(StateStopped), allStates)
	return s
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dir returns the directory being served, or "" when stopped.
func (s *Supervisor) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Handle returns the store handle the supervisor swaps.
func (s *Supervisor) Handle() *docstore.Handle {
	return s.cfg.Handle
}

func (s *Supervisor) setState(state State, dir string, proc Process) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.dir = dir
	s.proc = proc
	s.mu.Unlock()

	s.cfg.Metrics.SetState(string(state), allStates)
	if prev != state {
		s.cfg.Logger.Info().Str("from", string(prev)).Str("to", string(state)).Str("dir", dir).Msg("state changed")
	}
}

func (s *Supervisor) transition(state State) {
	s.mu.Lock()
	dir, proc := s.dir, s.proc
	s.mu.Unlock()
	s.setState(state, dir, proc)
}

// Start launches the service for dir and installs the store. Any failure
// is wrapped in ErrLaunch and leaves the supervisor stopped.
func (s *Supervisor) Start(ctx context.Context, dir string) error {
	if !s.ops.TryLock() {
		return ErrBusy
	}
	defer s.ops.Unlock()

	if s.State() != StateStopped {
		return ErrBusy
	}
	// A transition runs to completion once begun; the launcher's readiness
	// and stop timeouts bound it.
	ctx = context.WithoutCancel(ctx)
	dir = filepath.Clean(dir)
	s.setState(StateStarting, dir, nil)

	proc, st, err := s.bringUp(ctx, dir)
	if err != nil {
		s.setState(StateStopped, "", nil)
		return fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	s.cfg.Handle.Swap(st)
	s.setState(StateRunning, dir, proc)
	return nil
}

// Switch moves the service to dir. The current store is closed and its
// process stopped before the new one starts; when the new directory fails
// to come up the previous one is restored. Switching to the directory
// already served is a no-op. Cancelling ctx does not interrupt a switch.
func (s *Supervisor) Switch(ctx context.Context, dir string) error {
	if !s.ops.TryLock() {
		return ErrBusy
	}
	defer s.ops.Unlock()

	switch s.State() {
	case StateStopped:
		return ErrNotRunning
	case StateStarting, StateSwitching:
		return ErrBusy
	}

	dir = filepath.Clean(dir)
	prevDir := s.Dir()
	if dir == prevDir {
		s.cfg.Metrics.ObserveSwitch("noop")
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	s.transition(StateSwitching)
	s.tearDown(ctx)

	proc, st, err := s.bringUp(ctx, dir)
	if err != nil {
		s.cfg.Metrics.ObserveSwitch("failed")
		s.cfg.Logger.Error().Err(err).Str("dir", dir).Str("previous", prevDir).Msg("switch failed, restoring previous directory")

		prevProc, prevStore, rerr := s.bringUp(ctx, prevDir)
		if rerr != nil {
			s.setState(StateStopped, "", nil)
			return fmt.Errorf("switch to %s: %w (restore failed: %v)", dir, err, rerr)
		}
		s.cfg.Handle.Swap(prevStore)
		s.setState(StateRunning, prevDir, prevProc)
		return fmt.Errorf("switch to %s: %w", dir, err)
	}

	s.cfg.Handle.Swap(st)
	s.setState(StateRunning, dir, proc)
	s.cfg.Metrics.ObserveSwitch("ok")
	s.cfg.Logger.Info().Str("dir", dir).Str("previous", prevDir).Msg("database switched")

	if s.cfg.Bus != nil {
		s.cfg.Bus.Publish(event.Event{
			Type: event.DatabaseSwitched,
			Data: event.DatabaseSwitchedData{Path: dir},
		})
	}
	return nil
}

// Stop closes the store and stops the process. It waits for an in-flight
// start or switch to finish.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	if s.State() == StateStopped {
		return nil
	}
	err := s.tearDown(ctx)
	s.setState(StateStopped, "", nil)
	return err
}

// bringUp launches the process for dir and connects the store to it. The
// process is stopped again when the connection fails.
func (s *Supervisor) bringUp(ctx context.Context, dir string) (Process, docstore.Store, error) {
	var proc Process
	if s.cfg.Launcher != nil {
		p, err := s.cfg.Launcher.Launch(ctx, dir)
		if err != nil {
			return nil, nil, err
		}
		proc = p
	}

	st, err := s.cfg.Connect(ctx, dir)
	if err != nil {
		if proc != nil {
			if serr := proc.Stop(ctx); serr != nil {
				s.cfg.Logger.Warn().Err(serr).Msg("stop after failed connect")
			}
		}
		return nil, nil, err
	}
	return proc, st, nil
}

// tearDown closes the current store, then stops the process and waits for
// it to exit.
func (s *Supervisor) tearDown(ctx context.Context) error {
	var errs []error
	if err := s.cfg.Handle.Close(ctx); err != nil {
		s.cfg.Logger.Warn().Err(err).Msg("close store")
		errs = append(errs, err)
	}

	s.mu.RLock()
	proc := s.proc
	s.mu.RUnlock()
	if proc != nil {
		if err := proc.Stop(ctx); err != nil {
			s.cfg.Logger.Warn().Err(err).Msg("stop database process")
			errs = append(errs, err)
		}
		<-proc.Done()
	}

	s.mu.Lock()
	s.proc = nil
	s.mu.Unlock()
	return errors.Join(errs...)
}
