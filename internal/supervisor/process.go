package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Process is a running database service.
type Process interface {
	// Stop asks the process to exit and waits until it has.
	Stop(ctx context.Context) error
	// Done is closed once the process has exited.
	Done() <-chan struct{}
	// Err is the exit error, valid after Done is closed.
	Err() error
}

// Launcher starts the database service serving dir. Launch returns once
// the service reports readiness or the readiness wait elapses.
type Launcher interface {
	Launch(ctx context.Context, dir string) (Process, error)
}

// Defaults for MongodLauncher.
const (
	DefaultReadyMarker  = "Waiting for connections"
	DefaultReadyTimeout = 5 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// MongodLauncher runs a local mongod bound to loopback.
type MongodLauncher struct {
	Binary string
	Port   int
	BindIP string

	// Args overrides the command line built from Port and BindIP.
	Args func(dir string) []string

	// ReadyMarker is the stdout line that signals the service accepts
	// connections. When it does not appear within ReadyTimeout, Launch
	// proceeds anyway.
	ReadyMarker  string
	ReadyTimeout time.Duration
	StopTimeout  time.Duration

	Logger zerolog.Logger
}

func (l *MongodLauncher) args(dir string) []string {
	if l.Args != nil {
		return l.Args(dir)
	}
	bind := l.BindIP
	if bind == "" {
		bind = "127.0.0.1"
	}
	return []string{"--dbpath", dir, "--port", strconv.Itoa(l.Port), "--bind_ip", bind}
}

// Launch starts the process and waits for readiness.
func (l *MongodLauncher) Launch(ctx context.Context, dir string) (Process, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	marker := l.ReadyMarker
	if marker == "" {
		marker = DefaultReadyMarker
	}
	readyTimeout := l.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = DefaultReadyTimeout
	}
	stopTimeout := l.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}

	// The process outlives ctx, so it is not bound to it.
	cmd := exec.Command(l.Binary, l.args(dir)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", l.Binary, err)
	}

	p := &execProcess{
		cmd:         cmd,
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
	}
	ready := make(chan struct{})
	go p.watch(stdout, marker, ready, l.Logger)

	select {
	case <-ready:
		l.Logger.Info().Str("dir", dir).Int("pid", cmd.Process.Pid).Msg("database process ready")
		return p, nil
	case <-p.done:
		return nil, fmt.Errorf("%w: %v", ErrExitedEarly, p.Err())
	case <-time.After(readyTimeout):
		l.Logger.Warn().
			Str("dir", dir).
			Dur("timeout", readyTimeout).
			Msg("readiness marker not seen, proceeding")
		return p, nil
	case <-ctx.Done():
		_ = p.Stop(context.Background())
		return nil, ctx.Err()
	}
}

type execProcess struct {
	cmd         *exec.Cmd
	done        chan struct{}
	stopTimeout time.Duration

	mu  sync.Mutex
	err error
}

// watch reads output until the process exits, then reaps it. Wait must
// not run before the pipe is drained.
func (p *execProcess) watch(stdout io.Reader, marker string, ready chan<- struct{}, log zerolog.Logger) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	signaled := false
	for scanner.Scan() {
		line := scanner.Text()
		log.Debug().Str("line", line).Msg("database output")
		if !signaled && strings.Contains(line, marker) {
			signaled = true
			close(ready)
		}
	}
	_, _ = io.Copy(io.Discard, stdout)

	err := p.cmd.Wait()
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	close(p.done)
}

func (p *execProcess) Done() <-chan struct{} { return p.done }

func (p *execProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stop sends SIGTERM and escalates to SIGKILL after the stop timeout.
func (p *execProcess) Stop(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = p.cmd.Process.Kill()
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(p.stopTimeout):
		_ = p.cmd.Process.Kill()
		<-p.done
		return nil
	case <-ctx.Done():
		_ = p.cmd.Process.Kill()
		<-p.done
		return ctx.Err()
	}
}
