// Package app builds every component from a bootstrap configuration and
// runs them in order: event bus, supervisor (database process and store),
// repository, operation registry, HTTP server.
package app

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/buildtrack/buildtrack/internal/config"
	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/internal/event"
	"github.com/buildtrack/buildtrack/internal/logging"
	"github.com/buildtrack/buildtrack/internal/metrics"
	"github.com/buildtrack/buildtrack/internal/repository"
	"github.com/buildtrack/buildtrack/internal/rpc"
	"github.com/buildtrack/buildtrack/internal/server"
	"github.com/buildtrack/buildtrack/internal/supervisor"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// connectTimeout bounds a single mongo connection attempt.
const connectTimeout = 2 * time.Second

// App is a wired application instance.
type App struct {
	mu  sync.Mutex
	cfg *types.Bootstrap
	// fileDBPath is the dbPath last read from configPath. Reconfigure only
	// switches when the file's value moves, so a command line override
	// survives unrelated edits to the file.
	fileDBPath string
	configPath string
	unsubs     []func()

	Bus        *event.Bus
	Metrics    *metrics.Metrics
	Supervisor *supervisor.Supervisor
	Repository *repository.Repository
	Registry   *rpc.Registry
	Service    *rpc.Service
	Server     *server.Server

	addr   net.Addr
	logger zerolog.Logger
}

// New wires the components for cfg. configPath is where a changed storage
// directory is persisted; empty disables persisting.
func New(cfg *types.Bootstrap, configPath string) *App {
	a := &App{
		cfg:        cfg,
		configPath: configPath,
		Bus:        event.NewBus(),
		Metrics:    metrics.New(),
		logger:     logging.Component("app"),
	}
	a.fileDBPath = filepath.Clean(cfg.DBPath)
	if _, err := os.Stat(configPath); configPath != "" && err == nil {
		if onDisk, err := config.Load(configPath); err == nil && onDisk.DBPath != "" {
			a.fileDBPath = filepath.Clean(onDisk.DBPath)
		}
	}

	launcher, connect := a.backend()
	a.Supervisor = supervisor.New(supervisor.Config{
		Launcher: launcher,
		Connect:  connect,
		Handle:   docstore.NewHandle(),
		Bus:      a.Bus,
		Metrics:  a.Metrics,
		Logger:   logging.Component("supervisor"),
	})
	handle := a.Supervisor.Handle()

	a.Repository = repository.New(handle)
	a.Registry = rpc.NewRegistry(a.Metrics, logging.Component("rpc"))
	a.Service = rpc.NewService(rpc.ServiceConfig{
		Repository: a.Repository,
		Switcher:   a.Supervisor,
		Backend:    handle,
		SaveDBPath: a.saveDBPath,
		Logger:     logging.Component("rpc"),
	})
	a.Service.Register(a.Registry)

	a.unsubs = append(a.unsubs,
		a.Bus.Subscribe(event.DatabaseSwitched, a.onDatabaseSwitched),
		a.Bus.SubscribeAll(func(e event.Event) {
			a.logger.Debug().Str("type", string(e.Type)).Msg("event published")
		}),
	)

	a.Server = server.New(&server.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		EnableCORS:    types.Enabled(cfg.Server.CORS),
		EnableMetrics: types.Enabled(cfg.Server.Metrics),
		ReadTimeout:   30 * time.Second,
		MaxBodyBytes:  1 << 20,
	}, server.Deps{
		Registry: a.Registry,
		Bus:      a.Bus,
		Metrics:  a.Metrics,
		Status:   a.status,
		Logger:   logging.Component("server"),
	})
	return a
}

// backend picks the launcher and connector for the configured backend.
func (a *App) backend() (supervisor.Launcher, supervisor.Connector) {
	cfg := a.cfg
	log := logging.Component("docstore")

	switch cfg.Backend {
	case types.BackendFile:
		return nil, func(ctx context.Context, dir string) (docstore.Store, error) {
			return docstore.Open(ctx, docstore.Options{Backend: types.BackendFile, Dir: dir, Logger: log})
		}
	case types.BackendMemory:
		return nil, func(ctx context.Context, dir string) (docstore.Store, error) {
			return docstore.Open(ctx, docstore.Options{Backend: types.BackendMemory, Logger: log})
		}
	}

	m := cfg.Mongo
	connect := func(ctx context.Context, dir string) (docstore.Store, error) {
		return docstore.Open(ctx, docstore.Options{
			Backend:          types.BackendMongo,
			URI:              docstore.MongoURI(m.Host, m.Port),
			Database:         m.Database,
			ConnectTimeout:   connectTimeout,
			RetryFor:         m.ReadyTimeoutDuration(),
			FallbackToMemory: cfg.Fallback(),
			Logger:           log,
		})
	}

	// A binary that cannot be found fails the launch, which is fatal at
	// start. The memory fallback only covers a launched mongod that never
	// accepts connections.
	return &supervisor.MongodLauncher{
		Binary:       m.Binary,
		Port:         m.Port,
		BindIP:       m.Host,
		ReadyMarker:  supervisor.DefaultReadyMarker,
		ReadyTimeout: m.ReadyTimeoutDuration(),
		StopTimeout:  m.StopTimeoutDuration(),
		Logger:       logging.Component("mongod"),
	}, connect
}

func (a *App) saveDBPath(dir string) error {
	if a.configPath == "" {
		return nil
	}
	if err := config.SaveDBPath(a.configPath, dir); err != nil {
		return err
	}
	a.mu.Lock()
	a.fileDBPath = filepath.Clean(dir)
	a.mu.Unlock()
	return nil
}

// onDatabaseSwitched keeps the effective configuration in step with the
// supervisor, whichever path triggered the switch.
func (a *App) onDatabaseSwitched(e event.Event) {
	data, ok := e.Data.(event.DatabaseSwitchedData)
	if !ok {
		return
	}
	a.mu.Lock()
	a.cfg.DBPath = data.Path
	a.mu.Unlock()
	a.logger.Info().Str("dir", data.Path).Msg("storage directory now in use")
}

type statusReport struct {
	State   supervisor.State `json:"state"`
	Dir     string           `json:"dir"`
	Backend types.Backend    `json:"backend"`
}

func (a *App) status() any {
	return statusReport{
		State:   a.Supervisor.State(),
		Dir:     a.Supervisor.Dir(),
		Backend: a.Supervisor.Handle().Backend(),
	}
}

// Config returns a copy of the effective bootstrap configuration.
func (a *App) Config() *types.Bootstrap {
	a.mu.Lock()
	defer a.mu.Unlock()
	cfg := *a.cfg
	return &cfg
}

// Start brings the database up and binds the HTTP listener. A database
// that cannot be started is fatal and returned wrapped in
// supervisor.ErrLaunch; the listener is not opened in that case.
func (a *App) Start(ctx context.Context) error {
	if err := a.Supervisor.Start(ctx, a.Config().DBPath); err != nil {
		return err
	}
	a.logger.Info().
		Str("dir", a.Supervisor.Dir()).
		Str("backend", string(a.Supervisor.Handle().Backend())).
		Msg("database ready")

	addr, err := a.Server.Listen()
	if err != nil {
		_ = a.Supervisor.Stop(ctx)
		return err
	}
	a.addr = addr
	return nil
}

// Addr is the bound HTTP address, valid after Start.
func (a *App) Addr() net.Addr {
	return a.addr
}

// Serve blocks serving HTTP until Stop.
func (a *App) Serve() error {
	return a.Server.Serve()
}

// Stop shuts the server down, then the database, then the bus.
func (a *App) Stop(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.Supervisor.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, unsub := range a.unsubs {
		unsub()
	}
	a.unsubs = nil
	if err := a.Bus.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Reconfigure reacts to an edited bootstrap file. A storage directory that
// differs from the one last read from the file switches the database;
// other settings apply on the next start.
func (a *App) Reconfigure(ctx context.Context, cfg *types.Bootstrap) error {
	if cfg.DBPath == "" {
		return nil
	}
	dir := filepath.Clean(cfg.DBPath)

	a.mu.Lock()
	moved := dir != a.fileDBPath
	a.mu.Unlock()
	if !moved {
		return nil
	}

	if dir != a.Supervisor.Dir() {
		a.logger.Info().Str("dir", dir).Msg("storage directory changed in bootstrap file")
		if err := a.Supervisor.Switch(ctx, dir); err != nil {
			a.logger.Error().Err(err).Str("dir", dir).Msg("switch after config change failed")
			return err
		}
	}

	a.mu.Lock()
	a.fileDBPath = dir
	a.mu.Unlock()
	return nil
}
