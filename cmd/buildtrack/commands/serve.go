package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/buildtrack/buildtrack/internal/app"
	"github.com/buildtrack/buildtrack/internal/config"
	"github.com/buildtrack/buildtrack/internal/logging"
	"github.com/buildtrack/buildtrack/pkg/types"
)

var (
	servePort    int
	serveHost    string
	serveBackend string
	serveDBPath  string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local buildtrack server",
	Long: `Start the database (launching mongod when the mongo backend is
selected) and serve the operation boundary over HTTP on loopback.

The bootstrap file is watched; changing its dbPath moves the database to
the new directory without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "hostname", "", "Hostname to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "Storage backend: mongo, file or memory")
	serveCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Storage directory")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not watch the bootstrap file")
}

func applyServeFlags(cfg *types.Bootstrap) {
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if serveBackend != "" {
		cfg.Backend = types.Backend(serveBackend)
	}
	if serveDBPath != "" {
		cfg.DBPath = serveDBPath
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	defer logging.Close()

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}

	path := bootstrapPath()
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	applyServeFlags(cfg)

	if logLevel == "" && cfg.LogLevel != "" {
		logging.Logger = logging.Logger.Level(logging.ParseLevel(cfg.LogLevel))
	}

	if file := logging.GetLogFilePath(); file != "" {
		logging.Info().Str("file", file).Msg("logging to file")
	}

	logging.Info().
		Str("version", Version).
		Str("config", path).
		Str("backend", string(cfg.Backend)).
		Str("dbPath", cfg.DBPath).
		Msg("starting buildtrack")

	ctx := context.Background()
	a := app.New(cfg, path)
	if err := a.Start(ctx); err != nil {
		logging.Error().Err(err).Msg("startup failed")
		return err
	}

	if !serveNoWatch {
		w, err := config.Watch(path, func(next *types.Bootstrap) {
			_ = a.Reconfigure(ctx, next)
		})
		if err != nil {
			logging.Warn().Err(err).Str("config", path).Msg("config watcher disabled")
		} else {
			w.Start()
			defer w.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Serve()
	}()

	logging.Info().Str("addr", "http://"+a.Addr().String()).Msg("server ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case <-quit:
		logging.Info().Msg("shutting down")
	case serveErr = <-errCh:
		logging.Error().Err(serveErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Stop(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown error")
	}

	logging.Info().Msg("stopped")
	return serveErr
}
