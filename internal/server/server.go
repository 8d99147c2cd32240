package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/buildtrack/buildtrack/internal/event"
	"github.com/buildtrack/buildtrack/internal/metrics"
	"github.com/buildtrack/buildtrack/internal/rpc"
)

// Config holds server configuration.
type Config struct {
	Host          string
	Port          int
	EnableCORS    bool
	EnableMetrics bool
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxBodyBytes  int64
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:          "127.0.0.1",
		Port:          7421,
		EnableCORS:    true,
		EnableMetrics: true,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  0, // No write timeout for SSE
		MaxBodyBytes:  1 << 20,
	}
}

// Deps are the components the server serves.
type Deps struct {
	Registry *rpc.Registry
	Bus      *event.Bus
	Metrics  *metrics.Metrics

	// Status is reported by /health; nil reports nothing extra.
	Status func() any

	Logger zerolog.Logger
}

// Server is the HTTP server.
type Server struct {
	config   *Config
	router   *chi.Mux
	httpSrv  *http.Server
	listener net.Listener

	registry *rpc.Registry
	bus      *event.Bus
	metrics  *metrics.Metrics
	status   func() any
	logger   zerolog.Logger
}

// New creates a new Server instance.
func New(cfg *Config, deps Deps) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		registry: deps.Registry,
		bus:      deps.Bus,
		metrics:  deps.Metrics,
		status:   deps.Status,
		logger:   deps.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

// Listen binds the configured address. Port 0 picks a free port.
func (s *Server) Listen() (net.Addr, error) {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return ln.Addr(), nil
}

// Serve accepts connections on the listener opened by Listen. It returns
// nil after Shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("server: Serve called before Listen")
	}
	s.logger.Info().Str("addr", s.listener.Addr().String()).Msg("listening")
	if err := s.httpSrv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens and serves until Shutdown.
func (s *Server) Start() error {
	if _, err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
