// Package testutil boots a real buildtrack server for the citest suites and
// provides HTTP and SSE clients for it.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/buildtrack/buildtrack/internal/app"
	"github.com/buildtrack/buildtrack/internal/config"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// TestServer wraps an app instance for testing
type TestServer struct {
	App        *app.App
	BaseURL    string
	Config     *types.Bootstrap
	ConfigPath string
	TempDir    string
}

// TestServerOption configures TestServer
type TestServerOption func(*testServerConfig)

type testServerConfig struct {
	backend types.Backend
	envFile string
}

// WithBackend selects the storage backend. The default is the file store.
func WithBackend(b types.Backend) TestServerOption {
	return func(c *testServerConfig) {
		c.backend = b
	}
}

// WithEnvFile sets the .env file to load
func WithEnvFile(path string) TestServerOption {
	return func(c *testServerConfig) {
		c.envFile = path
	}
}

// StartTestServer creates and starts a test server on a free loopback port.
func StartTestServer(opts ...TestServerOption) (*TestServer, error) {
	cfg := &testServerConfig{backend: types.BackendFile}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.envFile != "" {
		_ = godotenv.Load(cfg.envFile)
	}

	tempDir, err := os.MkdirTemp("", "buildtrack-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	bootstrap := config.Default()
	bootstrap.Backend = cfg.backend
	bootstrap.DBPath = filepath.Join(tempDir, "data")
	bootstrap.Server.Host = "127.0.0.1"
	bootstrap.Server.Port = 0

	configPath := filepath.Join(tempDir, config.BootstrapFileName)
	if err := config.Save(bootstrap, configPath); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to write bootstrap config: %w", err)
	}

	a := app.New(bootstrap, configPath)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Start(ctx); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to start app: %w", err)
	}

	go func() {
		_ = a.Serve()
	}()

	baseURL := "http://" + a.Addr().String()
	if err := waitForServer(baseURL, 10*time.Second); err != nil {
		a.Stop(context.Background())
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("server failed to start: %w", err)
	}

	return &TestServer{
		App:        a,
		BaseURL:    baseURL,
		Config:     bootstrap,
		ConfigPath: configPath,
		TempDir:    tempDir,
	}, nil
}

// Stop shuts down the test server and cleans up
func (ts *TestServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if ts.App != nil {
		if err := ts.App.Stop(ctx); err != nil {
			return err
		}
	}

	if ts.TempDir != "" {
		os.RemoveAll(ts.TempDir)
	}

	return nil
}

// Client returns a new test client for this server
func (ts *TestServer) Client() *TestClient {
	return NewTestClient(ts.BaseURL)
}

// SSEClient returns a new SSE client for this server
func (ts *TestServer) SSEClient() *SSEClient {
	return NewSSEClient(ts.BaseURL)
}

// waitForServer waits for the server to be ready
func waitForServer(baseURL string, timeout time.Duration) error {
	client := NewTestClient(baseURL)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(context.Background(), "/health")
		if err == nil && resp.IsSuccess() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %v", timeout)
}
