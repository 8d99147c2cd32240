package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildtrack/buildtrack/internal/config"
	"github.com/buildtrack/buildtrack/internal/rpc"
	"github.com/buildtrack/buildtrack/internal/supervisor"
	"github.com/buildtrack/buildtrack/pkg/types"
)

func testConfig(t *testing.T, backend types.Backend) *types.Bootstrap {
	t.Helper()
	cfg := config.Default()
	cfg.Backend = backend
	cfg.DBPath = filepath.Join(t.TempDir(), "data")
	cfg.Server.Port = 0
	return cfg
}

func startApp(t *testing.T, cfg *types.Bootstrap, configPath string) *App {
	t.Helper()
	a := New(cfg, configPath)
	require.NoError(t, a.Start(context.Background()))
	go func() { _ = a.Serve() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(ctx)
	})
	return a
}

func call(t *testing.T, a *App, op string, payload any) rpc.Result {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post("http://"+a.Addr().String()+"/rpc/"+op, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res rpc.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestApp_MemoryBackend(t *testing.T) {
	a := startApp(t, testConfig(t, types.BackendMemory), "")

	assert.Equal(t, supervisor.StateRunning, a.Supervisor.State())

	res := call(t, a, "auth.login", map[string]string{"username": "admin", "password": "admin123"})
	assert.True(t, res.Success, res.Message)

	res = call(t, a, "project.create", map[string]any{
		"name": "Depot", "location": "Nashik", "budget": 5000, "startDate": "2025-04-01",
	})
	require.True(t, res.Success, res.Message)

	res = call(t, a, "project.list", nil)
	require.True(t, res.Success)
	assert.Len(t, res.Data, 1)
}

func TestApp_FileBackendSwitch(t *testing.T) {
	cfg := testConfig(t, types.BackendFile)
	configPath := filepath.Join(t.TempDir(), "bootstrap-config.json")
	a := startApp(t, cfg, configPath)

	res := call(t, a, "project.create", map[string]any{
		"name": "Depot", "location": "Nashik", "budget": 5000, "startDate": "2025-04-01",
	})
	require.True(t, res.Success, res.Message)

	next := filepath.Join(t.TempDir(), "next")
	res = call(t, a, "settings.update", map[string]any{"dbPath": next})
	require.True(t, res.Success, res.Message)

	assert.Equal(t, next, a.Supervisor.Dir())
	assert.Equal(t, next, a.Config().DBPath)
	_, err := os.Stat(filepath.Join(next, "projects"))
	assert.NoError(t, err)

	res = call(t, a, "project.list", nil)
	require.True(t, res.Success)
	assert.Empty(t, res.Data)

	saved, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, next, saved.DBPath)

	res = call(t, a, "settings.status", nil)
	require.True(t, res.Success)
	status := res.Data.(map[string]any)
	assert.Equal(t, "running", status["state"])
	assert.Equal(t, "file", status["backend"])
}

func TestApp_Reconfigure(t *testing.T) {
	a := startApp(t, testConfig(t, types.BackendFile), "")
	ctx := context.Background()

	same := *a.Config()
	require.NoError(t, a.Reconfigure(ctx, &same))

	changed := *a.Config()
	changed.DBPath = filepath.Join(t.TempDir(), "moved")
	require.NoError(t, a.Reconfigure(ctx, &changed))
	assert.Equal(t, changed.DBPath, a.Supervisor.Dir())
}

// fakeMongod writes a script that announces readiness like mongod and then
// idles without ever serving the mongo protocol.
func fakeMongod(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "mongod")
	script := "#!/bin/sh\necho 'Waiting for connections'\nexec sleep 30\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestApp_MissingMongodIsFatal(t *testing.T) {
	cfg := testConfig(t, types.BackendMongo)
	cfg.Mongo.Binary = "buildtrack-no-such-mongod"
	require.True(t, cfg.Fallback())

	a := New(cfg, "")
	err := a.Start(context.Background())
	assert.ErrorIs(t, err, supervisor.ErrLaunch)
	assert.Nil(t, a.Addr())
	assert.Equal(t, supervisor.StateStopped, a.Supervisor.State())
	_ = a.Stop(context.Background())
}

func TestApp_UnreachableMongoFallsBack(t *testing.T) {
	cfg := testConfig(t, types.BackendMongo)
	cfg.Mongo.Binary = fakeMongod(t)
	cfg.Mongo.Port = 1
	cfg.Mongo.ReadyTimeout = 200

	a := startApp(t, cfg, "")
	assert.Equal(t, types.BackendMemory, a.Supervisor.Handle().Backend())
}

func TestApp_UnreachableMongoWithoutFallbackIsFatal(t *testing.T) {
	cfg := testConfig(t, types.BackendMongo)
	cfg.Mongo.Binary = fakeMongod(t)
	cfg.Mongo.Port = 1
	cfg.Mongo.ReadyTimeout = 200
	off := false
	cfg.FallbackToMemory = &off

	a := New(cfg, "")
	err := a.Start(context.Background())
	assert.ErrorIs(t, err, supervisor.ErrLaunch)
	assert.Nil(t, a.Addr())
	_ = a.Stop(context.Background())
}

func TestApp_ReconfigureKeepsCommandLineOverride(t *testing.T) {
	fromFile := filepath.Join(t.TempDir(), "from-file")
	configPath := filepath.Join(t.TempDir(), "bootstrap-config.json")
	require.NoError(t, config.SaveDBPath(configPath, fromFile))

	cfg := testConfig(t, types.BackendFile)
	override := cfg.DBPath
	a := startApp(t, cfg, configPath)
	ctx := context.Background()

	reloaded, err := config.Load(configPath)
	require.NoError(t, err)
	require.NoError(t, a.Reconfigure(ctx, reloaded))
	assert.Equal(t, override, a.Supervisor.Dir())

	moved := filepath.Join(t.TempDir(), "moved")
	require.NoError(t, config.SaveDBPath(configPath, moved))
	reloaded, err = config.Load(configPath)
	require.NoError(t, err)
	require.NoError(t, a.Reconfigure(ctx, reloaded))
	assert.Equal(t, moved, a.Supervisor.Dir())
	assert.Equal(t, moved, a.Config().DBPath)
}
