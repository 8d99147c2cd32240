package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/buildtrack/buildtrack/pkg/types"
	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
)

// Defaults for the bootstrap configuration.
const (
	DefaultMongoBinary  = "mongod"
	DefaultMongoHost    = "127.0.0.1"
	DefaultMongoPort    = 27018
	DefaultDatabase     = "construction_manager"
	DefaultReadyTimeout = 5000  // ms
	DefaultStopTimeout  = 10000 // ms
	DefaultServerHost   = "127.0.0.1"
	DefaultServerPort   = 7421
	DefaultBackend      = types.BackendMongo
	DefaultLogLevel     = "info"
)

const (
	inlineConfigEnvVar  = "BUILDTRACK_CONFIG_CONTENT"
	bootstrapFileEnvVar = "BUILDTRACK_CONFIG"
	dotEnvFileName      = ".env"
)

var envPattern = regexp.MustCompile(`\{env:([^}]+)\}`)

// Default returns the bootstrap configuration used when no file exists.
func Default() *types.Bootstrap {
	return &types.Bootstrap{
		DBPath:  GetPaths().StoragePath(),
		Backend: DefaultBackend,
		Mongo: types.MongoConfig{
			Binary:       DefaultMongoBinary,
			Host:         DefaultMongoHost,
			Port:         DefaultMongoPort,
			Database:     DefaultDatabase,
			ReadyTimeout: DefaultReadyTimeout,
			StopTimeout:  DefaultStopTimeout,
		},
		Server: types.ServerConfig{
			Host: DefaultServerHost,
			Port: DefaultServerPort,
		},
		LogLevel: DefaultLogLevel,
	}
}

// Path returns the bootstrap file to use: BUILDTRACK_CONFIG when set,
// otherwise the file in the XDG config directory.
func Path() string {
	if p := os.Getenv(bootstrapFileEnvVar); p != "" {
		return p
	}
	return GetPaths().BootstrapPath()
}

// Load reads the bootstrap configuration from path. An empty path means Path().
func Load(path string) (*types.Bootstrap, error) {
	if path == "" {
		path = Path()
	}

	cfg := Default()

	if err := loadFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if content := os.Getenv(inlineConfigEnvVar); content != "" {
		var inline types.Bootstrap
		if err := json.Unmarshal([]byte(content), &inline); err != nil {
			return nil, fmt.Errorf("parse %s: %w", inlineConfigEnvVar, err)
		}
		merge(cfg, &inline)
	}

	applyEnvOverrides(cfg)

	if !cfg.Backend.Valid() {
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if cfg.DBPath != "" {
		cfg.DBPath = expandHome(cfg.DBPath)
	}

	return cfg, nil
}

func loadFile(path string, cfg *types.Bootstrap) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data)

	var file types.Bootstrap
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	merge(cfg, &file)
	return nil
}

// interpolate processes {env:VAR} placeholders.
func interpolate(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// merge copies every non-zero field of source into target.
func merge(target, source *types.Bootstrap) {
	if source.DBPath != "" {
		target.DBPath = source.DBPath
	}
	if source.Backend != "" {
		target.Backend = source.Backend
	}
	if source.FallbackToMemory != nil {
		target.FallbackToMemory = source.FallbackToMemory
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}

	m := source.Mongo
	if m.Binary != "" {
		target.Mongo.Binary = m.Binary
	}
	if m.Host != "" {
		target.Mongo.Host = m.Host
	}
	if m.Port != 0 {
		target.Mongo.Port = m.Port
	}
	if m.Database != "" {
		target.Mongo.Database = m.Database
	}
	if m.ReadyTimeout != 0 {
		target.Mongo.ReadyTimeout = m.ReadyTimeout
	}
	if m.StopTimeout != 0 {
		target.Mongo.StopTimeout = m.StopTimeout
	}

	s := source.Server
	if s.Host != "" {
		target.Server.Host = s.Host
	}
	if s.Port != 0 {
		target.Server.Port = s.Port
	}
	if s.CORS != nil {
		target.Server.CORS = s.CORS
	}
	if s.Metrics != nil {
		target.Server.Metrics = s.Metrics
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *types.Bootstrap) {
	if v := os.Getenv("BUILDTRACK_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("BUILDTRACK_BACKEND"); v != "" {
		cfg.Backend = types.Backend(strings.ToLower(v))
	}
	if v := os.Getenv("BUILDTRACK_MONGOD"); v != "" {
		cfg.Mongo.Binary = v
	}
	if v := os.Getenv("BUILDTRACK_MONGO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Mongo.Port = port
		}
	}
	if v := os.Getenv("BUILDTRACK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BUILDTRACK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Save writes cfg to path atomically.
func Save(cfg *types.Bootstrap, path string) error {
	if path == "" {
		path = Path()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// SaveDBPath rewrites only the storage path of the file at path, keeping
// every other setting as found on disk.
func SaveDBPath(path, dbPath string) error {
	if path == "" {
		path = Path()
	}

	var cfg types.Bootstrap
	if err := loadFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	cfg.DBPath = dbPath
	return Save(&cfg, path)
}

// LoadDotEnv loads a .env file from dir when present. Used in development mode.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, dotEnvFileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(os.Getenv("HOME"), p[2:])
	}
	return p
}
