package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "buildtrack"

// BootstrapFileName is the name of the bootstrap configuration file.
const BootstrapFileName = "bootstrap-config.json"

// Paths contains the standard paths for buildtrack data.
type Paths struct {
	Data   string // ~/.local/share/buildtrack
	Config string // ~/.config/buildtrack
	Cache  string // ~/.cache/buildtrack
	State  string // ~/.local/state/buildtrack
}

// GetPaths returns the standard paths for buildtrack data.
func GetPaths() *Paths {
	return &Paths{
		Data:   filepath.Join(getEnvOrDefault("XDG_DATA_HOME", defaultDataHome()), AppName),
		Config: filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", defaultConfigHome()), AppName),
		Cache:  filepath.Join(getEnvOrDefault("XDG_CACHE_HOME", defaultCacheHome()), AppName),
		State:  filepath.Join(getEnvOrDefault("XDG_STATE_HOME", defaultStateHome()), AppName),
	}
}

// EnsurePaths creates all required directories.
func (p *Paths) EnsurePaths() error {
	for _, dir := range []string{p.Data, p.Config, p.Cache, p.State} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// StoragePath returns the default database directory.
func (p *Paths) StoragePath() string {
	return filepath.Join(p.Data, "data")
}

// BootstrapPath returns the path of the bootstrap configuration file.
func (p *Paths) BootstrapPath() string {
	return filepath.Join(p.Config, BootstrapFileName)
}

// LogDir returns the directory for log files.
func (p *Paths) LogDir() string {
	return filepath.Join(p.State, "log")
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultDataHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share")
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func defaultCacheHome() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "cache")
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}

func defaultStateHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state")
}
