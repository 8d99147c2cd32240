package types

import "time"

// AppConfigType is the discriminator of the app-config document.
const AppConfigType = "app-config"

// AppConfig is the application settings document kept in the config
// collection. There is at most one per database.
type AppConfig struct {
	ID        ID         `json:"_id"`
	Type      string     `json:"type"`
	DBPath    string     `json:"dbPath"`
	Theme     string     `json:"theme"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// AppConfigPatch updates the settings document.
type AppConfigPatch struct {
	DBPath *string `json:"dbPath,omitempty"`
	Theme  *string `json:"theme,omitempty"`
}

// Backend names a document store implementation.
type Backend string

const (
	BackendMongo  Backend = "mongo"
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
)

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	return b == BackendMongo || b == BackendFile || b == BackendMemory
}

// Bootstrap is the configuration read before any database is available.
// It lives in a small JSON file next to the user's settings.
type Bootstrap struct {
	// Storage directory handed to the database process (or file store)
	DBPath string `json:"dbPath"`

	// Which store to run: "mongo" (default), "file" or "memory"
	Backend Backend `json:"backend,omitempty"`

	// Use an in-memory store when mongo cannot be reached
	FallbackToMemory *bool `json:"fallbackToMemory,omitempty"`

	Mongo  MongoConfig  `json:"mongo,omitempty"`
	Server ServerConfig `json:"server,omitempty"`

	LogLevel string `json:"logLevel,omitempty"`
}

// MongoConfig describes the local mongod process.
type MongoConfig struct {
	Binary       string `json:"binary,omitempty"`
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	Database     string `json:"database,omitempty"`
	ReadyTimeout int    `json:"readyTimeout,omitempty"` // ms
	StopTimeout  int    `json:"stopTimeout,omitempty"`  // ms
}

// ServerConfig describes the loopback HTTP boundary.
type ServerConfig struct {
	Host    string `json:"host,omitempty"`
	Port    int    `json:"port,omitempty"`
	CORS    *bool  `json:"cors,omitempty"`
	Metrics *bool  `json:"metrics,omitempty"`
}

// Fallback reports whether the memory fallback is enabled.
func (b *Bootstrap) Fallback() bool {
	return b.FallbackToMemory == nil || *b.FallbackToMemory
}

// ReadyTimeoutDuration returns the readiness wait as a duration.
func (m MongoConfig) ReadyTimeoutDuration() time.Duration {
	return time.Duration(m.ReadyTimeout) * time.Millisecond
}

// StopTimeoutDuration returns the graceful stop wait as a duration.
func (m MongoConfig) StopTimeoutDuration() time.Duration {
	return time.Duration(m.StopTimeout) * time.Millisecond
}

// Enabled reports whether a tri-state flag is on; unset means on.
func Enabled(flag *bool) bool {
	return flag == nil || *flag
}
