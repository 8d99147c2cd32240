// Package config loads and saves the bootstrap configuration.
//
// The bootstrap configuration is the part of the settings that must be known
// before any database exists: where the data directory lives, which store
// backend to run and how to reach the local mongod process. Everything else
// (theme and friends) lives in the app-config document inside the database.
//
// # Loading
//
// Load resolves the configuration in priority order:
//
//  1. Built-in defaults
//  2. The bootstrap file (JSON or JSONC, processed with tidwall/jsonc)
//  3. BUILDTRACK_CONFIG_CONTENT inline JSON
//  4. Environment variables
//
// A missing bootstrap file is not an error. String values in the file may
// reference the environment with {env:VAR_NAME}.
//
// # Environment Variable Overrides
//
//   - BUILDTRACK_DB_PATH - storage directory
//   - BUILDTRACK_BACKEND - mongo, file or memory
//   - BUILDTRACK_MONGOD - mongod binary
//   - BUILDTRACK_MONGO_PORT - mongod port
//   - BUILDTRACK_PORT - HTTP port of the message boundary
//   - BUILDTRACK_LOG_LEVEL - log level
//
// # Saving and Watching
//
// Save writes the file atomically. Watch reloads it whenever it changes on
// disk so a running server can follow a storage path edited by another
// process (for example `buildtrack config set-path`).
package config
