// Package commands provides the CLI commands for buildtrack.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildtrack/buildtrack/internal/config"
	"github.com/buildtrack/buildtrack/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	devMode    bool
	logLevel   string
	logToFile  bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "buildtrack",
	Short: "buildtrack - construction project ledger",
	Long: `buildtrack keeps the labour, materials, equipment and expenses of
construction projects in a local document database and reports their cost
against each project's budget.

Run 'buildtrack serve' to start the local server, then use 'buildtrack call'
or any HTTP client to talk to it.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Development mode: debug logs, console output, load .env")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-file", false, "Also write JSON logs to a file in the state log directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Bootstrap config file (default: $XDG_CONFIG_HOME/buildtrack/bootstrap-config.json)")

	rootCmd.SetVersionTemplate(fmt.Sprintf("buildtrack %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(configCmd)
}

// setup configures logging for every command. In development mode a .env
// file in the working directory is loaded first so it can set BUILDTRACK_*
// variables.
func setup(cmd *cobra.Command, args []string) error {
	if devMode {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := config.LoadDotEnv(wd); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := logging.DefaultConfig()
	if devMode {
		cfg = logging.DevConfig()
	}
	if level := resolveLogLevel(""); level != "" {
		cfg.Level = logging.ParseLevel(level)
	}
	if logToFile {
		cfg.LogToFile = true
		cfg.LogDir = config.GetPaths().LogDir()
	}
	logging.Init(cfg)
	return nil
}

// resolveLogLevel prefers the flag, then the environment, then fallback.
func resolveLogLevel(fallback string) string {
	if logLevel != "" {
		return logLevel
	}
	if v := os.Getenv("BUILDTRACK_LOG_LEVEL"); v != "" {
		return v
	}
	return fallback
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// bootstrapPath returns the config file in effect.
func bootstrapPath() string {
	if configPath != "" {
		return configPath
	}
	return config.Path()
}
