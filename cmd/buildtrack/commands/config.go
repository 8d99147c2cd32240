package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/buildtrack/buildtrack/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the bootstrap configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetPathCmd = &cobra.Command{
	Use:   "set-path <dir>",
	Short: "Set the storage directory",
	Long: `Write a new storage directory into the bootstrap file. A running
server watching the file moves its database there.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetPath,
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show system paths",
	Args:  cobra.NoArgs,
	RunE:  runConfigPaths,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetPathCmd)
	configCmd.AddCommand(configPathsCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(bootstrapPath())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigSetPath(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	path := bootstrapPath()
	if err := config.SaveDBPath(path, dir); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dbPath set to %s in %s\n", dir, path)
	return nil
}

func runConfigPaths(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "buildtrack paths:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Config:    %s\n", paths.Config)
	fmt.Fprintf(out, "  Bootstrap: %s\n", bootstrapPath())
	fmt.Fprintf(out, "  Data:      %s\n", paths.Data)
	fmt.Fprintf(out, "  Storage:   %s\n", paths.StoragePath())
	fmt.Fprintf(out, "  Logs:      %s\n", paths.LogDir())
	return nil
}
