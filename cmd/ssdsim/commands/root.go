// Package commands implements the CLI commands for the ssdsim server.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/ssdsim/cmd/ssdsim/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ssdsim",
	Short: "ssdsim - Simulated SSD with a Flash Translation Layer",
	Long: `ssdsim simulates a solid state drive: a flat logical byte space mapped onto
NAND pages by a page-level Flash Translation Layer with log-structured writes
and greedy garbage collection. The NAND media can live in memory, on the local
filesystem, in a memory-mapped file, in BadgerDB, in S3 or in a SQL database.

The device is served over a small HTTP API; use ssdctl to drive it.

Use "ssdsim [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/ssdsim/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
