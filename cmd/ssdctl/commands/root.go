// Package commands implements the CLI commands for the ssdctl client.
package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/ssdsim/cmd/ssdctl/cmdutil"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ssdctl",
	Short: "ssdctl - Client for the ssdsim device API",
	Long: `ssdctl drives a running ssdsim device over its REST API: read and write
logical bytes, format the device and inspect the FTL counters.

The server defaults to $SSDCTL_SERVER, or http://127.0.0.1:8080.

Use "ssdctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.Timeout, _ = cmd.Flags().GetDuration("timeout")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Server URL (default: $SSDCTL_SERVER or "+cmdutil.DefaultServerURL+")")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
