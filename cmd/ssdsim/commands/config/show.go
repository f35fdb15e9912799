package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/ssdsim/internal/cli/output"
	"github.com/marmos91/ssdsim/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective ssdsim configuration: defaults, overridden by the
config file, overridden by SSDSIM_* environment variables.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show default config as YAML
  ssdsim config show

  # Show as JSON
  ssdsim config show --output json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.NewPrinter(cmd.OutOrStdout(), format).Print(cfg)
}
