package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ssdsim/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a configuration file",
	Long: `Write a configuration file holding every default.

By default, the configuration file is created at $XDG_CONFIG_HOME/ssdsim/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  ssdsim config init

  # Initialize with custom path
  ssdsim config init --config /etc/ssdsim/config.yaml

  # Force overwrite existing config
  ssdsim config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	var err error
	if configPath != "" {
		err = config.InitConfigToPath(configPath, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Pick a media backend (media.type) and adjust the device geometry")
	_, _ = fmt.Fprintf(out, "  2. Start the device with: ssdsim start --config %s\n", configPath)
	return nil
}
