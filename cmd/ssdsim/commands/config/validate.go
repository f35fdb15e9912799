package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ssdsim/internal/bytesize"
	"github.com/marmos91/ssdsim/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the ssdsim configuration file.

Checks for syntax errors, missing required fields, invalid values, an unusable
geometry and incomplete media backend settings.

Examples:
  # Validate default config
  ssdsim config validate

  # Validate specific config file
  ssdsim config validate --config /etc/ssdsim/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.Media.Type == config.MediaMemory {
		warnings = append(warnings, "memory media is lost on restart")
	}
	if cfg.Device.Geometry.PhysicalBlocks-cfg.Device.Geometry.LogicalBlocks == 1 {
		warnings = append(warnings, "only one spare block: a full device runs GC on nearly every block switch")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	geom := cfg.Device.Geometry
	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Media type:      %s\n", cfg.Media.Type)
	_, _ = fmt.Fprintf(out, "  Geometry:        %d x %d pages of %d bytes (%d logical blocks)\n",
		geom.PhysicalBlocks, geom.PagesPerBlock, geom.PageSize, geom.LogicalBlocks)
	_, _ = fmt.Fprintf(out, "  Capacity:        %s\n", bytesize.ByteSize(geom.Capacity()).Human())
	_, _ = fmt.Fprintf(out, "  API listen:      %s\n", cfg.API.Listen)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}
