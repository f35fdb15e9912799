package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ssdsim/cmd/ssdctl/cmdutil"
	"github.com/marmos91/ssdsim/internal/bytesize"
	"github.com/marmos91/ssdsim/internal/cli/prompt"
)

var (
	formatSize  string
	formatForce bool
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Format the device",
	Long: `Drop every logical-to-physical mapping and set a new logical size. All
data on the device becomes unreachable. Host and NAND counters are kept.

Examples:
  # Format to 40KiB, asking for confirmation
  ssdctl format --size 40KiB

  # Format without prompting
  ssdctl format --size 0 --force`,
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().StringVar(&formatSize, "size", "0", "New logical size")
	formatCmd.Flags().BoolVarP(&formatForce, "force", "f", false, "Skip confirmation")
}

func runFormat(cmd *cobra.Command, args []string) error {
	size, err := bytesize.Parse(formatSize)
	if err != nil {
		return fmt.Errorf("invalid --size: %w", err)
	}

	server := cmdutil.ServerURL()
	ok, err := prompt.ConfirmUnlessForced(fmt.Sprintf("Format the device at %s to %s", server, size.Human()), formatForce)
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			return errors.New("format aborted")
		}
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Format cancelled")
		return nil
	}

	stats, err := cmdutil.GetClient().Format(cmd.Context(), size.Uint64())
	if err != nil {
		return fmt.Errorf("format failed: %w", err)
	}

	return cmdutil.PrintOutput(cmd.OutOrStdout(), stats, kvTable{
		{"Formatted", server},
		{"Logical size", fmt.Sprintf("%s / %s", human(stats.LogicalSize), human(stats.Capacity))},
		{"Free blocks", fmt.Sprintf("%d", stats.FreeBlocks)},
	})
}
