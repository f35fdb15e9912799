package commands

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/ssdsim/cmd/ssdctl/cmdutil"
	"github.com/marmos91/ssdsim/internal/bytesize"
	"github.com/marmos91/ssdsim/internal/cli/output"
)

var (
	readOffset string
	readLength string
	readOut    string
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read bytes from the device",
	Long: `Read logical bytes from the device. Reads past the logical size are
clamped; unwritten pages read as zeros.

Offsets and lengths accept byte sizes such as 4096, 4KiB or 1MiB.

Examples:
  # Hex dump of the first page
  ssdctl read --offset 0 --length 512

  # Save raw bytes to a file
  ssdctl read --offset 1KiB --length 4KiB --out dump.bin`,
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringVar(&readOffset, "offset", "0", "Byte offset")
	readCmd.Flags().StringVar(&readLength, "length", "", "Number of bytes to read (required)")
	readCmd.Flags().StringVar(&readOut, "out", "", "Write raw bytes to this file instead of printing")
	_ = readCmd.MarkFlagRequired("length")
}

func runRead(cmd *cobra.Command, args []string) error {
	offset, err := bytesize.Parse(readOffset)
	if err != nil {
		return fmt.Errorf("invalid --offset: %w", err)
	}
	length, err := bytesize.Parse(readLength)
	if err != nil {
		return fmt.Errorf("invalid --length: %w", err)
	}

	result, err := cmdutil.GetClient().Read(cmd.Context(), offset.Uint64(), int(length))
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if readOut != "" {
		if err := os.WriteFile(readOut, result.Data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", readOut, err)
		}
		_, _ = fmt.Fprintf(out, "Read %d bytes at offset %d into %s\n", result.Length, result.Offset, readOut)
		return nil
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return output.NewPrinter(out, format).Print(result)
	}
	if result.Length == 0 {
		_, _ = fmt.Fprintln(out, "No data (offset is at or past the logical size)")
		return nil
	}
	_, _ = fmt.Fprint(out, hex.Dump(result.Data))
	return nil
}
