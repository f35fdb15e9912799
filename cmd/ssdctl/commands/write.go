package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/ssdsim/cmd/ssdctl/cmdutil"
	"github.com/marmos91/ssdsim/internal/bytesize"
)

var (
	writeOffset string
	writeData   string
	writeFile   string
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write bytes to the device",
	Long: `Write bytes at a logical offset. The logical size grows to cover the
write; writing past the device capacity fails without side effects.

Pass the payload inline with --data or from a file with --file ("-" reads
standard input).

Examples:
  # Write a string at offset 100
  ssdctl write --offset 100 --data "hello"

  # Write a file at 4KiB
  ssdctl write --offset 4KiB --file image.bin`,
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().StringVar(&writeOffset, "offset", "0", "Byte offset")
	writeCmd.Flags().StringVar(&writeData, "data", "", "Inline payload")
	writeCmd.Flags().StringVar(&writeFile, "file", "", "Read the payload from a file (- for stdin)")
	writeCmd.MarkFlagsMutuallyExclusive("data", "file")
	writeCmd.MarkFlagsOneRequired("data", "file")
}

func runWrite(cmd *cobra.Command, args []string) error {
	offset, err := bytesize.Parse(writeOffset)
	if err != nil {
		return fmt.Errorf("invalid --offset: %w", err)
	}

	payload, err := loadPayload(cmd.InOrStdin())
	if err != nil {
		return err
	}

	result, err := cmdutil.GetClient().Write(cmd.Context(), offset.Uint64(), payload)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	return cmdutil.PrintOutput(cmd.OutOrStdout(), result, kvTable{
		{"Written", fmt.Sprintf("%d bytes", result.Written)},
		{"Offset", fmt.Sprintf("%d", offset)},
		{"Logical size", human(result.LogicalSize)},
	})
}

func loadPayload(stdin io.Reader) ([]byte, error) {
	switch writeFile {
	case "":
		if writeData == "" {
			return nil, errors.New("empty payload")
		}
		return []byte(writeData), nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(writeFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", writeFile, err)
		}
		return data, nil
	}
}

// kvTable renders label/value pairs.
type kvTable [][2]string

func (t kvTable) Headers() []string {
	return nil
}

func (t kvTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, kv := range t {
		rows[i] = []string{kv[0] + ":", kv[1]}
	}
	return rows
}
