package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/ssdsim/cmd/ssdctl/cmdutil"
	"github.com/marmos91/ssdsim/internal/bytesize"
	"github.com/marmos91/ssdsim/pkg/ftl"
)

var statsBlocks bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show device counters",
	Long: `Display the FTL counters of the connected device: logical size, host and
NAND bytes written, write amplification, GC cycles and the allocator state.

Examples:
  # Summary table
  ssdctl stats

  # Per-block live page counts
  ssdctl stats --blocks

  # Output as JSON
  ssdctl stats -o json`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsBlocks, "blocks", false, "Show per-block states instead of the summary")
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := cmdutil.GetClient().Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if statsBlocks {
		return cmdutil.PrintOutput(cmd.OutOrStdout(), stats.Blocks, blockTable{stats: stats})
	}
	return cmdutil.PrintOutput(cmd.OutOrStdout(), stats, statsTable{stats: stats})
}

// statsTable renders the summary as FIELD/VALUE rows.
type statsTable struct {
	stats *ftl.Stats
}

func (t statsTable) Headers() []string {
	return []string{"Field", "Value"}
}

func (t statsTable) Rows() [][]string {
	s := t.stats
	wa := "n/a"
	if s.WriteAmplification != nil {
		wa = strconv.FormatFloat(*s.WriteAmplification, 'f', 3, 64)
	}
	active := "none"
	if s.ActiveBlock != nil {
		active = fmt.Sprintf("%d (next page %d)", *s.ActiveBlock, s.NextPage)
	}
	return [][]string{
		{"Device", s.DeviceID},
		{"Backend", s.Backend},
		{"Logical size", fmt.Sprintf("%s / %s", human(s.LogicalSize), human(s.Capacity))},
		{"Geometry", fmt.Sprintf("%d blocks x %d pages x %d B", s.PhysicalBlocks, s.PagesPerBlock, s.PageSize)},
		{"Mapped pages", strconv.Itoa(s.MappedPages)},
		{"Host bytes written", human(s.HostBytesWritten)},
		{"NAND bytes written", fmt.Sprintf("%s (%d pages)", human(s.PhysicalBytesWritten), s.PhysicalPagesWritten)},
		{"Write amplification", wa},
		{"Free blocks", strconv.Itoa(s.FreeBlocks)},
		{"Active block", active},
		{"Staging block", strconv.FormatUint(uint64(s.StagingBlock), 10)},
		{"GC cycles", strconv.FormatUint(s.GCCycles, 10)},
	}
}

// blockTable renders one row per erase block.
type blockTable struct {
	stats *ftl.Stats
}

func (t blockTable) Headers() []string {
	return []string{"Block", "State", "Live", "Role"}
}

func (t blockTable) Rows() [][]string {
	s := t.stats
	rows := make([][]string, 0, len(s.Blocks))
	for i, state := range s.Blocks {
		block := uint32(i)
		role := ""
		switch {
		case block == s.StagingBlock:
			role = "staging"
		case s.ActiveBlock != nil && block == *s.ActiveBlock:
			role = "active"
		}
		status := "live"
		if state.IsFree() {
			status = "free"
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			status,
			strconv.FormatUint(uint64(state.LiveCount()), 10),
			role,
		})
	}
	return rows
}

func human(n uint64) string {
	return bytesize.ByteSize(n).Human()
}
