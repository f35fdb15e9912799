package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ssdsim/cmd/ssdctl/cmdutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device health",
	Long: `Check the readiness endpoint of the connected device. The device is ready
when the media backend answers and the FTL maps are consistent.

Examples:
  ssdctl status
  ssdctl status -o json`,
	RunE: runStatus,
}

// DeviceStatus is the status report for display.
type DeviceStatus struct {
	Server  string `json:"server" yaml:"server"`
	Healthy bool   `json:"healthy" yaml:"healthy"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	status := DeviceStatus{Server: cmdutil.ServerURL()}

	if _, err := cmdutil.GetClient().Health(cmd.Context()); err != nil {
		status.Error = err.Error()
	} else {
		status.Healthy = true
	}

	state := "ready"
	if !status.Healthy {
		state = "not ready"
	}
	rows := kvTable{
		{"Server", status.Server},
		{"Status", state},
	}
	if status.Error != "" {
		rows = append(rows, [2]string{"Error", status.Error})
	}
	if err := cmdutil.PrintOutput(cmd.OutOrStdout(), status, rows); err != nil {
		return err
	}
	if !status.Healthy {
		return fmt.Errorf("device at %s is not ready", status.Server)
	}
	return nil
}
