// Package cmdutil provides shared utilities for ssdctl commands.
package cmdutil

import (
	"io"
	"os"
	"time"

	"github.com/marmos91/ssdsim/internal/cli/output"
	"github.com/marmos91/ssdsim/pkg/apiclient"
)

// DefaultServerURL is used when neither --server nor SSDCTL_SERVER is set.
const DefaultServerURL = "http://127.0.0.1:8080"

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ServerURL string
	Output    string
	Timeout   time.Duration
}

// ServerURL resolves the server from the flag, then SSDCTL_SERVER, then the default.
func ServerURL() string {
	if Flags.ServerURL != "" {
		return Flags.ServerURL
	}
	if env := os.Getenv("SSDCTL_SERVER"); env != "" {
		return env
	}
	return DefaultServerURL
}

// GetClient returns an API client for the resolved server.
func GetClient() *apiclient.Client {
	client := apiclient.New(ServerURL())
	if Flags.Timeout > 0 {
		client = client.WithTimeout(Flags.Timeout)
	}
	return client
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintOutput prints data in the selected format. In table format data is
// rendered through table when it is non-nil.
func PrintOutput(w io.Writer, data any, table output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}
	printer := output.NewPrinter(w, format)
	if format == output.FormatTable && table != nil {
		return printer.Print(table)
	}
	return printer.Print(data)
}
