// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Format selects how results are rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses the --output flag.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid output format %q (valid: table, json, yaml)", s)
}

// TableRenderer is implemented by results with a tabular form.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// Printer writes results in one format.
type Printer struct {
	out    io.Writer
	format Format
}

// NewPrinter returns a printer writing to out.
func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{out: out, format: format}
}

// Print renders v. In table format, values that do not implement
// TableRenderer fall back to JSON.
func (p *Printer) Print(v any) error {
	switch p.format {
	case FormatJSON:
		return printJSON(p.out, v)
	case FormatYAML:
		return printYAML(p.out, v)
	case FormatTable:
		if r, ok := v.(TableRenderer); ok {
			printTable(p.out, r.Headers(), r.Rows(), " ")
			return nil
		}
		return printJSON(p.out, v)
	}
	return fmt.Errorf("unknown output format %q", p.format)
}

// PrintKV renders key/value pairs as an aligned two-column list.
func (p *Printer) PrintKV(pairs [][2]string) {
	rows := make([][]string, len(pairs))
	for i, kv := range pairs {
		rows[i] = []string{kv[0] + ":", kv[1]}
	}
	printTable(p.out, nil, rows, "")
}

// Printf writes a formatted message.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func printTable(w io.Writer, headers []string, rows [][]string, sep string) {
	table := tablewriter.NewWriter(w)
	if len(headers) > 0 {
		table.SetHeader(headers)
		table.SetAutoFormatHeaders(true)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetHeaderLine(false)
	}
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(sep)
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
