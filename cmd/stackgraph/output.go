// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/stackgraph/stackgraph/pkg/depgraph"
)

const (
	// FormatYAML writes the graph as YAML.
	FormatYAML OutputFormat = "yaml"
	// FormatJSON writes the graph as indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatTOML writes the graph as TOML.
	FormatTOML OutputFormat = "toml"
	// FormatTable writes styled node and edge tables for terminals.
	FormatTable OutputFormat = "table"
)

// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
var ErrInvalidOutputFormat = errors.New("invalid output format")

type (
	// OutputFormat selects how a compiled graph is written.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}
)

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the defined formats.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case FormatYAML, FormatJSON, FormatTOML, FormatTable:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: yaml, json, toml, table)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// writeGraph writes out to w in the given format.
func writeGraph(w io.Writer, out *graphOutput, format OutputFormat) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode graph as YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode graph as JSON: %w", err)
		}
		return nil
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode graph as TOML: %w", err)
		}
		return nil
	case FormatTable:
		_, err := fmt.Fprintln(w, renderTables(out))
		return err
	default:
		return &InvalidOutputFormatError{Value: format}
	}
}

// renderTables renders the nodes in start order followed by the edges.
func renderTables(out *graphOutput) string {
	nodes := slices.Clone(out.Nodes)
	position := make(map[string]int, len(out.StartOrder))
	for i, ref := range out.StartOrder {
		position[ref] = i
	}
	slices.SortStableFunc(nodes, func(a, b depgraph.NodeDocument) int {
		return position[a.Ref] - position[b.Ref]
	})

	nodeRows := make([][]string, len(nodes))
	for i, n := range nodes {
		nodeRows[i] = []string{
			n.Ref,
			n.Kind.String(),
			formatPorts(n.Ports),
			strings.Join(n.Node.Publishes, ", "),
			strings.Join(n.Node.SubscribedEvents(), ", "),
			strconv.Itoa(len(n.Parameters)),
		}
	}
	edgeRows := make([][]string, len(out.Edges))
	for i, e := range out.Edges {
		edgeRows[i] = []string{e.From, e.Type.String(), e.To}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Nodes"),
		newTable([]string{"REF", "KIND", "PORTS", "PUBLISHES", "SUBSCRIBES", "PARAMS"}, nodeRows),
		"",
		TitleStyle.Render("Edges"),
		newTable([]string{"FROM", "TYPE", "TO"}, edgeRows),
	)
}

func newTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func formatPorts(p depgraph.Ports) string {
	switch {
	case p.Target == 0 && p.Expose == 0:
		return "-"
	case p.Expose == 0:
		return strconv.Itoa(p.Target)
	default:
		return fmt.Sprintf("%d->%d", p.Expose, p.Target)
	}
}
