package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// grid is a table view of a command result.
type grid struct {
	headers []string
	rows    [][]string
}

func (g *grid) add(cells ...string) {
	g.rows = append(g.rows, cells)
}

func (g *grid) render() string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#3F6F6A"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(g.headers...).
		Rows(g.rows...)
	return t.String()
}

// printResult writes v as JSON or YAML, or the table built by toGrid.
func printResult(w io.Writer, format string, v any, toGrid func() *grid) error {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatTable, "":
		g := toGrid()
		if len(g.rows) == 0 {
			_, err := fmt.Fprintln(w, "Nothing to show")
			return err
		}
		_, err := fmt.Fprintln(w, g.render())
		return err
	default:
		return fmt.Errorf("unknown output format %q (use table, json or yaml)", format)
	}
}

// printMessage writes a one-line confirmation, or v in a structured format.
func printMessage(w io.Writer, format string, v any, msg string) error {
	switch strings.ToLower(format) {
	case formatJSON, formatYAML:
		return printResult(w, format, v, nil)
	default:
		_, err := fmt.Fprintln(w, msg)
		return err
	}
}
