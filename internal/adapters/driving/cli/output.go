package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

// Table colours.
var (
	colorHeader = lipgloss.Color("#7C3AED")
	colorBorder = lipgloss.Color("#45475A")
	colorMuted  = lipgloss.Color("#6C7086")
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(colorHeader).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	oddRowStyle = cellStyle.Foreground(colorMuted)
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeRows renders headers and rows as a bordered table on a terminal,
// and as tab-separated lines otherwise.
func writeRows(w io.Writer, headers []string, rows [][]string) error {
	if isTerminal(w) {
		_, err := fmt.Fprintln(w, renderTable(headers, rows))
		return err
	}
	return writeTSV(w, headers, rows)
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 1:
				return oddRowStyle
			default:
				return cellStyle
			}
		}).
		String()
}

// writeTSV writes one header line and one line per row. Tabs and newlines
// inside cells become spaces.
func writeTSV(w io.Writer, headers []string, rows [][]string) error {
	if _, err := fmt.Fprintln(w, joinTSV(headers)); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, joinTSV(row)); err != nil {
			return err
		}
	}
	return nil
}

var tsvEscaper = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func joinTSV(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = tsvEscaper.Replace(c)
	}
	return strings.Join(escaped, "\t")
}
