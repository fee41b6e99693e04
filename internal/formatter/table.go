// Package formatter renders reports as terminal tables or markdown.
package formatter

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"mhdb/pkg/utils"
)

// Output formats.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
)

// ErrUnknownFormat is returned for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown output format")

// MaxCellWidth is the display width at which cells are truncated.
const MaxCellWidth = 48

// Table is a titled grid of text cells.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Render writes tables to w in the given format.
func Render(w io.Writer, format string, tables ...Table) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}

		var out string

		switch format {
		case FormatTable:
			out = renderPretty(t)
		case FormatMarkdown:
			out = renderMarkdown(t)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
		}

		if _, err := io.WriteString(w, out+"\n"); err != nil {
			return err
		}
	}

	return nil
}

// Cell normalizes whitespace and truncates s to MaxCellWidth display columns.
func Cell(s string) string {
	return runewidth.Truncate(utils.NormalizeWhitespace(s), MaxCellWidth, "…")
}

func renderPretty(t Table) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	if t.Title != "" {
		tw.SetTitle(t.Title)
	}

	header := make(table.Row, 0, len(t.Header))
	for _, h := range t.Header {
		header = append(header, h)
	}

	tw.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(table.Row, 0, len(r))
		for _, c := range r {
			row = append(row, c)
		}

		tw.AppendRow(row)
	}

	return tw.Render()
}

// renderMarkdown pads every column to its widest cell, measured in display
// width so wide characters stay aligned.
func renderMarkdown(t Table) string {
	colCount := len(t.Header)
	for _, row := range t.Rows {
		colCount = max(colCount, len(row))
	}

	widths := make([]int, colCount)

	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(escapeCell(cell)))
		}
	}

	measure(t.Header)

	for _, row := range t.Rows {
		measure(row)
	}

	for i := range widths {
		widths[i] = max(widths[i], 3)
	}

	var lines []string

	if t.Title != "" {
		lines = append(lines, "### "+t.Title, "")
	}

	lines = append(lines, markdownRow(t.Header, widths))

	sep := make([]string, colCount)
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}

	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")

	for _, row := range t.Rows {
		lines = append(lines, markdownRow(row, widths))
	}

	return strings.Join(lines, "\n")
}

func markdownRow(row []string, widths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, w := range widths {
		content := ""
		if j < len(row) {
			content = escapeCell(row[j])
		}

		sb.WriteString(" ")
		sb.WriteString(content)

		if pad := w - runewidth.StringWidth(content); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
