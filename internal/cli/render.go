package cli

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Preview lengths for review text.
const (
	keywordPreviewLength = 200
	oneStarPreviewLength = 120
	textColumnWidth      = 80
)

const noResultsMessage = "No results found."

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

// wrapTextColumn wraps the column named name at textColumnWidth.
func wrapTextColumn(t table.Writer, name string) {
	t.SetColumnConfigs([]table.ColumnConfig{{
		Name:             name,
		WidthMax:         textColumnWidth,
		WidthMaxEnforcer: text.WrapSoft,
	}})
}

// truncate shortens s to at most n runes, appending "..." when anything was cut.
// Newlines are flattened so each review stays in one table cell.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
