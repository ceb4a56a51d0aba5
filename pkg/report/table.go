package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Pages splits rows into pages of at most perPage rows.
func Pages(rows []Row, perPage int) [][]Row {
	if perPage <= 0 {
		perPage = RowsPerPage
	}
	pages := make([][]Row, 0, (len(rows)+perPage-1)/perPage)
	for start := 0; start < len(rows); start += perPage {
		end := min(start+perPage, len(rows))
		pages = append(pages, rows[start:end])
	}
	return pages
}

// RenderTable draws rows as a bordered text table.
func RenderTable(rows []Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(Columns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if col >= 3 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
	for _, r := range rows {
		t.Row(r.Strings()...)
	}
	return t.String()
}

// WriteTable writes rows as titled pages of at most perPage rows each.
func WriteTable(writer io.Writer, rows []Row, perPage int) error {
	w := &errWriter{w: writer}
	pages := Pages(rows, perPage)
	for i, page := range pages {
		w.printf("Voltage Drop Analysis - Data Table (Page %d/%d)\n", i+1, len(pages))
		w.printf("%s\n\n", RenderTable(page))
	}
	return w.err
}
