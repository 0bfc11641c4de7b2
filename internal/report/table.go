package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders the rows sorted by hit ratio.
func (r *Report) Table() string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return style.Bold(true)
			case col > 0:
				return style.Align(lipgloss.Right)
			default:
				return style
			}
		}).
		Headers(Headers...)

	for _, row := range r.Sorted() {
		t.Row(row.Cells()...)
	}

	return t.String()
}

// WriteTable prints the table followed by the service count.
func (r *Report) WriteTable(w io.Writer) error {
	if _, err := fmt.Fprintln(w, r.Table()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d services\n", len(r.Rows))
	return err
}
