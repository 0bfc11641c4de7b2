package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

// GeneratedLayout formats the dashboard timestamp, e.g. "14:05 UTC on Monday 19 Oct 2026".
const GeneratedLayout = "15:04 MST on Monday 02 Jan 2006"

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

type dashboardData struct {
	Rows      []Row
	Generated string
	Hours     int
}

// RenderHTML writes the dashboard page. Rows keep their given order; sorting
// happens in the browser.
func RenderHTML(w io.Writer, rows []Row, generated time.Time, hours int) error {
	data := dashboardData{
		Rows:      rows,
		Generated: generated.Format(GeneratedLayout),
		Hours:     hours,
	}
	if err := dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		return fmt.Errorf("rendering dashboard: %w", err)
	}
	return nil
}
