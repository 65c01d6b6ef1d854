// Package web holds the HTML templates for the public form and the admin
// pages.
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// DateLayout is how timestamps are shown on the admin pages.
const DateLayout = "2006-01-02 15:04:05"

// Templates parses every embedded template. Templates are addressed by file
// name, e.g. "form.html".
func Templates() *template.Template {
	return template.Must(
		template.New("").
			Funcs(template.FuncMap{"formatTime": formatTime}).
			ParseFS(templateFS, "templates/*.html"),
	)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
