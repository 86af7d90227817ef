package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a function that renders markdown for the terminal using glamour.
// If the renderer cannot be built the markdown is returned unchanged.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// ColorEvent colors a simulator event line by severity.
func ColorEvent(event string) string {
	p := termenv.ColorProfile()
	s := termenv.String(event)
	switch {
	case strings.HasPrefix(event, "ERROR: "), strings.HasPrefix(event, "Unknown "):
		s = s.Foreground(p.Color("#ef4444"))
	case strings.HasPrefix(event, "WARNING: "):
		s = s.Foreground(p.Color("#f59e0b"))
	case strings.HasPrefix(event, "SchemaError: "):
		s = s.Foreground(p.Color("#d946ef"))
	case strings.HasPrefix(event, "ROLLBACK "):
		s = s.Foreground(p.Color("#38bdf8"))
	case strings.HasSuffix(event, "passed=true"):
		s = s.Foreground(p.Color("#22c55e")).Bold()
	}
	return s.String()
}
