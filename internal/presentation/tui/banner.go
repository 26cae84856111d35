package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the lodge banner to w using a warm gradient.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _           _            ", "#fbbf24"},
		{" | | ___   __| | __ _  ___ ", "#f59e0b"},
		{" | |/ _ \\ / _` |/ _` |/ _ \\", "#f97316"},
		{" | | (_) | (_| | (_| |  __/", "#ea580c"},
		{" |_|\\___/ \\__,_|\\__, |\\___|", "#dc2626"},
		{"                |___/      ", "#b91c1c"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  property preferences, one question at a time  v"+version).Faint())
	fmt.Fprintln(w)
}
