package cli

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mesh-intelligence/tracker/pkg/types"
)

var statusColors = map[types.Status]*color.Color{
	types.StatusOpen:       color.New(color.FgGreen),
	types.StatusInProgress: color.New(color.FgYellow),
	types.StatusClosed:     color.New(color.Faint),
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// statusPainter returns a function that renders a status, colored only
// when w is a terminal.
func statusPainter(w io.Writer) func(types.Status) string {
	if !isTerminal(w) {
		return func(s types.Status) string { return string(s) }
	}
	return func(s types.Status) string {
		c, ok := statusColors[s]
		if !ok {
			return string(s)
		}
		c.EnableColor()
		return c.Sprint(string(s))
	}
}
