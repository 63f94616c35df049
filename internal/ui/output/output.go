// Package output decides how rig colours the text it writes.
package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Mode selects the colour policy of a stream.
type Mode int

const (
	// Interactive follows whatever the terminal advertises. Used for
	// command results such as tables.
	Interactive Mode = iota
	// Log forces basic ANSI so run logs stay readable when piped into CI.
	Log
)

// Profile returns the termenv profile for m. A non-empty NO_COLOR always
// selects Ascii.
func Profile(m Mode) termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	if m == Log {
		return termenv.ANSI
	}
	return termenv.EnvColorProfile()
}

// Painter styles strings for a single writer.
type Painter struct {
	out *termenv.Output
}

// NewPainter creates a Painter writing to w. A nil w writes to os.Stderr.
func NewPainter(w io.Writer, m Mode) *Painter {
	if w == nil {
		w = os.Stderr
	}
	return &Painter{
		out: termenv.NewOutput(w, termenv.WithProfile(Profile(m)), termenv.WithTTY(true)),
	}
}

// Paint renders s in color.
func (p *Painter) Paint(s string, color lipgloss.Color) string {
	return p.out.String(s).Foreground(p.out.Color(string(color))).String()
}

// Faint renders s dimmed.
func (p *Painter) Faint(s string) string {
	return p.out.String(s).Faint().String()
}

// WriteLine writes s followed by a newline.
func (p *Painter) WriteLine(s string) error {
	_, err := p.out.WriteString(s + "\n")
	return err
}

// Renderer returns a lipgloss renderer for w that follows m.
func Renderer(w io.Writer, m Mode) *lipgloss.Renderer {
	return lipgloss.NewRenderer(w, termenv.WithProfile(Profile(m)))
}
