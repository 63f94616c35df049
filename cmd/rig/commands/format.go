package commands

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/rig/internal/ui/output"
)

func newRenderer(w io.Writer) *lipgloss.Renderer {
	return output.Renderer(w, output.Interactive)
}

// padding returns the spaces that extend s to width cells.
func padding(s string, width int) string {
	return strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}

func widest(values []string) int {
	width := 0
	for _, v := range values {
		width = max(width, lipgloss.Width(v))
	}
	return width
}
