// Package style holds the colours and icons shared by the CLI output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/rig/internal/core/domain"
)

// Palette.
var (
	Accent = lipgloss.Color("#0EA5E9")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Skip    = "~"
	Dot     = "●"
	Circle  = "○"
	Arrow   = "→"
)

// Status returns the icon and colour used to show a target status.
func Status(s domain.TargetStatus) (string, lipgloss.Color) {
	switch s {
	case domain.StatusSucceeded:
		return Check, Green
	case domain.StatusFailed:
		return Cross, Red
	case domain.StatusSkipped:
		return Skip, Yellow
	case domain.StatusRunning:
		return Dot, Accent
	default:
		return Circle, Slate
	}
}
