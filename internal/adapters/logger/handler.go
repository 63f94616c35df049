package logger

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/rig/internal/ui/output"
	"go.trai.ch/rig/internal/ui/style"
)

// levelStyle is how a record of a given severity is decorated.
type levelStyle struct {
	icon  string
	color lipgloss.Color
}

func styleFor(level slog.Level) levelStyle {
	switch {
	case level >= slog.LevelError:
		return levelStyle{icon: style.Cross, color: style.Red}
	case level >= slog.LevelWarn:
		return levelStyle{icon: style.Warning, color: style.Yellow}
	default:
		return levelStyle{color: style.Slate}
	}
}

// PrettyHandler is a slog.Handler writing one coloured line per record.
// Attributes follow the message in faint key=value form.
type PrettyHandler struct {
	paint *output.Painter
	mu    *sync.Mutex
	level slog.Leveler
	attrs []string
	group string
}

// NewPrettyHandler creates a PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		paint: output.NewPainter(w, output.Interactive),
		mu:    new(sync.Mutex),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	ls := styleFor(r.Level)

	msg := r.Message
	if ls.icon != "" {
		msg = ls.icon + " " + msg
	}
	line := h.paint.Paint(msg, ls.color)

	attrs := slices.Clone(h.attrs)
	r.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, h.formatAttr(attr))
		return true
	})
	if len(attrs) > 0 {
		line += " " + h.paint.Faint(strings.Join(attrs, " "))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paint.WriteLine(line)
}

// WithAttrs returns a Handler that prints attrs on every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = slices.Clip(h.attrs)
	for _, attr := range attrs {
		next.attrs = append(next.attrs, h.formatAttr(attr))
	}
	return &next
}

// WithGroup returns a Handler that qualifies later attribute keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	next.group = name
	return &next
}

func (h *PrettyHandler) formatAttr(attr slog.Attr) string {
	key := attr.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	return key + "=" + attr.Value.String()
}
