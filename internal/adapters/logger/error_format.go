package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/rig/internal/ui/style"
)

// messager matches errors that can report their own message without the
// cause chain, such as *zerr.Error.
type messager interface {
	Message() string
}

// metadataer matches errors that carry structured metadata.
type metadataer interface {
	Metadata() map[string]any
}

// ErrorEntry is one link of an error chain as shown to the operator.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the chain of err. zerr links contribute their own
// message and metadata; the first plain error ends the walk with its full
// text. Links without a message only carry metadata, which is attached to
// the next entry.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	var pending map[string]any

	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error(), Metadata: pending})
			break
		}

		var meta map[string]any
		if md, ok := current.(metadataer); ok {
			meta = md.Metadata()
		}

		if m.Message() == "" {
			if pending == nil {
				pending = make(map[string]any, len(meta))
			}
			maps.Copy(pending, meta)
			current = errors.Unwrap(current)
			continue
		}

		if pending != nil {
			maps.Copy(pending, meta)
			meta = pending
			pending = nil
		}
		entries = append(entries, ErrorEntry{Message: m.Message(), Metadata: meta})
		current = errors.Unwrap(current)
	}

	return entries
}

// formatErrorEntries renders entries as a headline followed by a
// "Caused by" list.
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")

		var head, indent string
		if i == 0 {
			head, indent = "Error: ", "       "
		} else {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			head, indent = "    "+style.Arrow+" ", "      "
		}

		lines = append(lines, head+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}

		for _, key := range slices.Sorted(maps.Keys(entry.Metadata)) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, key, entry.Metadata[key]))
		}
	}

	return strings.Join(lines, "\n")
}
