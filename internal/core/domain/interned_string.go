package domain

import (
	"strings"
	"unique"
)

// InternedString is a canonicalised target name. Two InternedStrings made
// from equal text are ==, which lets them key maps without hashing text.
// The zero value stands for "no name".
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString interns s.
func NewInternedString(s string) InternedString {
	return InternedString{h: unique.Make(s)}
}

// InternStrings interns every element of strs. Order and duplicates are kept.
func InternStrings(strs []string) []InternedString {
	if len(strs) == 0 {
		return nil
	}
	out := make([]InternedString, len(strs))
	for i, s := range strs {
		out[i] = NewInternedString(s)
	}
	return out
}

// Strings is the inverse of InternStrings.
func Strings(names []InternedString) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out
}

// IsZero reports whether is was never assigned or holds the empty string.
func (is InternedString) IsZero() bool {
	return is == (InternedString{}) || is.h.Value() == ""
}

// Compare orders names lexically, like strings.Compare.
func (is InternedString) Compare(other InternedString) int {
	return strings.Compare(is.String(), other.String())
}

// String returns the text.
func (is InternedString) String() string {
	if is == (InternedString{}) {
		return ""
	}
	return is.h.Value()
}

// Value exposes the handle.
func (is InternedString) Value() unique.Handle[string] {
	return is.h
}

// MarshalText implements encoding.TextMarshaler.
func (is InternedString) MarshalText() ([]byte, error) {
	return []byte(is.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (is *InternedString) UnmarshalText(text []byte) error {
	*is = NewInternedString(string(text))
	return nil
}
