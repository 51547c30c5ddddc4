package models

import (
	"strings"

	"github.com/ideaspaper/rq/internal/constants"
)

// Source is a value given either inline or as a reference to a file.
// It is exactly one of Literal or FileRef.
type Source interface {
	source()
	String() string
}

// Literal is an inline value used as given.
type Literal struct {
	Value string
}

func (Literal) source() {}

// String returns the literal value.
func (l Literal) String() string { return l.Value }

// FileRef names a file whose contents supply the value.
type FileRef struct {
	Path string
}

func (FileRef) source() {}

// String returns the reference in its flag form.
func (f FileRef) String() string { return constants.FileRefPrefix + f.Path }

// ParseSource interprets a flag value: a leading "@" marks a file reference,
// anything else is a literal.
func ParseSource(s string) Source {
	if path, ok := strings.CutPrefix(s, constants.FileRefPrefix); ok {
		return FileRef{Path: path}
	}
	return Literal{Value: s}
}

// ParseSources parses each value with ParseSource, preserving order.
func ParseSources(values []string) []Source {
	if len(values) == 0 {
		return nil
	}
	sources := make([]Source, len(values))
	for i, v := range values {
		sources[i] = ParseSource(v)
	}
	return sources
}
