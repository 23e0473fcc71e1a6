package annoskema

import (
	"strconv"
	"strings"
)

// pathRef builds index-qualified document paths (content_sections.0.title)
// in a chain-safe way: every step returns a new value.
type pathRef struct {
	parts []string
}

func rootRef() pathRef { return pathRef{} }

// refAt starts a path at an already rendered location.
func refAt(p string) pathRef {
	if p == "" {
		return rootRef()
	}
	return pathRef{parts: []string{p}}
}

func (p pathRef) Field(name string) pathRef {
	return pathRef{parts: append(append(make([]string, 0, len(p.parts)+1), p.parts...), name)}
}

func (p pathRef) Index(i int) pathRef {
	return p.Field(strconv.Itoa(i))
}

func (p pathRef) String() string { return strings.Join(p.parts, ".") }

// label names the location in human messages.
func (p pathRef) label() string {
	if len(p.parts) == 0 {
		return "document"
	}
	return p.String()
}
