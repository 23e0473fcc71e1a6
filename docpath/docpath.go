// Package docpath reads and writes values inside untyped documents
// (map[string]any / []any / scalars) addressed by annotation paths.
//
// A path is a sequence of '.'-separated keys. The token "[]" after a key
// marks that the key holds a sequence and that resolution continues inside
// one of its elements:
//
//	title
//	analysis.topic
//	content_sections[].subsections[].analysis.topic
//
// Sequence descent always selects the element at index 0.
package docpath

import (
	"errors"
	"strings"
)

// Marker is the sequence-descent token.
const Marker = "[]"

// ErrNotFound reports that a path could not be traversed: an intermediate key
// is absent, a non-map value sits where a key is expected, or a sequence is
// missing or empty where "[]" expects one.
var ErrNotFound = errors.New("docpath: path not found")

// Path is a parsed path. Prefix holds the plain keys before the first "[]".
// When Descend is true the prefix addresses a sequence and Rest is resolved
// against its first element (Rest may be empty, selecting the element itself).
type Path struct {
	Prefix  []string
	Descend bool
	Rest    string
}

// Parse splits p at its first "[]". Empty paths and empty key segments are
// rejected with ErrNotFound.
func Parse(p string) (Path, error) {
	if p == "" {
		return Path{}, ErrNotFound
	}
	prefix, rest, descend := strings.Cut(p, Marker)
	var keys []string
	if prefix != "" {
		keys = strings.Split(prefix, ".")
		for _, k := range keys {
			if k == "" {
				return Path{}, ErrNotFound
			}
		}
	} else if !descend {
		return Path{}, ErrNotFound
	}
	if descend && rest != "" {
		if !strings.HasPrefix(rest, ".") || len(rest) == 1 {
			return Path{}, ErrNotFound
		}
		rest = rest[1:]
	}
	return Path{Prefix: keys, Descend: descend, Rest: rest}, nil
}

// Get resolves path against doc. The boolean is false when the path cannot be
// reached; Get never panics on malformed documents.
func Get(doc any, path string) (any, bool) {
	p, err := Parse(path)
	if err != nil {
		return nil, false
	}
	cur := doc
	for _, k := range p.Prefix {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	if !p.Descend {
		return cur, true
	}
	seq, ok := cur.([]any)
	if !ok || len(seq) == 0 {
		return nil, false
	}
	if p.Rest == "" {
		return seq[0], true
	}
	return Get(seq[0], p.Rest)
}

// Has reports whether path resolves in doc.
func Has(doc any, path string) bool {
	_, ok := Get(doc, path)
	return ok
}

// Set returns a copy of doc with value written at path. Containers along the
// path are shallow-copied; everything else is shared with doc, which is left
// untouched. Missing intermediate object keys are created. A missing or empty
// sequence where "[]" expects one yields ErrNotFound.
func Set(doc any, path string, value any) (any, error) {
	p, err := Parse(path)
	if err != nil {
		return nil, err
	}
	return set(doc, p, value)
}

func set(doc any, p Path, value any) (any, error) {
	if len(p.Prefix) == 0 {
		// Only reachable for paths that start with "[]".
		return setElement(doc, p, value)
	}
	root, err := copyMap(doc)
	if err != nil {
		return nil, err
	}
	m := root
	last := len(p.Prefix) - 1
	for i, k := range p.Prefix {
		if i == last {
			break
		}
		child, err := copyMap(m[k])
		if err != nil {
			return nil, err
		}
		m[k] = child
		m = child
	}
	key := p.Prefix[last]
	if !p.Descend {
		m[key] = value
		return root, nil
	}
	cur, ok := m[key]
	if !ok {
		return nil, ErrNotFound
	}
	elem, err := setElement(cur, p, value)
	if err != nil {
		return nil, err
	}
	m[key] = elem
	return root, nil
}

// setElement rewrites element 0 of the sequence seq according to p.Rest.
func setElement(seq any, p Path, value any) (any, error) {
	s, ok := seq.([]any)
	if !ok || len(s) == 0 {
		return nil, ErrNotFound
	}
	out := make([]any, len(s))
	copy(out, s)
	if p.Rest == "" {
		out[0] = value
		return out, nil
	}
	rest, err := Parse(p.Rest)
	if err != nil {
		return nil, err
	}
	v, err := set(s[0], rest, value)
	if err != nil {
		return nil, err
	}
	out[0] = v
	return out, nil
}

// copyMap shallow-copies v when it is an object. A nil or absent value becomes
// a fresh object; any other value cannot hold keys.
func copyMap(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		out := make(map[string]any, len(t)+1)
		for k, vv := range t {
			out[k] = vv
		}
		return out, nil
	default:
		return nil, ErrNotFound
	}
}

// Join appends key to base with '.'.
func Join(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

// Elem marks base as a sequence whose elements are addressed next.
func Elem(base string) string { return base + Marker }
