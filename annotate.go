package annoskema

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/reoring/annoskema/docpath"
)

// AnnotationValue is the current value of one annotation field.
type AnnotationValue struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
	Found bool   `json:"found"`
}

// Annotations lists annotation values in descriptor order.
type Annotations []AnnotationValue

// Extract reads the current value of every annotation field from doc.
// Unreachable paths yield a nil value with Found=false; they never abort the
// extraction of the remaining fields.
func (s *Schema) Extract(doc any) Annotations {
	out := make(Annotations, 0, len(s.descriptors))
	for _, d := range s.descriptors {
		v, ok := docpath.Get(doc, d.Path)
		out = append(out, AnnotationValue{Path: d.Path, Value: v, Found: ok})
	}
	return out
}

// Apply writes value at path and returns the updated document. doc itself is
// never modified; unchanged subtrees are shared with the result. Whether the
// value satisfies the schema is the caller's concern (see Schema.CheckValue).
func Apply(doc any, path string, value any) (any, error) {
	return docpath.Set(doc, path, value)
}

// Get returns the value extracted for path.
func (a Annotations) Get(path string) (any, bool) {
	for _, av := range a {
		if av.Path == path {
			return av.Value, av.Found
		}
	}
	return nil, false
}

// Map returns path -> value, with nil for unreachable paths.
func (a Annotations) Map() map[string]any {
	m := make(map[string]any, len(a))
	for _, av := range a {
		m[av.Path] = av.Value
	}
	return m
}

// MarshalJSON renders the annotations as a single JSON object whose keys keep
// descriptor order.
func (a Annotations) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, av := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(av.Path)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(av.Value)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
