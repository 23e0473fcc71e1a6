package template

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/annoskema"
	"github.com/reoring/annoskema/docjson"
	"github.com/reoring/annoskema/docpath"
)

type fileDecl struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Version     string     `json:"version" yaml:"version"`
	Types       []typeDecl `json:"types" yaml:"types"`
}

type typeDecl struct {
	Name        string      `json:"name" yaml:"name"`
	Root        bool        `json:"root" yaml:"root"`
	Description string      `json:"description" yaml:"description"`
	Fields      []fieldDecl `json:"fields" yaml:"fields"`
}

type fieldDecl struct {
	Name        string      `json:"name" yaml:"name"`
	Type        string      `json:"type" yaml:"type"`
	Ref         string      `json:"ref" yaml:"ref"`
	Fields      []fieldDecl `json:"fields" yaml:"fields"`
	Items       *fieldDecl  `json:"items" yaml:"items"`
	Values      []any       `json:"values" yaml:"values"`
	Required    bool        `json:"required" yaml:"required"`
	Annotation  bool        `json:"annotation" yaml:"annotation"`
	Description string      `json:"description" yaml:"description"`
	MinLength   *int        `json:"min_length" yaml:"min_length"`
	MaxLength   *int        `json:"max_length" yaml:"max_length"`
	Min         *float64    `json:"min" yaml:"min"`
	Max         *float64    `json:"max" yaml:"max"`
	Pattern     string      `json:"pattern" yaml:"pattern"`
	MinItems    *int        `json:"min_items" yaml:"min_items"`
	MaxItems    *int        `json:"max_items" yaml:"max_items"`
}

// Parse decodes a template and builds its schema. Decoding failures are
// reported as a malformed *LoadError; structural defects as a single
// *annoskema.SchemaError listing every problem. The returned Diag is never nil.
func Parse(id string, data []byte, format Format) (*annoskema.Schema, Diag, error) {
	if format == FormatAuto {
		format = sniff(data)
	}
	var f fileDecl
	var err error
	if format == FormatJSON {
		err = decodeJSON(data, &f)
	} else {
		err = decodeYAML(data, &f)
	}
	if err != nil {
		return nil, &simpleDiag{}, malformed(id, err)
	}
	return build(id, &f)
}

func sniff(data []byte) Format {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

func decodeJSON(data []byte, f *fileDecl) error {
	if err := docjson.DetectDuplicateKeys(data); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(f); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("template is empty")
		}
		return err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return docjson.ErrTrailingData
	}
	return nil
}

func decodeYAML(data []byte, f *fileDecl) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("template is empty")
		}
		return err
	}
	return nil
}

type builder struct {
	types map[string]*typeDecl
	used  map[string]bool
	stack []string
	se    *annoskema.SchemaError
	diag  *simpleDiag
}

func build(id string, f *fileDecl) (*annoskema.Schema, Diag, error) {
	b := &builder{
		types: make(map[string]*typeDecl, len(f.Types)),
		used:  make(map[string]bool),
		se:    &annoskema.SchemaError{Template: id},
		diag:  &simpleDiag{},
	}
	rt := b.index(f.Types)
	if rt == nil {
		return nil, b.diag, b.se
	}
	root := &annoskema.FieldNode{Kind: annoskema.KindObject, Description: rt.Description}
	root.Children = b.object(rt, "")

	for _, t := range f.Types {
		if t.Name != "" && t.Name != rt.Name && !b.used[t.Name] {
			b.diag.warnf("type %q is never referenced", t.Name)
		}
	}

	s, err := annoskema.NewSchema(id, root)
	if err != nil {
		var se *annoskema.SchemaError
		if !errors.As(err, &se) {
			return nil, b.diag, err
		}
		b.se.Problems = append(b.se.Problems, se.Problems...)
	}
	if err := b.se.Err(); err != nil {
		return nil, b.diag, err
	}
	s.Name = f.Name
	if s.Name == "" {
		s.Name = rt.Name
	}
	s.Description = f.Description
	if s.Description == "" {
		s.Description = rt.Description
	}
	if len(s.Descriptors()) == 0 {
		b.diag.warnf("template declares no annotation fields")
	}
	return s, b.diag, nil
}

// index registers the declared types and returns the root type.
func (b *builder) index(types []typeDecl) *typeDecl {
	if len(types) == 0 {
		b.se.Problemf("", "template declares no types")
		return nil
	}
	var roots []*typeDecl
	for i := range types {
		t := &types[i]
		switch {
		case t.Name == "":
			b.se.Problemf("", "type #%d has no name", i+1)
		case b.types[t.Name] != nil:
			b.se.Problemf("", "duplicate type %q", t.Name)
		default:
			b.types[t.Name] = t
		}
		if t.Root {
			roots = append(roots, t)
		}
	}
	switch {
	case len(roots) == 1:
		return roots[0]
	case len(roots) == 0 && len(types) == 1:
		return &types[0]
	case len(roots) == 0:
		b.se.Problemf("", "no root type: mark exactly one of %d types with root: true", len(types))
	default:
		b.se.Problemf("", "%d types are marked root; exactly one is allowed", len(roots))
	}
	return nil
}

func (b *builder) object(t *typeDecl, path string) []*annoskema.FieldNode {
	b.stack = append(b.stack, t.Name)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()
	return b.fields(t.Fields, path)
}

func (b *builder) fields(decls []fieldDecl, path string) []*annoskema.FieldNode {
	out := make([]*annoskema.FieldNode, 0, len(decls))
	for i := range decls {
		if n := b.field(&decls[i], docpath.Join(path, decls[i].Name)); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// field converts one declaration. Declarations with structural problems are
// reported and dropped so that NewSchema does not report them a second time.
func (b *builder) field(fd *fieldDecl, path string) *annoskema.FieldNode {
	n := &annoskema.FieldNode{
		Name:        fd.Name,
		Required:    fd.Required,
		Annotation:  fd.Annotation,
		Description: fd.Description,
		Constraints: annoskema.ConstraintSet{
			MinLength:  fd.MinLength,
			MaxLength:  fd.MaxLength,
			Min:        fd.Min,
			Max:        fd.Max,
			Pattern:    fd.Pattern,
			EnumValues: fd.Values,
			MinItems:   fd.MinItems,
			MaxItems:   fd.MaxItems,
		},
	}
	tag := fd.Type
	if tag == "" && (fd.Ref != "" || len(fd.Fields) > 0) {
		tag = "object"
	}
	ok := true
	if tag != "object" && fd.Ref != "" {
		b.se.Problemf(path, "ref applies to object fields only")
		ok = false
	}
	if tag != "object" && len(fd.Fields) > 0 {
		b.se.Problemf(path, "fields apply to object fields only")
		ok = false
	}
	if tag != "list" && fd.Items != nil {
		b.se.Problemf(path, "items apply to list fields only")
		ok = false
	}

	switch tag {
	case "string", "integer", "number", "boolean":
		n.Kind = annoskema.KindScalar
		n.Type = annoskema.ScalarType(tag)
	case "enum":
		n.Kind = annoskema.KindEnum
	case "object":
		n.Kind = annoskema.KindObject
		children, good := b.objectFields(fd, n, path)
		n.Children = children
		ok = ok && good
	case "list":
		n.Kind = annoskema.KindList
		if fd.Items != nil {
			n.Items = b.field(fd.Items, docpath.Elem(path))
			ok = ok && n.Items != nil
		}
	case "":
		b.se.Problemf(path, "field has no type")
		return nil
	default:
		b.se.Problemf(path, "unknown type %q", tag)
		return nil
	}
	if !ok {
		return nil
	}
	return n
}

func (b *builder) objectFields(fd *fieldDecl, n *annoskema.FieldNode, path string) ([]*annoskema.FieldNode, bool) {
	if fd.Ref == "" {
		return b.fields(fd.Fields, path), true
	}
	if len(fd.Fields) > 0 {
		b.se.Problemf(path, "declare either ref or fields, not both")
		return nil, false
	}
	t, ok := b.types[fd.Ref]
	if !ok {
		b.se.Problemf(path, "unknown type %q", fd.Ref)
		return nil, false
	}
	b.used[fd.Ref] = true
	if slices.Contains(b.stack, fd.Ref) {
		b.se.Problemf(path, "recursive reference to type %q", fd.Ref)
		return nil, false
	}
	if n.Description == "" {
		n.Description = t.Description
	}
	return b.object(t, path), true
}

// Problems renders the problems of a SchemaError one per line.
func Problems(err error) []string {
	var se *annoskema.SchemaError
	if !errors.As(err, &se) {
		return nil
	}
	out := make([]string, 0, len(se.Problems))
	for _, p := range se.Problems {
		if p.Path == "" {
			out = append(out, p.Message)
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", p.Path, p.Message))
	}
	return out
}
