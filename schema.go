package annoskema

import (
	"regexp"
	"strings"

	"github.com/reoring/annoskema/docpath"
)

// Schema is a loaded template: the root object node, its path index and the
// annotation descriptors. A Schema is immutable once built and may be shared
// by any number of concurrent validations.
type Schema struct {
	ID          string
	Name        string
	Description string
	Root        *FieldNode

	index       map[string]*FieldNode
	descriptors []Descriptor
}

// NewSchema finalizes a node tree into a Schema. It assigns paths, compiles
// patterns and checks that every node is consistent with its kind. NewSchema
// takes ownership of root; callers must not modify the tree afterwards.
//
// All defects are collected into a single *SchemaError.
func NewSchema(id string, root *FieldNode) (*Schema, error) {
	se := &SchemaError{Template: id}
	if root == nil {
		se.Problemf("", "schema has no root type")
		return nil, se
	}
	if root.Kind != KindObject {
		se.Problemf("", "root type must be an object, got %s", root.Kind)
		return nil, se
	}
	s := &Schema{ID: id, Root: root, index: make(map[string]*FieldNode)}
	root.Path = ""
	s.finalize(root, se)
	if err := se.Err(); err != nil {
		return nil, err
	}
	s.descriptors = Describe(s)
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for tests and
// statically declared schemas.
func MustSchema(id string, root *FieldNode) *Schema {
	s, err := NewSchema(id, root)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) finalize(n *FieldNode, se *SchemaError) {
	if n.Path != "" {
		s.index[n.Path] = n
	}
	checkConstraints(n, se)
	switch n.Kind {
	case KindObject:
		if n.Items != nil {
			se.Problemf(n.Path, "object field cannot declare items")
		}
		seen := make(map[string]bool, len(n.Children))
		for i, c := range n.Children {
			if c == nil {
				se.Problemf(n.Path, "field #%d is nil", i+1)
				continue
			}
			if !validName(c.Name) {
				se.Problemf(docpath.Join(n.Path, c.Name), "invalid field name %q", c.Name)
				continue
			}
			if seen[c.Name] {
				se.Problemf(docpath.Join(n.Path, c.Name), "duplicate field %q", c.Name)
				continue
			}
			seen[c.Name] = true
			c.Path = docpath.Join(n.Path, c.Name)
			s.finalize(c, se)
		}
	case KindList:
		if len(n.Children) > 0 {
			se.Problemf(n.Path, "list field declares children; describe elements with items")
		}
		if n.Items == nil {
			se.Problemf(n.Path, "list field has no items")
			return
		}
		if n.Items.Kind == KindList {
			se.Problemf(n.Path, "lists of lists are not supported")
			return
		}
		n.Items.Path = docpath.Elem(n.Path)
		n.Items.Name = ""
		n.Items.Required = true
		s.finalize(n.Items, se)
	default:
		if len(n.Children) > 0 || n.Items != nil {
			se.Problemf(n.Path, "%s field cannot have nested fields", n.Kind)
		}
	}
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ".[]")
}

func checkConstraints(n *FieldNode, se *SchemaError) {
	c := &n.Constraints
	isString := n.Kind == KindScalar && n.Type == TypeString
	isNumeric := n.Kind == KindScalar && (n.Type == TypeInteger || n.Type == TypeNumber)

	if n.Kind == KindScalar && !n.Type.Valid() {
		se.Problemf(n.Path, "unknown scalar type %q", n.Type)
	}
	if n.Kind != KindScalar && n.Type != "" {
		se.Problemf(n.Path, "%s field cannot declare scalar type %q", n.Kind, n.Type)
	}
	if (c.MinLength != nil || c.MaxLength != nil || c.Pattern != "") && !isString {
		se.Problemf(n.Path, "min_length, max_length and pattern apply to string fields only")
	}
	if (c.Min != nil || c.Max != nil) && !isNumeric {
		se.Problemf(n.Path, "min and max apply to integer and number fields only")
	}
	if (c.MinItems != nil || c.MaxItems != nil) && n.Kind != KindList {
		se.Problemf(n.Path, "min_items and max_items apply to list fields only")
	}
	if n.Kind == KindEnum {
		if len(c.EnumValues) == 0 {
			se.Problemf(n.Path, "enum field declares no values")
		}
		for _, v := range c.EnumValues {
			if !isScalarValue(v) {
				se.Problemf(n.Path, "enum value %v is not a scalar", v)
			}
		}
	} else if len(c.EnumValues) > 0 {
		se.Problemf(n.Path, "enum_values apply to enum fields only")
	}
	if negative(c.MinLength) || negative(c.MaxLength) || negative(c.MinItems) || negative(c.MaxItems) {
		se.Problemf(n.Path, "length and item bounds must not be negative")
	}
	if c.MinLength != nil && c.MaxLength != nil && *c.MinLength > *c.MaxLength {
		se.Problemf(n.Path, "min_length %d exceeds max_length %d", *c.MinLength, *c.MaxLength)
	}
	if c.MinItems != nil && c.MaxItems != nil && *c.MinItems > *c.MaxItems {
		se.Problemf(n.Path, "min_items %d exceeds max_items %d", *c.MinItems, *c.MaxItems)
	}
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		se.Problemf(n.Path, "min %s exceeds max %s", formatNumber(*c.Min), formatNumber(*c.Max))
	}
	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			se.Problemf(n.Path, "invalid pattern %q", c.Pattern)
		} else {
			c.re = re
		}
	}
}

func negative(p *int) bool { return p != nil && *p < 0 }

// Lookup returns a copy of the node declared at a template path such as
// "content_sections[].title". Its Constraints are copied as well; nested
// Children and Items still belong to the schema and must not be modified.
func (s *Schema) Lookup(path string) (*FieldNode, bool) {
	n, ok := s.index[path]
	if !ok {
		return nil, false
	}
	cp := *n
	cp.Constraints = n.Constraints.clone()
	cp.Children = append([]*FieldNode(nil), n.Children...)
	return &cp, true
}

// Descriptors returns the annotation descriptors in declaration order. The
// result shares no memory with the schema.
func (s *Schema) Descriptors() []Descriptor {
	out := make([]Descriptor, len(s.descriptors))
	for i, d := range s.descriptors {
		out[i] = d.clone()
	}
	return out
}

// IsAnnotation reports whether path names an annotation field.
func (s *Schema) IsAnnotation(path string) bool {
	n, ok := s.index[path]
	return ok && n.Annotation
}
