package annoskema

import (
	"fmt"
	"regexp"
)

// Kind tags a FieldNode variant.
type Kind int

const (
	KindScalar Kind = iota // string, integer, number or boolean value.
	KindEnum               // one of a fixed set of scalar values.
	KindObject             // keyed children.
	KindList               // ordered elements described by Items.
)

var kindNames = [...]string{"scalar", "enum", "object", "list"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if n == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("annoskema: unknown kind %q", string(b))
}

// ScalarType narrows KindScalar nodes.
type ScalarType string

const (
	TypeString  ScalarType = "string"
	TypeInteger ScalarType = "integer"
	TypeNumber  ScalarType = "number"
	TypeBoolean ScalarType = "boolean"
)

// Valid reports whether t is one of the known scalar types.
func (t ScalarType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

// ConstraintSet holds the optional checks attached to a node. Which members
// are meaningful depends on the node kind; NewSchema rejects mismatches.
type ConstraintSet struct {
	MinLength  *int     `json:"min_length,omitempty"`
	MaxLength  *int     `json:"max_length,omitempty"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
	Pattern    string   `json:"pattern,omitempty"`
	EnumValues []any    `json:"enum_values,omitempty"`
	MinItems   *int     `json:"min_items,omitempty"`
	MaxItems   *int     `json:"max_items,omitempty"`

	re *regexp.Regexp
}

// IsZero reports whether no constraint is declared.
func (c ConstraintSet) IsZero() bool {
	return c.MinLength == nil && c.MaxLength == nil && c.Min == nil && c.Max == nil &&
		c.Pattern == "" && len(c.EnumValues) == 0 && c.MinItems == nil && c.MaxItems == nil
}

func (c ConstraintSet) clone() ConstraintSet {
	c.MinLength = clonePtr(c.MinLength)
	c.MaxLength = clonePtr(c.MaxLength)
	c.Min = clonePtr(c.Min)
	c.Max = clonePtr(c.Max)
	c.MinItems = clonePtr(c.MinItems)
	c.MaxItems = clonePtr(c.MaxItems)
	if c.EnumValues != nil {
		c.EnumValues = append([]any(nil), c.EnumValues...)
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// FieldNode is one node of a template tree.
//
// Object nodes carry Children in declaration order; List nodes carry the
// element description in Items (whose Path ends in "[]"). Path is assigned by
// NewSchema.
type FieldNode struct {
	Name        string
	Path        string
	Kind        Kind
	Type        ScalarType
	Required    bool
	Annotation  bool
	Description string
	Constraints ConstraintSet
	Children    []*FieldNode
	Items       *FieldNode
}

// IsLeaf reports whether the node holds a single scalar value.
func (n *FieldNode) IsLeaf() bool { return n.Kind == KindScalar || n.Kind == KindEnum }

// UnknownPolicy controls how keys not declared by the template are treated.
type UnknownPolicy int

const (
	UnknownIgnore UnknownPolicy = iota // Accept undeclared keys silently.
	UnknownReject                      // Report each undeclared key.
)

// ValidateOpt bundles validation options.
type ValidateOpt struct {
	Unknown UnknownPolicy
}

func pickOpt(opts []ValidateOpt) ValidateOpt {
	if len(opts) > 0 {
		return opts[0]
	}
	return ValidateOpt{}
}
