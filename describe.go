package annoskema

import "github.com/reoring/annoskema/docpath"

// Descriptor is the UI-facing summary of an annotation field.
type Descriptor struct {
	Path        string        `json:"path"`
	Kind        Kind          `json:"kind"`
	Type        ScalarType    `json:"type,omitempty"`
	Required    bool          `json:"required"`
	Description string        `json:"description,omitempty"`
	Constraints ConstraintSet `json:"constraints"`
	// Items describes list elements.
	Items *Descriptor `json:"items,omitempty"`
}

// Describe walks the schema in declaration order and returns one Descriptor
// per annotation node. Paths are rebuilt from the keys seen on the way down,
// with "[]" marking descent into list elements.
func Describe(s *Schema) []Descriptor {
	if s == nil || s.Root == nil {
		return nil
	}
	var out []Descriptor
	for _, c := range s.Root.Children {
		out = describeNode(out, c, c.Name)
	}
	return out
}

func describeNode(out []Descriptor, n *FieldNode, path string) []Descriptor {
	if n.Annotation {
		out = append(out, describeOne(n, path))
	}
	switch n.Kind {
	case KindObject:
		for _, c := range n.Children {
			out = describeNode(out, c, docpath.Join(path, c.Name))
		}
	case KindList:
		if n.Items != nil {
			out = describeNode(out, n.Items, docpath.Elem(path))
		}
	}
	return out
}

func describeOne(n *FieldNode, path string) Descriptor {
	d := Descriptor{
		Path:        path,
		Kind:        n.Kind,
		Type:        n.Type,
		Required:    n.Required,
		Description: n.Description,
		Constraints: n.Constraints.clone(),
	}
	if n.Kind == KindList && n.Items != nil {
		it := describeOne(n.Items, docpath.Elem(path))
		d.Items = &it
	}
	return d
}

func (d Descriptor) clone() Descriptor {
	d.Constraints = d.Constraints.clone()
	if d.Items != nil {
		it := d.Items.clone()
		d.Items = &it
	}
	return d
}
