package annoskema

import js "github.com/reoring/annoskema/jsonschema"

// JSONSchema projects the schema into a JSON Schema representation for form
// builders and external validators.
func (s *Schema) JSONSchema() *js.Schema {
	out := nodeJSONSchema(s.Root)
	out.Schema = js.Draft
	out.Title = s.Name
	if s.Description != "" {
		out.Description = s.Description
	}
	return out
}

func nodeJSONSchema(n *FieldNode) *js.Schema {
	c := n.Constraints
	out := &js.Schema{Description: n.Description, Annotation: n.Annotation}
	switch n.Kind {
	case KindObject:
		out.Type = "object"
		out.Properties = make(map[string]*js.Schema, len(n.Children))
		for _, ch := range n.Children {
			out.Properties[ch.Name] = nodeJSONSchema(ch)
			out.PropertyOrder = append(out.PropertyOrder, ch.Name)
			if ch.Required {
				out.Required = append(out.Required, ch.Name)
			}
		}
	case KindList:
		out.Type = "array"
		out.Items = nodeJSONSchema(n.Items)
		out.MinItems = c.MinItems
		out.MaxItems = c.MaxItems
	case KindEnum:
		out.Enum = append([]any(nil), c.EnumValues...)
	case KindScalar:
		out.Type = string(n.Type)
		out.MinLength = c.MinLength
		out.MaxLength = c.MaxLength
		out.Pattern = c.Pattern
		out.Minimum = c.Min
		out.Maximum = c.Max
	}
	return out
}
