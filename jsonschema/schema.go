package jsonschema

// Schema is a minimal JSON Schema (draft 2020-12 subset) representation used
// for exporting templates to form builders.
type Schema struct {
	// Core
	Schema      string `json:"$schema,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Enum        []any  `json:"enum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	// PropertyOrder keeps declaration order, which JSON objects do not carry.
	PropertyOrder []string `json:"x-property-order,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`

	// Annotation marks fields an annotator is expected to supply.
	Annotation bool `json:"x-annotation,omitempty"`
}

// Draft is the $schema URI emitted at the document root.
const Draft = "https://json-schema.org/draft/2020-12/schema"
