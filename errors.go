package annoskema

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic codes.
const (
	CodeRequired     = "required"
	CodeInvalidType  = "invalid_type"
	CodeTooShort     = "too_short"
	CodeTooLong      = "too_long"
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodePattern      = "pattern"
	CodeInvalidEnum  = "invalid_enum"
	CodeTooFewItems  = "too_few_items"
	CodeTooManyItems = "too_many_items"
	CodeUnknownKey   = "unknown_key"
	// Template problems reported through SchemaError.
	CodeInvalidSchema = "invalid_schema"
)

// FieldError is a single diagnostic on a single field path.
type FieldError struct {
	Path    string         `json:"path"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// FieldErrors is a collection of diagnostics that implements error.
type FieldErrors []FieldError

// Error summarizes the first few entries.
func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(fe)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := fe[i]
		if it.Path == "" {
			fmt.Fprintf(b, "%s: %s", it.Code, it.Message)
			continue
		}
		fmt.Fprintf(b, "%s at %s: %s", it.Code, it.Path, it.Message)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsFieldErrors extracts FieldErrors from an error using errors.As.
func AsFieldErrors(err error) (FieldErrors, bool) {
	if err == nil {
		return nil, false
	}
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// SchemaError reports a template that parsed but does not describe a usable
// schema. Problems lists every defect found, each at the node path involved.
type SchemaError struct {
	Template string
	Problems FieldErrors
}

func (e *SchemaError) Error() string {
	if e.Template == "" {
		return "annoskema: invalid schema: " + e.Problems.Error()
	}
	return fmt.Sprintf("annoskema: template %q: invalid schema: %s", e.Template, e.Problems.Error())
}

// Unwrap exposes the problems to errors.As.
func (e *SchemaError) Unwrap() error { return e.Problems }

// Problemf appends a template problem at path.
func (e *SchemaError) Problemf(path, format string, a ...any) {
	e.Problems = append(e.Problems, FieldError{Path: path, Code: CodeInvalidSchema, Message: fmt.Sprintf(format, a...)})
}

// Err returns e when it holds problems and nil otherwise.
func (e *SchemaError) Err() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}
