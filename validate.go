package annoskema

import (
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/reoring/annoskema/i18n"
)

// ValidationResult is the outcome of a full validation.
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Errors FieldErrors `json:"errors"`
}

// FieldResult is the outcome for one field present in a fragment.
type FieldResult struct {
	Valid  bool        `json:"valid"`
	Errors FieldErrors `json:"errors"`
}

// PartialValidationResult is the outcome of a partial validation.
type PartialValidationResult struct {
	Valid        bool                    `json:"valid"`
	FieldResults map[string]*FieldResult `json:"field_results"`
}

// Validate checks every node of the schema against doc. Array elements are
// checked individually and reported with index-qualified paths
// (content_sections.0.subsections.1.analysis.topic). All violations are
// collected; the result is valid only when none were found.
//
// A nil document is treated as an empty object.
func (s *Schema) Validate(doc any, opts ...ValidateOpt) ValidationResult {
	w := &walker{opt: pickOpt(opts)}
	w.root(s.Root, doc)
	return ValidationResult{Valid: len(w.errs) == 0, Errors: w.nonNil()}
}

// ValidatePartial checks a fragment of a document. Fields absent from the
// fragment are never reported; fields that are present are checked against
// their type and constraints whether or not they are required. One entry is
// produced per present leaf field, plus one per present container that has
// diagnostics of its own (wrong type, item counts).
func (s *Schema) ValidatePartial(fragment any, opts ...ValidateOpt) PartialValidationResult {
	w := &walker{opt: pickOpt(opts), partial: true, fields: make(map[string]*FieldResult)}
	w.root(s.Root, fragment)
	valid := true
	for _, fr := range w.fields {
		if !fr.Valid {
			valid = false
			break
		}
	}
	return PartialValidationResult{Valid: valid, FieldResults: w.fields}
}

// CheckValue validates a single value against the node declared at path (a
// template path such as "content_sections[].title"). Diagnostics are reported
// at path. An undeclared path yields a single unknown_key diagnostic.
func (s *Schema) CheckValue(path string, value any) FieldErrors {
	w := &walker{}
	at := refAt(path)
	n, ok := s.index[path]
	if !ok {
		w.add(at, CodeUnknownKey, nil)
		return w.errs
	}
	w.visit(n, value, true, at)
	return w.errs
}

// walker accumulates diagnostics. In partial mode every diagnostic is also
// filed under its field path.
type walker struct {
	opt     ValidateOpt
	partial bool
	errs    FieldErrors
	fields  map[string]*FieldResult
}

func (w *walker) nonNil() FieldErrors {
	if w.errs == nil {
		return FieldErrors{}
	}
	return w.errs
}

func (w *walker) root(n *FieldNode, doc any) {
	if doc == nil {
		doc = map[string]any{}
	}
	w.visit(n, doc, true, rootRef())
}

// touch records that a field was present in a partial fragment.
func (w *walker) touch(at pathRef) *FieldResult {
	if !w.partial {
		return nil
	}
	key := at.String()
	fr, ok := w.fields[key]
	if !ok {
		fr = &FieldResult{Valid: true, Errors: FieldErrors{}}
		w.fields[key] = fr
	}
	return fr
}

func (w *walker) add(at pathRef, code string, params map[string]any) {
	data := map[string]string{"field": at.label()}
	for k, v := range params {
		switch t := v.(type) {
		case string:
			data[k] = t
		case int:
			data[k] = strconv.Itoa(t)
		case float64:
			data[k] = formatNumber(t)
		case []any:
			data[k] = formatValues(t)
		}
	}
	fe := FieldError{Path: at.String(), Code: code, Message: i18n.T(code, data), Params: params}
	w.errs = append(w.errs, fe)
	if fr := w.touch(at); fr != nil {
		fr.Valid = false
		fr.Errors = append(fr.Errors, fe)
	}
}

func (w *walker) visit(n *FieldNode, v any, present bool, at pathRef) {
	if !present {
		if n.Required && !w.partial {
			w.add(at, CodeRequired, nil)
		}
		return
	}
	if v == nil {
		switch {
		case n.Required:
			w.add(at, CodeRequired, nil)
		case n.IsLeaf():
			w.touch(at)
		}
		return
	}
	switch n.Kind {
	case KindObject:
		w.visitObject(n, v, at)
	case KindList:
		w.visitList(n, v, at)
	case KindEnum:
		w.touch(at)
		w.checkEnum(n, v, at)
	case KindScalar:
		w.touch(at)
		w.checkScalar(n, v, at)
	}
}

func (w *walker) visitObject(n *FieldNode, v any, at pathRef) {
	m, ok := v.(map[string]any)
	if !ok {
		w.add(at, CodeInvalidType, map[string]any{"expected": "object", "got": typeName(v)})
		return
	}
	for _, c := range n.Children {
		cv, present := m[c.Name]
		w.visit(c, cv, present, at.Field(c.Name))
	}
	if w.opt.Unknown != UnknownReject {
		return
	}
	declared := make(map[string]struct{}, len(n.Children))
	for _, c := range n.Children {
		declared[c.Name] = struct{}{}
	}
	var unknown []string
	for k := range m {
		if _, ok := declared[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		w.add(at.Field(k), CodeUnknownKey, nil)
	}
}

func (w *walker) visitList(n *FieldNode, v any, at pathRef) {
	seq, ok := v.([]any)
	if !ok {
		w.add(at, CodeInvalidType, map[string]any{"expected": "list", "got": typeName(v)})
		return
	}
	c := n.Constraints
	if c.MinItems != nil && len(seq) < *c.MinItems {
		w.add(at, CodeTooFewItems, map[string]any{"min": *c.MinItems, "got": len(seq)})
	}
	if c.MaxItems != nil && len(seq) > *c.MaxItems {
		w.add(at, CodeTooManyItems, map[string]any{"max": *c.MaxItems, "got": len(seq)})
	}
	for i, e := range seq {
		w.visit(n.Items, e, true, at.Index(i))
	}
}

func (w *walker) checkEnum(n *FieldNode, v any, at pathRef) {
	for _, ev := range n.Constraints.EnumValues {
		if scalarEqual(ev, v) {
			return
		}
	}
	w.add(at, CodeInvalidEnum, map[string]any{"values": n.Constraints.EnumValues})
}

func (w *walker) checkScalar(n *FieldNode, v any, at pathRef) {
	c := n.Constraints
	switch n.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			w.typeMismatch(n, v, at)
			return
		}
		l := utf8.RuneCountInString(s)
		if c.MinLength != nil && l < *c.MinLength {
			w.add(at, CodeTooShort, map[string]any{"min": *c.MinLength, "got": l})
		}
		if c.MaxLength != nil && l > *c.MaxLength {
			w.add(at, CodeTooLong, map[string]any{"max": *c.MaxLength, "got": l})
		}
		if c.re != nil && !c.re.MatchString(s) {
			w.add(at, CodePattern, map[string]any{"pattern": c.Pattern})
		}
	case TypeInteger, TypeNumber:
		f, ok := asFloat(v)
		if !ok || (n.Type == TypeInteger && !isIntegral(v)) {
			w.typeMismatch(n, v, at)
			return
		}
		if c.Min != nil && f < *c.Min {
			w.add(at, CodeTooSmall, map[string]any{"min": *c.Min, "got": f})
		}
		if c.Max != nil && f > *c.Max {
			w.add(at, CodeTooBig, map[string]any{"max": *c.Max, "got": f})
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			w.typeMismatch(n, v, at)
		}
	}
}

func (w *walker) typeMismatch(n *FieldNode, v any, at pathRef) {
	w.add(at, CodeInvalidType, map[string]any{"expected": string(n.Type), "got": typeName(v)})
}
