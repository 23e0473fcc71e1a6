package annoskema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// jsonNumber matches json.Number from encoding/json and the go-json decoder
// without depending on either concrete type.
type jsonNumber interface {
	Float64() (float64, error)
	Int64() (int64, error)
	String() string
}

// asFloat converts any Go numeric value to float64. Booleans and strings are
// not numbers.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		f := float64(t)
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case jsonNumber:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

// isIntegral reports whether v is a number without a fractional part.
func isIntegral(v any) bool {
	switch t := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case jsonNumber:
		if _, err := t.Int64(); err == nil {
			return true
		}
	}
	f, ok := asFloat(v)
	return ok && f == math.Trunc(f)
}

func isScalarValue(v any) bool {
	switch v.(type) {
	case string, bool:
		return true
	}
	_, ok := asFloat(v)
	return ok
}

// scalarEqual compares two scalar values; numbers compare by value regardless
// of their Go type.
func scalarEqual(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	switch ta := a.(type) {
	case string:
		tb, ok := b.(string)
		return ok && ta == tb
	case bool:
		tb, ok := b.(bool)
		return ok && ta == tb
	}
	return false
}

// typeName renders the JSON type of v for diagnostics.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	}
	if _, ok := asFloat(v); ok {
		if isIntegral(v) {
			return "integer"
		}
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func formatNumber(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func formatValues(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		if f, ok := asFloat(v); ok {
			parts[i] = formatNumber(f)
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
