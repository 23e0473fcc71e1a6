// Package docjson decodes and encodes JSON documents for validation and
// annotation. Numbers are kept as json.Number so large integers survive a
// read-modify-write cycle unchanged.
package docjson

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ErrTrailingData reports input that continues after the first JSON value.
var ErrTrailingData = errors.New("docjson: unexpected data after top-level value")

// DuplicateKeyError reports an object key that appears twice. Path is the
// index-qualified location of the object holding the key ("" for the root).
type DuplicateKeyError struct {
	Key  string
	Path string
}

func (e *DuplicateKeyError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("docjson: duplicate key %q", e.Key)
	}
	return fmt.Sprintf("docjson: duplicate key %q in %s", e.Key, e.Path)
}

// Decode parses a single JSON value into map[string]any / []any / scalars.
func Decode(data []byte) (any, error) {
	return DecodeReader(bytes.NewReader(data))
}

// DecodeReader is like Decode but reads from r.
func DecodeReader(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("docjson: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	return v, nil
}

// DecodeStrict is like Decode but rejects duplicate object keys, which
// Decode would silently collapse to the last occurrence.
func DecodeStrict(data []byte) (any, error) {
	if err := DetectDuplicateKeys(data); err != nil {
		return nil, err
	}
	return Decode(data)
}

// Encode renders v as JSON. With indent set the output is indented by two
// spaces.
func Encode(v any, indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

type frame struct {
	object       bool
	keys         map[string]struct{}
	expectingKey bool
	key          string
	index        int
}

// DetectDuplicateKeys scans data and returns a *DuplicateKeyError for the
// first key repeated within one object. Syntax errors are returned as-is.
func DetectDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var stack []frame

	valueDone := func() {
		if n := len(stack); n > 0 {
			top := &stack[n-1]
			if top.object {
				top.expectingKey = true
			} else {
				top.index++
			}
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("docjson: %w", err)
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, frame{object: true, keys: make(map[string]struct{}), expectingKey: true})
			case '[':
				stack = append(stack, frame{})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				valueDone()
			}
		case string:
			if n := len(stack); n > 0 && stack[n-1].object && stack[n-1].expectingKey {
				top := &stack[n-1]
				if _, dup := top.keys[v]; dup {
					return &DuplicateKeyError{Key: v, Path: pathOf(stack[:n-1])}
				}
				top.keys[v] = struct{}{}
				top.key = v
				top.expectingKey = false
				continue
			}
			valueDone()
		default:
			valueDone()
		}
	}
}

func pathOf(stack []frame) string {
	parts := make([]string, 0, len(stack))
	for _, f := range stack {
		if f.object {
			parts = append(parts, f.key)
		} else {
			parts = append(parts, strconv.Itoa(f.index))
		}
	}
	return strings.Join(parts, ".")
}
