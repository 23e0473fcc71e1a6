package docpath_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/annoskema/docpath"
)

func sectionsDoc() map[string]any {
	return map[string]any{
		"title": "判决书",
		"content_sections": []any{
			map[string]any{
				"subsections": []any{
					map[string]any{"analysis": map[string]any{"topic": "合作平台"}},
					map[string]any{"analysis": map[string]any{"topic": "双边关系"}},
				},
			},
		},
	}
}

func TestGet_ArrayDescentSelectsFirstElement(t *testing.T) {
	v, ok := docpath.Get(sectionsDoc(), "content_sections[].subsections[].analysis.topic")
	require.True(t, ok)
	assert.Equal(t, "合作平台", v)
}

func TestGet_Table(t *testing.T) {
	doc := sectionsDoc()
	tests := []struct {
		name  string
		path  string
		want  any
		found bool
	}{
		{name: "plain key", path: "title", want: "判决书", found: true},
		{name: "missing key", path: "court", found: false},
		{name: "missing intermediate", path: "meta.court.name", found: false},
		{name: "key through scalar", path: "title.length", found: false},
		{name: "descent on non-sequence", path: "title[]", found: false},
		{name: "descent on missing", path: "appendix[].name", found: false},
		{name: "element itself", path: "content_sections[]", want: doc["content_sections"].([]any)[0], found: true},
		{name: "key on sequence without marker", path: "content_sections.subsections", found: false},
		{name: "empty path", path: "", found: false},
		{name: "empty segment", path: "a..b", found: false},
		{name: "marker glued to key", path: "content_sections[]subsections", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := docpath.Get(doc, tt.path)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestGet_EmptySequenceIsNotFound(t *testing.T) {
	doc := map[string]any{"items": []any{}}
	_, ok := docpath.Get(doc, "items[].name")
	assert.False(t, ok)
}

func TestGet_NilAndScalarDocuments(t *testing.T) {
	for _, doc := range []any{nil, "x", 3, []any{1}} {
		_, ok := docpath.Get(doc, "a.b")
		assert.False(t, ok)
	}
}

func TestSet_RoundTripAndNonMutation(t *testing.T) {
	doc := sectionsDoc()
	before := sectionsDoc()

	out, err := docpath.Set(doc, "content_sections[].subsections[].analysis.topic", "经贸合作")
	require.NoError(t, err)

	got, ok := docpath.Get(out, "content_sections[].subsections[].analysis.topic")
	require.True(t, ok)
	assert.Equal(t, "经贸合作", got)
	assert.Equal(t, before, doc, "input document must not change")

	// the untouched second subsection is shared, not copied
	oldSecond := doc["content_sections"].([]any)[0].(map[string]any)["subsections"].([]any)[1].(map[string]any)
	newSecond := out.(map[string]any)["content_sections"].([]any)[0].(map[string]any)["subsections"].([]any)[1].(map[string]any)
	oldSecond["marker"] = true
	assert.Equal(t, true, newSecond["marker"])
}

func TestSet_CreatesMissingObjects(t *testing.T) {
	doc := map[string]any{"title": "x"}
	out, err := docpath.Set(doc, "meta.court.name", "最高人民法院")
	require.NoError(t, err)
	v, ok := docpath.Get(out, "meta.court.name")
	require.True(t, ok)
	assert.Equal(t, "最高人民法院", v)
	assert.NotContains(t, doc, "meta")
}

func TestSet_NilDocumentBecomesObject(t *testing.T) {
	out, err := docpath.Set(nil, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, out)
}

func TestSet_Failures(t *testing.T) {
	tests := []struct {
		name string
		doc  any
		path string
	}{
		{name: "missing array", doc: map[string]any{}, path: "items[].name"},
		{name: "empty array", doc: map[string]any{"items": []any{}}, path: "items[].name"},
		{name: "array is scalar", doc: map[string]any{"items": "x"}, path: "items[].name"},
		{name: "through scalar", doc: map[string]any{"title": "x"}, path: "title.sub"},
		{name: "element not object", doc: map[string]any{"items": []any{"a"}}, path: "items[].name"},
		{name: "scalar root", doc: "x", path: "a"},
		{name: "empty path", doc: map[string]any{}, path: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := docpath.Set(tt.doc, tt.path, 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, docpath.ErrNotFound))
		})
	}
}

func TestSet_ReplacesWholeElement(t *testing.T) {
	doc := map[string]any{"tags": []any{"a", "b"}}
	out, err := docpath.Set(doc, "tags[]", "z")
	require.NoError(t, err)
	assert.Equal(t, []any{"z", "b"}, out.(map[string]any)["tags"])
	assert.Equal(t, []any{"a", "b"}, doc["tags"])
}

func TestParse(t *testing.T) {
	p, err := docpath.Parse("a.b[].c[].d")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.Prefix)
	assert.True(t, p.Descend)
	assert.Equal(t, "c[].d", p.Rest)

	p, err = docpath.Parse("plain.key")
	require.NoError(t, err)
	assert.False(t, p.Descend)
	assert.Empty(t, p.Rest)
}

func TestJoinAndElem(t *testing.T) {
	assert.Equal(t, "a", docpath.Join("", "a"))
	assert.Equal(t, "a.b", docpath.Join("a", "b"))
	assert.Equal(t, "a[].b", docpath.Join(docpath.Elem("a"), "b"))
}
