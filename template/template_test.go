package template_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/annoskema"
	"github.com/reoring/annoskema/template"
)

const judgmentYAML = `
name: 判决书
description: criminal judgment annotation
types:
  - name: Judgment
    root: true
    fields:
      - {name: title, type: string, required: true, annotation: true, min_length: 5, description: 文书标题}
      - {name: 基准刑_月, type: integer, min: 0, max: 11, annotation: true}
      - {name: verdict, type: enum, values: [有罪, 无罪], annotation: true}
      - name: content_sections
        type: list
        min_items: 1
        items: {ref: Section}
  - name: Section
    description: one section of the judgment
    fields:
      - {name: heading, type: string, required: true}
      - name: subsections
        type: list
        items:
          fields:
            - name: analysis
              ref: Analysis
              required: true
  - name: Analysis
    fields:
      - {name: topic, type: string, annotation: true, max_length: 10}
`

const judgmentJSON = `{
  "name": "判决书",
  "description": "criminal judgment annotation",
  "types": [
    {"name": "Judgment", "root": true, "fields": [
      {"name": "title", "type": "string", "required": true, "annotation": true, "min_length": 5, "description": "文书标题"},
      {"name": "基准刑_月", "type": "integer", "min": 0, "max": 11, "annotation": true},
      {"name": "verdict", "type": "enum", "values": ["有罪", "无罪"], "annotation": true},
      {"name": "content_sections", "type": "list", "min_items": 1, "items": {"ref": "Section"}}
    ]},
    {"name": "Section", "description": "one section of the judgment", "fields": [
      {"name": "heading", "type": "string", "required": true},
      {"name": "subsections", "type": "list", "items": {"fields": [
        {"name": "analysis", "ref": "Analysis", "required": true}
      ]}}
    ]},
    {"name": "Analysis", "fields": [
      {"name": "topic", "type": "string", "annotation": true, "max_length": 10}
    ]}
  ]
}`

func paths(ds []annoskema.Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Path)
	}
	return out
}

func TestLoader_YAMLTemplate(t *testing.T) {
	ld := template.NewLoader(&template.FSSource{FS: fstest.MapFS{
		"judgment.yaml": {Data: []byte(judgmentYAML)},
	}})
	s, diag, err := ld.Load(context.Background(), "judgment")
	require.NoError(t, err)
	assert.False(t, diag.HasWarnings(), "%v", diag.Warnings())

	assert.Equal(t, "judgment", s.ID)
	assert.Equal(t, "判决书", s.Name)
	assert.Equal(t, "criminal judgment annotation", s.Description)
	assert.Equal(t, []string{
		"title",
		"基准刑_月",
		"verdict",
		"content_sections[].subsections[].analysis.topic",
	}, paths(s.Descriptors()))

	sections, ok := s.Lookup("content_sections[]")
	require.True(t, ok)
	assert.Equal(t, "one section of the judgment", sections.Description)

	res := s.Validate(map[string]any{"title": "某某故意伤害案", "基准刑_月": 61, "content_sections": []any{
		map[string]any{"heading": "本院认为"},
	}})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, annoskema.CodeTooBig, res.Errors[0].Code)
	assert.Equal(t, "基准刑_月", res.Errors[0].Path)
}

func TestLoader_JSONAndYAMLAgree(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte(judgmentYAML)},
		"b.json": {Data: []byte(judgmentJSON)},
	}
	ld := template.NewLoader(&template.FSSource{FS: fsys})
	a, _, err := ld.Load(context.Background(), "a")
	require.NoError(t, err)
	b, _, err := ld.Load(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, a.Descriptors(), b.Descriptors())
	assert.Equal(t, a.JSONSchema(), b.JSONSchema())
}

func TestLoader_NotFound(t *testing.T) {
	ld := template.NewLoader(&template.FSSource{FS: fstest.MapFS{}})
	_, diag, err := ld.Load(context.Background(), "missing")
	require.Error(t, err)
	assert.NotNil(t, diag)
	assert.True(t, errors.Is(err, template.ErrNotFound))

	var le *template.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, template.ReasonNotFound, le.Reason)
	assert.Equal(t, "missing", le.Template)
}

func TestFSSource_RejectsEscapingIDs(t *testing.T) {
	src := &template.FSSource{FS: fstest.MapFS{
		"ok.yaml":        {Data: []byte(judgmentYAML)},
		"sub/inner.yaml": {Data: []byte(judgmentYAML)},
		".hidden.yaml":   {Data: []byte(judgmentYAML)},
	}}
	for _, id := range []string{"", ".", "..", "../ok", "sub/inner", `sub\inner`, ".hidden"} {
		_, err := src.Fetch(context.Background(), id)
		assert.ErrorIs(t, err, template.ErrNotFound, "id %q", id)
	}
	raw, err := src.Fetch(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, template.FormatYAML, raw.Format)
	assert.Equal(t, "ok.yaml", raw.Origin)
}

func TestFSSource_ExtensionOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"t.json": {Data: []byte(judgmentJSON)},
		"t.yml":  {Data: []byte(judgmentYAML)},
	}
	raw, err := (&template.FSSource{FS: fsys}).Fetch(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "t.yml", raw.Origin)

	raw, err = (&template.FSSource{FS: fsys, Exts: []string{".json"}}).Fetch(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, template.FormatJSON, raw.Format)
}

func TestFSSource_IDForFile(t *testing.T) {
	src := template.DirSource("/srv/templates")
	tests := []struct {
		name string
		id   string
		ok   bool
	}{
		{name: "/srv/templates/judgment.yaml", id: "judgment", ok: true},
		{name: "/srv/templates/judgment.json", id: "judgment", ok: true},
		{name: "judgment.yml", id: "judgment", ok: true},
		{name: "/srv/templates/notes.txt"},
		{name: "/srv/templates/sub/x.yaml"},
		{name: "/srv/templates/.swp.yaml"},
	}
	for _, tt := range tests {
		id, ok := src.IDForFile(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.id, id, tt.name)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format template.Format
	}{
		{name: "yaml syntax", data: "types: [", format: template.FormatYAML},
		{name: "yaml unknown key", data: "types:\n  - name: A\n    fileds: []\n", format: template.FormatYAML},
		{name: "yaml duplicate key", data: "name: a\nname: b\ntypes: []\n", format: template.FormatYAML},
		{name: "empty", data: "", format: template.FormatAuto},
		{name: "json syntax", data: `{"types": [}`, format: template.FormatJSON},
		{name: "json unknown key", data: `{"types": [{"name": "A", "rooot": true}]}`, format: template.FormatJSON},
		{name: "json duplicate key", data: `{"name": "a", "name": "b", "types": []}`, format: template.FormatAuto},
		{name: "json trailing data", data: `{"types": []} {}`, format: template.FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diag, err := template.Parse("bad", []byte(tt.data), tt.format)
			require.Error(t, err)
			assert.NotNil(t, diag)
			assert.True(t, template.IsMalformed(err), "%v", err)
		})
	}
}

func TestParse_RootResolution(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "single type", data: "types:\n  - name: A\n    fields: [{name: x, type: string, annotation: true}]\n"},
		{name: "explicit root", data: "types:\n  - {name: A}\n  - name: B\n    root: true\n    fields: [{name: a, ref: A, annotation: true}]\n"},
		{name: "no types", data: "name: empty\n", wantErr: "template declares no types"},
		{name: "no root", data: "types:\n  - {name: A}\n  - {name: B}\n", wantErr: "no root type"},
		{name: "two roots", data: "types:\n  - {name: A, root: true}\n  - {name: B, root: true}\n", wantErr: "2 types are marked root"},
		{name: "duplicate type", data: "types:\n  - {name: A, root: true}\n  - {name: A}\n", wantErr: `duplicate type "A"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, err := template.Parse("r", []byte(tt.data), template.FormatYAML)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, s)
				return
			}
			require.Error(t, err)
			var se *annoskema.SchemaError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_CollectsEveryProblem(t *testing.T) {
	const data = `
types:
  - name: Doc
    root: true
    fields:
      - {name: a, type: date}
      - {name: b, ref: Missing}
      - {name: c, type: string, min: 1}
      - {name: d, type: list}
      - {name: e, type: enum}
      - {name: f, ref: Node}
      - {name: g, type: list, items: {type: list, items: {type: string}}}
      - {name: h, type: string, pattern: "("}
  - name: Node
    fields:
      - {name: child, ref: Node}
`
	_, _, err := template.Parse("broken", []byte(data), template.FormatYAML)
	require.Error(t, err)
	var se *annoskema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "broken", se.Template)

	var got []string
	for _, p := range se.Problems {
		got = append(got, p.Path)
	}
	assert.Equal(t, []string{"a", "b", "f.child", "c", "d", "e", "g", "h"}, got)
	assert.Equal(t, []string{
		`a: unknown type "date"`,
		`b: unknown type "Missing"`,
		`f.child: recursive reference to type "Node"`,
		"c: min and max apply to integer and number fields only",
		"d: list field has no items",
		"e: enum field declares no values",
		"g: lists of lists are not supported",
		`h: invalid pattern "("`,
	}, template.Problems(err))
}

func TestParse_MisplacedKeys(t *testing.T) {
	const data = `
types:
  - name: Doc
    fields:
      - {name: a, type: string, ref: Doc}
      - {name: b, type: string, items: {type: string}}
      - {name: c, ref: Doc, fields: [{name: x, type: string}]}
      - {name: d}
`
	_, _, err := template.Parse("m", []byte(data), template.FormatYAML)
	require.Error(t, err)
	assert.Equal(t, []string{
		"a: ref applies to object fields only",
		"b: items apply to list fields only",
		"c: declare either ref or fields, not both",
		"d: field has no type",
	}, template.Problems(err))
}

func TestParse_Diagnostics(t *testing.T) {
	const data = `
types:
  - name: Doc
    root: true
    fields: [{name: a, type: string}]
  - name: Orphan
`
	s, diag, err := template.Parse("d", []byte(data), template.FormatAuto)
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.True(t, diag.HasWarnings())
	assert.Equal(t, []string{
		`type "Orphan" is never referenced`,
		"template declares no annotation fields",
	}, diag.Warnings())
}

func TestParse_EnumValuesFromJSONAndYAML(t *testing.T) {
	y, _, err := template.Parse("y", []byte("types:\n  - name: A\n    fields: [{name: level, type: enum, values: [1, 2], annotation: true}]\n"), template.FormatYAML)
	require.NoError(t, err)
	j, _, err := template.Parse("j", []byte(`{"types":[{"name":"A","fields":[{"name":"level","type":"enum","values":[1,2],"annotation":true}]}]}`), template.FormatAuto)
	require.NoError(t, err)

	for _, s := range []*annoskema.Schema{y, j} {
		assert.True(t, s.Validate(map[string]any{"level": 2}).Valid)
		assert.True(t, s.Validate(map[string]any{"level": 1.0}).Valid)
		assert.False(t, s.Validate(map[string]any{"level": 3}).Valid)
	}
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestRedisSource(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	src := template.NewRedisSource(client, "annoskema:template:")

	require.NoError(t, src.Store(ctx, "judgment", []byte(judgmentJSON)))
	stored, err := mr.Get("annoskema:template:judgment")
	require.NoError(t, err)
	assert.Equal(t, judgmentJSON, stored)

	s, _, err := template.NewLoader(src).Load(ctx, "judgment")
	require.NoError(t, err)
	assert.Len(t, s.Descriptors(), 4)

	_, _, err = template.NewLoader(src).Load(ctx, "missing")
	assert.ErrorIs(t, err, template.ErrNotFound)

	mr.Close()
	_, _, err = template.NewLoader(src).Load(ctx, "judgment")
	var le *template.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, template.ReasonUnreadable, le.Reason)
	assert.NotErrorIs(t, err, template.ErrNotFound)
}
