// Package annoskema validates untyped documents against declarative templates
// and reads or writes annotation fields inside them.
//
// A template (see package template) describes the shape of a document: nested
// objects, lists of objects, enums and constrained scalars, and which fields an
// annotator is expected to fill in. Loading a template yields a *Schema, which
// is immutable and safe to share:
//
//	s, _, err := loader.Load(ctx, "judgment")
//	res := s.Validate(doc)                  // every field, index-qualified paths
//	part := s.ValidatePartial(fragment)     // present fields only
//	fields := s.Descriptors()               // annotation fields for a form
//	values := s.Extract(doc)                // current annotation values
//	doc2, err := annoskema.Apply(doc, "content_sections[].title", "v") // copy-on-write
//
// Validation never stops at the first problem; diagnostics are returned as
// FieldErrors, one per violation. Documents passed in are never modified.
//
// Layout:
//   - docpath: the path grammar ("a.b", "list[].child") for Get/Set.
//   - template: template sources and the declarative parser.
//   - schemacache: per-template cache with single-flight loading and invalidation.
//   - service: collaborator-facing results with structured failures.
//   - cmd/annoskema: CLI.
package annoskema
