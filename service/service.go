// Package service exposes schema loading, validation and annotation access to
// collaborators (HTTP handlers, queue workers, the CLI) as plain result
// values.
//
// Every operation returns a result struct; nothing is returned as a Go error.
// Failures carry a kind, a short message and structured field details. The
// underlying error text (parser output, Redis errors) is logged, not returned.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/reoring/annoskema"
	"github.com/reoring/annoskema/docpath"
	"github.com/reoring/annoskema/i18n"
	"github.com/reoring/annoskema/template"
)

// Codes used in Failure details in addition to the annoskema codes.
const (
	CodeNotAnnotation = "not_annotation"
	CodePathNotFound  = "path_not_found"
)

// FailureKind classifies a Failure.
type FailureKind string

const (
	FailureNotFound        FailureKind = "template_not_found"
	FailureUnreadable      FailureKind = "template_unreadable"
	FailureMalformed       FailureKind = "template_malformed"
	FailureInvalidTemplate FailureKind = "invalid_template"
	FailureInvalidPath     FailureKind = "invalid_path"
	FailureCanceled        FailureKind = "canceled"
	FailureInternal        FailureKind = "internal"
)

// Failure is a structured operation failure.
type Failure struct {
	Kind    FailureKind           `json:"kind"`
	Message string                `json:"message"`
	Details annoskema.FieldErrors `json:"details,omitempty"`
}

// SchemaInfo summarizes a loaded template.
type SchemaInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type TemplateResult struct {
	Valid            bool                   `json:"valid"`
	SchemaInfo       *SchemaInfo            `json:"schema_info,omitempty"`
	AnnotationFields []annoskema.Descriptor `json:"annotation_fields,omitempty"`
	Error            *Failure               `json:"error,omitempty"`
}

type ValidationResponse struct {
	Valid  bool                  `json:"valid"`
	Errors annoskema.FieldErrors `json:"errors"`
	Error  *Failure              `json:"error,omitempty"`
}

type PartialResponse struct {
	Valid        bool                              `json:"valid"`
	FieldResults map[string]*annoskema.FieldResult `json:"field_results"`
	Error        *Failure                          `json:"error,omitempty"`
}

type ExtractResponse struct {
	Valid  bool                  `json:"valid"`
	Values annoskema.Annotations `json:"values"`
	Error  *Failure              `json:"error,omitempty"`
}

// ApplyResponse carries the updated document. Document is nil unless Valid.
type ApplyResponse struct {
	Valid    bool                  `json:"valid"`
	Document any                   `json:"document,omitempty"`
	Errors   annoskema.FieldErrors `json:"errors"`
	Error    *Failure              `json:"error,omitempty"`
}

// Schemas resolves template ids to schemas. *schemacache.Cache implements it.
type Schemas interface {
	Get(ctx context.Context, id string) (*annoskema.Schema, error)
}

// Service implements the collaborator-facing operations.
type Service struct {
	schemas Schemas
	log     *zap.Logger
	opt     annoskema.ValidateOpt
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithUnknownKeys sets how full and partial validation treat undeclared keys.
func WithUnknownKeys(p annoskema.UnknownPolicy) Option {
	return func(s *Service) { s.opt.Unknown = p }
}

// New returns a Service resolving templates through schemas.
func New(schemas Schemas, opts ...Option) *Service {
	s := &Service{schemas: schemas, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schema resolves a template for callers that need the schema itself.
func (s *Service) Schema(ctx context.Context, id string) (*annoskema.Schema, *Failure) {
	sc, err := s.schemas.Get(ctx, id)
	if err != nil {
		return nil, s.failure(id, err)
	}
	return sc, nil
}

// LoadTemplate loads a template and describes its annotation fields.
func (s *Service) LoadTemplate(ctx context.Context, id string) TemplateResult {
	sc, f := s.Schema(ctx, id)
	if f != nil {
		return TemplateResult{Error: f}
	}
	return TemplateResult{
		Valid:            true,
		SchemaInfo:       &SchemaInfo{ID: sc.ID, Name: sc.Name, Description: sc.Description},
		AnnotationFields: sc.Descriptors(),
	}
}

// ValidateDocument validates a whole document.
func (s *Service) ValidateDocument(ctx context.Context, doc any, id string) ValidationResponse {
	sc, f := s.Schema(ctx, id)
	if f != nil {
		return ValidationResponse{Errors: annoskema.FieldErrors{}, Error: f}
	}
	res := sc.Validate(doc, s.opt)
	return ValidationResponse{Valid: res.Valid, Errors: res.Errors}
}

// ValidatePartial validates the fields present in a fragment.
func (s *Service) ValidatePartial(ctx context.Context, fragment any, id string) PartialResponse {
	sc, f := s.Schema(ctx, id)
	if f != nil {
		return PartialResponse{FieldResults: map[string]*annoskema.FieldResult{}, Error: f}
	}
	res := sc.ValidatePartial(fragment, s.opt)
	return PartialResponse{Valid: res.Valid, FieldResults: res.FieldResults}
}

// ExtractAnnotations reads every annotation value from doc.
func (s *Service) ExtractAnnotations(ctx context.Context, doc any, id string) ExtractResponse {
	sc, f := s.Schema(ctx, id)
	if f != nil {
		return ExtractResponse{Values: annoskema.Annotations{}, Error: f}
	}
	return ExtractResponse{Valid: true, Values: sc.Extract(doc)}
}

// ApplyAnnotation writes value at an annotation path. The value is checked
// against the field's type and constraints first; nothing is written when it
// fails. doc is never modified.
func (s *Service) ApplyAnnotation(ctx context.Context, doc any, path string, value any, id string) ApplyResponse {
	sc, f := s.Schema(ctx, id)
	if f != nil {
		return ApplyResponse{Errors: annoskema.FieldErrors{}, Error: f}
	}
	if !sc.IsAnnotation(path) {
		return ApplyResponse{Errors: annoskema.FieldErrors{}, Error: pathFailure(path, CodeNotAnnotation)}
	}
	if errs := sc.CheckValue(path, value); len(errs) > 0 {
		return ApplyResponse{Errors: errs}
	}
	out, err := annoskema.Apply(doc, path, value)
	if err != nil {
		if !errors.Is(err, docpath.ErrNotFound) {
			s.log.Error("apply annotation", zap.String("template", id), zap.String("path", path), zap.Error(err))
		}
		return ApplyResponse{Errors: annoskema.FieldErrors{}, Error: pathFailure(path, CodePathNotFound)}
	}
	return ApplyResponse{Valid: true, Document: out, Errors: annoskema.FieldErrors{}}
}

func pathFailure(path, code string) *Failure {
	msg := i18n.T(code, map[string]string{"field": path})
	return &Failure{
		Kind:    FailureInvalidPath,
		Message: msg,
		Details: annoskema.FieldErrors{{Path: path, Code: code, Message: msg}},
	}
}

// failure maps a load error to a Failure. Only SchemaError problems, which
// are built from template positions, travel as details.
func (s *Service) failure(id string, err error) *Failure {
	s.log.Warn("template unavailable", zap.String("template", id), zap.Error(err))

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: FailureCanceled, Message: "request canceled before the template was loaded"}
	}
	var se *annoskema.SchemaError
	if errors.As(err, &se) {
		return &Failure{
			Kind:    FailureInvalidTemplate,
			Message: fmt.Sprintf("template %q is invalid", id),
			Details: se.Problems,
		}
	}
	var le *template.LoadError
	if errors.As(err, &le) {
		switch le.Reason {
		case template.ReasonNotFound:
			return &Failure{Kind: FailureNotFound, Message: fmt.Sprintf("template %q not found", id)}
		case template.ReasonMalformed:
			return &Failure{Kind: FailureMalformed, Message: fmt.Sprintf("template %q is not valid YAML or JSON", id)}
		default:
			return &Failure{Kind: FailureUnreadable, Message: fmt.Sprintf("template %q could not be read", id)}
		}
	}
	return &Failure{Kind: FailureInternal, Message: "internal error"}
}
