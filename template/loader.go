package template

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/reoring/annoskema"
)

// Loader fetches templates from a Source and builds schemas from them.
type Loader struct {
	source Source
	log    *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used for load events.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// NewLoader returns a Loader reading from src.
func NewLoader(src Source, opts ...LoaderOption) *Loader {
	l := &Loader{source: src, log: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Source returns the source the loader reads from.
func (l *Loader) Source() Source { return l.source }

// Load fetches and parses the template id. Errors are a *LoadError or an
// *annoskema.SchemaError. Context cancellation is returned as is.
func (l *Loader) Load(ctx context.Context, id string) (*annoskema.Schema, Diag, error) {
	raw, err := l.source.Fetch(ctx, id)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &simpleDiag{}, ctxErr
		}
		le := &LoadError{Template: id, Reason: ReasonUnreadable, Err: err}
		if errors.Is(err, ErrNotFound) {
			le.Reason = ReasonNotFound
		}
		l.log.Debug("template fetch failed", zap.String("template", id), zap.Stringer("reason", le.Reason), zap.Error(err))
		return nil, &simpleDiag{}, le
	}

	s, diag, err := Parse(id, raw.Data, raw.Format)
	if err != nil {
		l.log.Debug("template rejected",
			zap.String("template", id),
			zap.String("origin", raw.Origin),
			zap.Error(err),
		)
		return nil, diag, err
	}
	l.log.Debug("template loaded",
		zap.String("template", id),
		zap.String("origin", raw.Origin),
		zap.Int("annotation_fields", len(s.Descriptors())),
		zap.Strings("warnings", diag.Warnings()),
	)
	return s, diag, nil
}
