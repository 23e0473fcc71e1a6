package service

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying svc.
func NewContext(ctx context.Context, svc *Service) context.Context {
	return context.WithValue(ctx, ctxKey{}, svc)
}

// FromContext retrieves the Service stored by NewContext.
func FromContext(ctx context.Context) (*Service, bool) {
	svc, ok := ctx.Value(ctxKey{}).(*Service)
	return svc, ok && svc != nil
}
