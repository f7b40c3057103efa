package models

import (
	"context"

	id "consulthub/pkg/domain"
)

type ctxKey int

const (
	keyPrincipal ctxKey = iota
	keyImpersonation
)

// Impersonation records the real operator behind an impersonated request.
type Impersonation struct {
	Operator  PlatformSuperadmin
	SessionID id.ImpersonationSessionID
}

// WithPrincipal stores the acting principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, keyPrincipal, p)
}

// FromContext returns the acting principal, if one was resolved.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(keyPrincipal).(Principal)
	return p, ok && p != nil
}

// WithImpersonation marks the request as performed by an operator on behalf
// of the acting principal.
func WithImpersonation(ctx context.Context, imp Impersonation) context.Context {
	return context.WithValue(ctx, keyImpersonation, imp)
}

// ImpersonationFromContext returns the operator behind an impersonated request.
func ImpersonationFromContext(ctx context.Context) (Impersonation, bool) {
	imp, ok := ctx.Value(keyImpersonation).(Impersonation)
	return imp, ok
}
