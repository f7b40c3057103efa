// Package requestcontext carries request-scoped values (request id, client
// metadata, verified subject, tenant scope, clock) through context.Context.
package requestcontext

import (
	"context"
	"time"

	id "consulthub/pkg/domain"
)

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyClientIP
	keyUserAgent
	keySubject
	keySession
	keyTenantScope
	keyNow
)

// TenantScope is the tenant boundary a request operates in. It is applied to
// database sessions before any tenant-scoped statement runs.
type TenantScope struct {
	ConsultancyID   id.ConsultancyID
	ClientCompanyID id.ClientCompanyID
	// Platform marks platform-operator scope, which is not bound to a tenant.
	Platform bool
}

// IsZero reports whether no scope has been established.
func (s TenantScope) IsZero() bool {
	return !s.Platform && s.ConsultancyID.IsNil() && s.ClientCompanyID.IsNil()
}

// PlatformScope is the unrestricted scope of platform operators and internal lookups.
func PlatformScope() TenantScope {
	return TenantScope{Platform: true}
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID returns the request id, or "" when none was set.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithClientMetadata stores the caller IP and raw User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, clientIP)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(keyClientIP).(string)
	return v
}

func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(keyUserAgent).(string)
	return v
}

// WithSubject stores the verified identity-provider subject and its session.
func WithSubject(ctx context.Context, subject id.SubjectID, session id.SessionID) context.Context {
	ctx = context.WithValue(ctx, keySubject, subject)
	return context.WithValue(ctx, keySession, session)
}

func Subject(ctx context.Context) id.SubjectID {
	v, _ := ctx.Value(keySubject).(id.SubjectID)
	return v
}

func SessionID(ctx context.Context) id.SessionID {
	v, _ := ctx.Value(keySession).(id.SessionID)
	return v
}

func WithTenantScope(ctx context.Context, scope TenantScope) context.Context {
	return context.WithValue(ctx, keyTenantScope, scope)
}

// Scope returns the tenant scope of the request. The zero value means no
// tenant is visible.
func Scope(ctx context.Context) TenantScope {
	v, _ := ctx.Value(keyTenantScope).(TenantScope)
	return v
}

// WithTime pins the request clock, used by tests to get deterministic timestamps.
func WithTime(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, keyNow, now)
}

// Now returns the pinned request time, or the wall clock in UTC.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(keyNow).(time.Time); ok {
		return v
	}
	return time.Now().UTC()
}
