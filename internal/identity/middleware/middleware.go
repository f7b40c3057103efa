// Package middleware attaches the resolved principal to requests.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"consulthub/internal/identity/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/requestcontext"
)

// PrincipalResolver resolves a verified subject into a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, subject id.SubjectID) (models.Principal, error)
}

// ResolvePrincipal resolves the verified subject once per request and stores
// the principal and its tenant scope in the request context. It must run
// after the token verifier.
func ResolvePrincipal(resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			subject := requestcontext.Subject(ctx)
			if subject.IsNil() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}

			principal, err := resolver.Resolve(ctx, subject)
			if err != nil {
				logger.WarnContext(ctx, "principal resolution failed",
					"error", err,
					"subject", subject,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			ctx = models.WithPrincipal(ctx, principal)
			ctx = requestcontext.WithTenantScope(ctx, principal.Scope())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePlatformOperator admits only platform superadmins acting as
// themselves. Impersonated requests are refused.
func RequirePlatformOperator(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal, ok := models.FromContext(ctx)
			if !ok || principal.Kind() != models.KindPlatformSuperadmin {
				logger.WarnContext(ctx, "platform operator route denied",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "platform operator access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Principal returns the principal stored by ResolvePrincipal or an
// unauthorized error.
func Principal(ctx context.Context) (models.Principal, error) {
	principal, ok := models.FromContext(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return principal, nil
}
