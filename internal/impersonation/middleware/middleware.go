// Package middleware switches an operator's request to the identity of an
// open impersonation session.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	identitymodels "consulthub/internal/identity/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/requestcontext"
)

// SessionHeader names the open session an operator is acting through.
const SessionHeader = "X-Impersonation-Session"

type Assumer interface {
	Assume(ctx context.Context, sessionID id.ImpersonationSessionID) (identitymodels.Principal, identitymodels.Impersonation, error)
}

// Impersonate replaces the principal and tenant scope with the session
// target when SessionHeader is present. Requests without the header pass
// through unchanged. It must run after the principal resolver.
func Impersonate(assumer Assumer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(SessionHeader)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			sessionID, err := id.ParseImpersonationSessionID(raw)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid impersonation session"))
				return
			}

			target, imp, err := assumer.Assume(ctx, sessionID)
			if err != nil {
				logger.WarnContext(ctx, "impersonation refused",
					"error", err,
					"session_id", sessionID,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			ctx = identitymodels.WithPrincipal(ctx, target)
			ctx = identitymodels.WithImpersonation(ctx, imp)
			ctx = requestcontext.WithTenantScope(ctx, target.Scope())
			logger.InfoContext(ctx, "impersonated request",
				"log_type", "audit",
				"session_id", imp.SessionID,
				"operator_id", imp.Operator.UserID,
				"target_subject", target.Subject(),
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
