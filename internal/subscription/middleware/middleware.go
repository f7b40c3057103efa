// Package middleware applies the subscription gate to HTTP routes.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/subscription/models"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/requestcontext"
)

type Gate interface {
	Check(ctx context.Context, principal identitymodels.Principal) (models.Decision, error)
}

// RequireActiveSubscription sends consultants whose consultancy has no
// active subscription to plan selection with 303 See Other. It must run
// after principal resolution.
func RequireActiveSubscription(gate Gate, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal, ok := identitymodels.FromContext(ctx)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}

			decision, err := gate.Check(ctx, principal)
			if err != nil {
				logger.ErrorContext(ctx, "subscription gate failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			if !decision.Allowed {
				httputil.WriteError(w, dErrors.New(dErrors.CodeSubscriptionInactive, "subscription is "+string(decision.Status)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
