// Package middleware binds workspace routes to the verified workspace
// company.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"consulthub/internal/workspace/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/requestcontext"
)

type Resolver interface {
	Current(ctx context.Context) (*models.Scope, error)
}

type ctxKey struct{}

// RequireWorkspace verifies the caller's workspace and stores it in the
// request context. Requests without a selection are rejected.
func RequireWorkspace(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope, err := resolver.Current(ctx)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeNotFound) {
					httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "select a workspace first"))
					return
				}
				logger.WarnContext(ctx, "workspace verification failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKey{}, *scope)))
		})
	}
}

// Company returns the client company verified by RequireWorkspace.
func Company(ctx context.Context) (id.ClientCompanyID, bool) {
	scope, ok := ctx.Value(ctxKey{}).(models.Scope)
	if !ok {
		return id.ClientCompanyID{}, false
	}
	return scope.ClientCompanyID, true
}
