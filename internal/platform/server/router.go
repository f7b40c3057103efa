// Package server assembles the HTTP router: the shared middleware chain and
// the route groups for each access tier.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "consulthub/internal/audit/handler"
	identityhandler "consulthub/internal/identity/handler"
	identitymiddleware "consulthub/internal/identity/middleware"
	impersonationhandler "consulthub/internal/impersonation/handler"
	impersonationmiddleware "consulthub/internal/impersonation/middleware"
	"consulthub/internal/platform/health"
	subscriptionhandler "consulthub/internal/subscription/handler"
	subscriptionmiddleware "consulthub/internal/subscription/middleware"
	tenanthandler "consulthub/internal/tenant/handler"
	workspacehandler "consulthub/internal/workspace/handler"
	workspacemiddleware "consulthub/internal/workspace/middleware"
	"consulthub/pkg/platform/middleware/auth"
	"consulthub/pkg/platform/middleware/metadata"
	"consulthub/pkg/platform/middleware/request"
	"consulthub/pkg/platform/middleware/requesttime"
)

// Handlers are the route owners mounted by NewRouter.
type Handlers struct {
	Health        *health.Handler
	Identity      *identityhandler.Handler
	Tenant        *tenanthandler.Handler
	Subscription  *subscriptionhandler.Handler
	Audit         *audithandler.Handler
	Impersonation *impersonationhandler.Handler
	Workspace     *workspacehandler.Handler
}

// Guards are the collaborators behind the access middleware.
type Guards struct {
	Verifier      auth.TokenVerifier
	Resolver      identitymiddleware.PrincipalResolver
	Impersonation impersonationmiddleware.Assumer
	Gate          subscriptionmiddleware.Gate
	Workspace     workspacemiddleware.Resolver
}

type Config struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	Metadata       *metadata.Middleware
	Metrics        *request.Metrics
}

// NewRouter wires every endpoint behind the middleware chain:
// request id, recovery, client metadata, logging, CORS, token verification,
// principal resolution, impersonation, subscription gate, workspace.
func NewRouter(cfg Config, h Handlers, g Guards, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(request.Recovery(logger))
	if cfg.Metadata != nil {
		r.Use(cfg.Metadata.Handler)
	}
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(request.Instrument(cfg.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", impersonationmiddleware.SessionHeader},
		ExposedHeaders:   []string{"X-Request-ID", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(request.Timeout(cfg.RequestTimeout))
		}
		r.Use(request.ContentTypeJSON)
		r.Use(auth.RequireSubject(g.Verifier, logger))

		// Signup runs before the subject has a principal.
		h.Tenant.RegisterSignup(r)

		r.Group(func(r chi.Router) {
			r.Use(identitymiddleware.ResolvePrincipal(g.Resolver, logger))
			r.Use(impersonationmiddleware.Impersonate(g.Impersonation, logger))

			// Reachable whatever the subscription status, so a lapsed
			// consultancy can pick a plan.
			h.Identity.Register(r)
			h.Subscription.Register(r)

			r.Group(func(r chi.Router) {
				r.Use(identitymiddleware.RequirePlatformOperator(logger))
				h.Tenant.RegisterAdmin(r)
				h.Subscription.RegisterAdmin(r)
				h.Impersonation.RegisterAdmin(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(subscriptionmiddleware.RequireActiveSubscription(g.Gate, logger))
				h.Tenant.Register(r)
				h.Audit.Register(r)
				h.Workspace.Register(r)

				r.Group(func(r chi.Router) {
					r.Use(workspacemiddleware.RequireWorkspace(g.Workspace, logger))
					h.Tenant.RegisterWorkspace(r, workspacemiddleware.Company)
					h.Audit.RegisterWorkspace(r, workspacemiddleware.Company)
				})
			})
		})
	})

	return r
}
