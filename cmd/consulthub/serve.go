package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	audithandler "consulthub/internal/audit/handler"
	auditmetrics "consulthub/internal/audit/metrics"
	auditservice "consulthub/internal/audit/service"
	"consulthub/internal/audit/writer"
	identityhandler "consulthub/internal/identity/handler"
	identitymetrics "consulthub/internal/identity/metrics"
	identityservice "consulthub/internal/identity/service"
	impersonationhandler "consulthub/internal/impersonation/handler"
	impersonationmetrics "consulthub/internal/impersonation/metrics"
	impersonationservice "consulthub/internal/impersonation/service"
	"consulthub/internal/platform/health"
	"consulthub/internal/platform/redis"
	"consulthub/internal/platform/server"
	subscriptionhandler "consulthub/internal/subscription/handler"
	subscriptionmetrics "consulthub/internal/subscription/metrics"
	subscriptionservice "consulthub/internal/subscription/service"
	tenanthandler "consulthub/internal/tenant/handler"
	tenantmetrics "consulthub/internal/tenant/metrics"
	tenantservice "consulthub/internal/tenant/service"
	workspacehandler "consulthub/internal/workspace/handler"
	workspacemetrics "consulthub/internal/workspace/metrics"
	workspaceservice "consulthub/internal/workspace/service"
	"consulthub/internal/workspace/store/scope"
	"consulthub/pkg/platform/middleware/auth"
	"consulthub/pkg/platform/middleware/metadata"
	"consulthub/pkg/platform/middleware/request"
)

const redisStatsInterval = 15 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	log := a.logger
	log.Info("initializing consulthub",
		"addr", a.cfg.HTTP.Addr,
		"environment", a.cfg.Environment,
	)

	store, err := openStorage(ctx, a)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // best-effort on shutdown

	redisClient, err := redis.New(ctx, a.cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var scopes workspaceservice.ScopeStore = scope.NewInMemory()
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // best-effort on shutdown
		scopes = scope.NewRedis(redisClient.Client)
	} else {
		log.Warn("no redis configured, workspace selections are process-local")
	}

	verifier, err := auth.NewJWTVerifier(auth.VerifierConfig{
		Issuer:          a.cfg.Identity.Issuer,
		Audience:        a.cfg.Identity.Audience,
		HMACSecret:      a.cfg.Identity.HMACSecret,
		RSAPublicKeyPEM: a.cfg.Identity.RSAPublicKeyPEM,
		Leeway:          a.cfg.Identity.Leeway,
	})
	if err != nil {
		return err
	}
	clientMetadata, err := metadata.New(a.cfg.HTTP.TrustedProxies)
	if err != nil {
		return err
	}

	auditMetrics := auditmetrics.New()
	writerOpts := []writer.Option{writer.WithLogger(log), writer.WithMetrics(auditMetrics)}
	if store.outbox != nil {
		writerOpts = append(writerOpts, writer.WithOutbox(store.outbox))
	}
	recorder := writer.New(store.audits, writerOpts...)

	resolver := identityservice.New(store.consultancyUsers, store.companyUsers, store.tx,
		identityservice.WithLogger(log), identityservice.WithMetrics(identitymetrics.New()))

	tenantOpts := []tenantservice.Option{tenantservice.WithLogger(log), tenantservice.WithMetrics(tenantmetrics.New())}
	consultancySvc := tenantservice.NewConsultancyService(store.consultancies, store.consultancyUsers, recorder, store.tx, tenantOpts...)
	companySvc := tenantservice.NewClientCompanyService(store.companies, recorder, store.tx, tenantOpts...)
	companyUserSvc := tenantservice.NewCompanyUserService(store.companyUsers, store.companies, recorder, store.tx, tenantOpts...)

	subscriptionOpts := []subscriptionservice.Option{subscriptionservice.WithLogger(log), subscriptionservice.WithMetrics(subscriptionmetrics.New())}
	gate := subscriptionservice.NewGate(store.subscriptions, store.tx, subscriptionOpts...)
	subscriptionSvc := subscriptionservice.New(store.plans, store.subscriptions, store.payments, store.consultancies, recorder, store.tx, subscriptionOpts...)

	impersonationSvc := impersonationservice.New(store.sessions, resolver, recorder, store.tx,
		impersonationservice.WithLogger(log), impersonationservice.WithMetrics(impersonationmetrics.New()))
	workspaceSvc := workspaceservice.New(scopes, store.companies, store.tx,
		workspaceservice.WithLogger(log), workspaceservice.WithMetrics(workspacemetrics.New()), workspaceservice.WithTTL(a.cfg.Workspace.TTL))
	auditSvc := auditservice.New(store.audits, store.tx, auditservice.WithLogger(log), auditservice.WithMetrics(auditMetrics))

	healthHandler := health.New(a.cfg.Environment)
	if store.pool != nil {
		healthHandler.RegisterCheck("database", store.pool.Health)
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", redisClient.Health)
	}

	router := server.NewRouter(server.Config{
		RequestTimeout: a.cfg.HTTP.RequestTimeout,
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
		Metadata:       clientMetadata,
		Metrics:        request.NewMetrics(),
	}, server.Handlers{
		Health:        healthHandler,
		Identity:      identityhandler.New(log),
		Tenant:        tenanthandler.New(consultancySvc, companySvc, companyUserSvc, log),
		Subscription:  subscriptionhandler.New(subscriptionSvc, log),
		Audit:         audithandler.New(auditSvc, log),
		Impersonation: impersonationhandler.New(impersonationSvc, log),
		Workspace:     workspacehandler.New(workspaceSvc, log),
	}, server.Guards{
		Verifier:      verifier,
		Resolver:      resolver,
		Impersonation: impersonationSvc,
		Gate:          gate,
		Workspace:     workspaceSvc,
	}, log)

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", a.cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if redisClient != nil {
		g.Go(func() error {
			redisClient.RecordPoolStatsEvery(ctx, redisStatsInterval)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}
