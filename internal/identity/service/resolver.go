// Package service resolves verified subjects into principals.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	identitymetrics "consulthub/internal/identity/metrics"
	"consulthub/internal/identity/models"
	tenantmodels "consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
	"consulthub/pkg/requestcontext"
)

type ConsultancyUserStore interface {
	FindBySubject(ctx context.Context, subject id.SubjectID) (*models.ConsultancyUser, error)
}

type CompanyUserStore interface {
	FindBySubject(ctx context.Context, subject id.SubjectID) (*tenantmodels.CompanyUser, error)
}

// Resolver maps a verified subject to exactly one principal. It is a pure
// read and never sees credentials.
type Resolver struct {
	consultancyUsers ConsultancyUserStore
	companyUsers     CompanyUserStore
	tx               tx.Runner
	logger           *slog.Logger
	metrics          *identitymetrics.Metrics
	tracer           trace.Tracer
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithTracer injects a tracer; the global provider is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(r *Resolver) {
		r.tracer = t
	}
}

func New(consultancyUsers ConsultancyUserStore, companyUsers CompanyUserStore, txRunner tx.Runner, opts ...Option) *Resolver {
	r := &Resolver{
		consultancyUsers: consultancyUsers,
		companyUsers:     companyUsers,
		tx:               txRunner,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer("consulthub/identity")
	}
	return r
}

// Resolve returns the principal of subject. Consultancy users take
// precedence over company users; an inactive company user yields
// AccountInactive and an unknown subject AccountNotProvisioned.
func (r *Resolver) Resolve(ctx context.Context, subject id.SubjectID) (principal models.Principal, err error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "identity.Resolve")
	defer func() {
		r.observe(start, principal, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("principal.kind", string(principal.Kind())))
		}
		span.End()
	}()

	if subject.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "verified subject required")
	}

	// Identity lookup precedes any tenant scope, so it runs with platform visibility.
	lookupCtx := requestcontext.WithTenantScope(ctx, requestcontext.PlatformScope())
	err = r.tx.RunInTx(lookupCtx, func(ctx context.Context) error {
		var lookupErr error
		principal, lookupErr = r.lookup(ctx, subject)
		return lookupErr
	})
	if err != nil {
		return nil, err
	}
	return principal, nil
}

func (r *Resolver) lookup(ctx context.Context, subject id.SubjectID) (models.Principal, error) {
	user, err := r.consultancyUsers.FindBySubject(ctx, subject)
	switch {
	case err == nil:
		return user.Principal(), nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consultancy user")
	}

	companyUser, err := r.companyUsers.FindBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeAccountNotProvisioned, "no account is provisioned for this identity")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company user")
	}
	if !companyUser.Active {
		return nil, dErrors.New(dErrors.CodeAccountInactive, "account is inactive")
	}
	return models.CompanyUser{
		UserID:          companyUser.ID,
		SubjectID:       companyUser.SubjectID,
		ClientCompanyID: companyUser.ClientCompanyID,
		ConsultancyID:   companyUser.ConsultancyID,
		Role:            companyUser.Role,
		Active:          companyUser.Active,
		Name:            companyUser.Name,
		Email:           companyUser.Email,
	}, nil
}

func (r *Resolver) observe(start time.Time, principal models.Principal, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveResolve(start)
	switch {
	case err == nil:
		r.metrics.IncResolution(string(principal.Kind()))
	case dErrors.HasCode(err, dErrors.CodeAccountInactive):
		r.metrics.IncResolution(string(dErrors.CodeAccountInactive))
	case dErrors.HasCode(err, dErrors.CodeAccountNotProvisioned):
		r.metrics.IncResolution(string(dErrors.CodeAccountNotProvisioned))
	default:
		r.metrics.IncResolution("error")
	}
}
