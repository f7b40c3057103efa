// Package service selects and re-verifies the workspace client company of a
// consultancy user.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	identitymodels "consulthub/internal/identity/models"
	tenantmodels "consulthub/internal/tenant/models"
	workspacemetrics "consulthub/internal/workspace/metrics"
	"consulthub/internal/workspace/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
	"consulthub/pkg/requestcontext"
)

type ScopeStore interface {
	Save(ctx context.Context, scope *models.Scope, ttl time.Duration) error
	Find(ctx context.Context, key string) (*models.Scope, error)
	Delete(ctx context.Context, key string) error
}

// CompanyStore reads the authoritative client company record.
type CompanyStore interface {
	FindByID(ctx context.Context, companyID id.ClientCompanyID) (*tenantmodels.ClientCompany, error)
}

const DefaultTTL = 12 * time.Hour

type Service struct {
	scopes    ScopeStore
	companies CompanyStore
	tx        tx.Runner
	ttl       time.Duration
	logger    *slog.Logger
	metrics   *workspacemetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *workspacemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTTL sets how long an unused selection survives.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func New(scopes ScopeStore, companies CompanyStore, txRunner tx.Runner, opts ...Option) *Service {
	s := &Service{
		scopes:    scopes,
		companies: companies,
		tx:        txRunner,
		ttl:       DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Select points the caller's session at companyID. Consultants may select
// only companies of their own consultancy.
func (s *Service) Select(ctx context.Context, companyID id.ClientCompanyID) (*models.Scope, error) {
	p, key, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := p.(identitymodels.CompanyUser); ok {
		return nil, dErrors.New(dErrors.CodeForbidden, "company users cannot switch workspaces")
	}
	if companyID.IsNil() {
		return nil, dErrors.NewValidation("client company is required", map[string]string{"client_company_id": "is required"})
	}

	company, err := s.verify(ctx, p, companyID)
	if err != nil {
		return nil, err
	}
	scope := &models.Scope{
		Key:             key,
		ConsultancyID:   company.ConsultancyID,
		ClientCompanyID: company.ID,
		SelectedAt:      requestcontext.Now(ctx),
	}
	if err := s.scopes.Save(ctx, scope, s.ttl); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save workspace")
	}

	if s.metrics != nil {
		s.metrics.IncSelection()
	}
	s.logger.InfoContext(ctx, "workspace selected",
		"client_company_id", company.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return scope, nil
}

// Current returns the verified workspace of the caller. The stored pointer
// is checked against the client company record each time; a pointer that no
// longer matches is cleared. Company users are always in their own company.
func (s *Service) Current(ctx context.Context) (*models.Scope, error) {
	p, key, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if u, ok := p.(identitymodels.CompanyUser); ok {
		return &models.Scope{Key: key, ConsultancyID: u.ConsultancyID, ClientCompanyID: u.ClientCompanyID}, nil
	}

	scope, err := s.scopes.Find(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no workspace selected")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load workspace")
	}

	company, err := s.verify(ctx, p, scope.ClientCompanyID)
	if err == nil && company.ConsultancyID != scope.ConsultancyID {
		err = dErrors.New(dErrors.CodeTenantMismatch, "record not available")
	}
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeTenantMismatch) {
			s.discard(ctx, key)
		}
		return nil, err
	}
	return scope, nil
}

// Clear forgets the caller's selection. Clearing an empty workspace succeeds.
func (s *Service) Clear(ctx context.Context) error {
	_, key, err := s.caller(ctx)
	if err != nil {
		return err
	}
	if err := s.scopes.Delete(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear workspace")
	}
	return nil
}

// verify loads companyID under the caller's tenant scope and checks it
// belongs to the caller's consultancy. Unknown and foreign ids look the same.
func (s *Service) verify(ctx context.Context, p identitymodels.Principal, companyID id.ClientCompanyID) (*tenantmodels.ClientCompany, error) {
	var company *tenantmodels.ClientCompany
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		company, err = s.companies.FindByID(ctx, companyID)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.mismatch(ctx, companyID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client company")
	}
	switch p := p.(type) {
	case identitymodels.PlatformSuperadmin:
		return company, nil
	case identitymodels.Consultant:
		if company.ConsultancyID == p.ConsultancyID {
			return company, nil
		}
	}
	return nil, s.mismatch(ctx, companyID)
}

func (s *Service) mismatch(ctx context.Context, companyID id.ClientCompanyID) error {
	s.logger.WarnContext(ctx, "workspace tenant mismatch",
		"client_company_id", companyID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.New(dErrors.CodeTenantMismatch, "record not available")
}

func (s *Service) discard(ctx context.Context, key string) {
	if err := s.scopes.Delete(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear stale workspace", "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.IncStalePointer()
	}
}

// caller returns the principal and the pointer key of its session.
func (s *Service) caller(ctx context.Context) (identitymodels.Principal, string, error) {
	p, ok := identitymodels.FromContext(ctx)
	if !ok {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	session := requestcontext.SessionID(ctx)
	if session.IsNil() {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "workspace requires an authenticated session")
	}
	var impersonation id.ImpersonationSessionID
	if imp, ok := identitymodels.ImpersonationFromContext(ctx); ok {
		impersonation = imp.SessionID
	}
	return p, models.KeyFor(session, impersonation), nil
}
