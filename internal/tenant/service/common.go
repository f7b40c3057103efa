// Package service implements tenant-checked CRUD over consultancies, client
// companies and company users. Every mutation and its audit record share
// one transaction.
package service

import (
	"context"
	"errors"

	auditmodels "consulthub/internal/audit/models"
	"consulthub/internal/audit/writer"
	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/requestcontext"
)

type ConsultancyStore interface {
	Create(ctx context.Context, c *models.Consultancy) error
	Update(ctx context.Context, c *models.Consultancy) error
	FindByID(ctx context.Context, consultancyID id.ConsultancyID) (*models.Consultancy, error)
	List(ctx context.Context) ([]*models.Consultancy, error)
}

type ClientCompanyStore interface {
	Create(ctx context.Context, c *models.ClientCompany) error
	Update(ctx context.Context, c *models.ClientCompany) error
	FindByID(ctx context.Context, companyID id.ClientCompanyID) (*models.ClientCompany, error)
	ListByConsultancy(ctx context.Context, consultancyID id.ConsultancyID, filter models.ClientCompanyFilter) ([]*models.ClientCompany, error)
}

type CompanyUserStore interface {
	Create(ctx context.Context, u *models.CompanyUser) error
	Update(ctx context.Context, u *models.CompanyUser) error
	FindByID(ctx context.Context, userID id.CompanyUserID) (*models.CompanyUser, error)
	ListByClientCompany(ctx context.Context, companyID id.ClientCompanyID) ([]*models.CompanyUser, error)
}

type ConsultancyUserStore interface {
	Create(ctx context.Context, user *identitymodels.ConsultancyUser) error
	ListByConsultancy(ctx context.Context, consultancyID id.ConsultancyID) ([]*identitymodels.ConsultancyUser, error)
}

// AuditRecorder writes the audit record of a governed mutation.
type AuditRecorder interface {
	Record(ctx context.Context, e writer.Entry) (*auditmodels.Record, error)
}

// IdentityIssuer provisions a login identity for a new company user and
// returns its subject.
type IdentityIssuer interface {
	Issue(ctx context.Context, email, name string) (id.SubjectID, error)
}

// Audited entity names.
const (
	entityConsultancy     = "consultancies"
	entityConsultancyUser = "consultancy_users"
	entityClientCompany   = "client_companies"
	entityCompanyUser     = "company_users"
)

func principalFrom(ctx context.Context) (identitymodels.Principal, error) {
	p, ok := identitymodels.FromContext(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return p, nil
}

// mismatch is the single answer for records outside the caller's tenant and
// for unknown ids.
func (c serviceConfig) mismatch(ctx context.Context, entity string) error {
	if c.metrics != nil {
		c.metrics.IncTenantMismatch(entity)
	}
	c.logger.WarnContext(ctx, "tenant mismatch",
		"entity", entity,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.New(dErrors.CodeTenantMismatch, "record not available")
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}

// translateStoreErr maps store sentinels to domain errors. Not-found is
// handled by callers since it must look like a tenant mismatch.
func translateStoreErr(err error, conflictMsg, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, conflictMsg)
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvariantViolation, "record ownership cannot change")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

// invariantToConflict reports repeated lifecycle transitions as conflicts.
func invariantToConflict(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return &dErrors.Error{Code: dErrors.CodeConflict, Message: err.Error(), Err: err}
	}
	return err
}
