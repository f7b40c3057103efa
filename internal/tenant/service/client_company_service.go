package service

import (
	"context"

	"github.com/google/uuid"

	auditmodels "consulthub/internal/audit/models"
	"consulthub/internal/audit/writer"
	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/tx"
	"consulthub/pkg/requestcontext"
)

// ClientCompanyService manages the client companies of a consultancy.
type ClientCompanyService struct {
	companies ClientCompanyStore
	audit     AuditRecorder
	tx        tx.Runner
	serviceConfig
}

func NewClientCompanyService(companies ClientCompanyStore, audit AuditRecorder, txRunner tx.Runner, opts ...Option) *ClientCompanyService {
	return &ClientCompanyService{
		companies:     companies,
		audit:         audit,
		tx:            txRunner,
		serviceConfig: newConfig(opts),
	}
}

func (s *ClientCompanyService) Create(ctx context.Context, cmd CreateClientCompanyCommand) (*models.ClientCompany, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	consultancyID := cmd.ConsultancyID
	switch p := p.(type) {
	case identitymodels.PlatformSuperadmin:
		if consultancyID.IsNil() {
			return nil, dErrors.NewValidation("consultancy is required", map[string]string{"consultancy_id": "is required"})
		}
	case identitymodels.Consultant:
		if !consultancyID.IsNil() && consultancyID != p.ConsultancyID {
			return nil, s.mismatch(ctx, entityClientCompany)
		}
		consultancyID = p.ConsultancyID
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "company users cannot create client companies")
	}

	company, err := models.NewClientCompany(id.ClientCompanyID(uuid.New()), consultancyID, cmd.Details, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.companies.Create(ctx, company); err != nil {
			if isNotFound(err) {
				return s.mismatch(ctx, entityClientCompany)
			}
			return translateStoreErr(err, "client company already exists", "failed to create client company")
		}
		_, err := s.audit.Record(ctx, writer.Entry{
			Action:          auditmodels.ActionInsert,
			Entity:          entityClientCompany,
			RecordID:        company.ID.String(),
			ConsultancyID:   company.ConsultancyID,
			ClientCompanyID: company.ID,
			After:           company,
			Description:     "client company created",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncClientCompanyCreated()
	}
	return company, nil
}

// Get returns a company visible to the caller. Company users see only their
// own company.
func (s *ClientCompanyService) Get(ctx context.Context, companyID id.ClientCompanyID) (*models.ClientCompany, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	var company *models.ClientCompany
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		company, err = s.load(ctx, p, companyID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

// List returns the companies of a consultancy. Consultants always list their
// own; superadmins must name one.
func (s *ClientCompanyService) List(ctx context.Context, consultancyID id.ConsultancyID, filter models.ClientCompanyFilter) ([]*models.ClientCompany, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.NewValidation("invalid status filter", map[string]string{"status": "must be active or inactive"})
	}

	switch p := p.(type) {
	case identitymodels.PlatformSuperadmin:
		if consultancyID.IsNil() {
			return nil, dErrors.NewValidation("consultancy is required", map[string]string{"consultancy_id": "is required"})
		}
	case identitymodels.Consultant:
		if !consultancyID.IsNil() && consultancyID != p.ConsultancyID {
			return nil, s.mismatch(ctx, entityClientCompany)
		}
		consultancyID = p.ConsultancyID
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "company users cannot list client companies")
	}

	var companies []*models.ClientCompany
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		companies, err = s.companies.ListByConsultancy(ctx, consultancyID, filter)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list client companies")
	}
	return companies, nil
}

// Update applies a partial change to the descriptive attributes.
func (s *ClientCompanyService) Update(ctx context.Context, companyID id.ClientCompanyID, cmd UpdateClientCompanyCommand) (*models.ClientCompany, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, companyID, "client company updated", func(c *models.ClientCompany) error {
		return c.Rename(cmd.apply(c.Details()), requestcontext.Now(ctx))
	})
}

func (s *ClientCompanyService) Deactivate(ctx context.Context, companyID id.ClientCompanyID) (*models.ClientCompany, error) {
	return s.mutate(ctx, companyID, "client company deactivated", func(c *models.ClientCompany) error {
		return invariantToConflict(c.Deactivate(requestcontext.Now(ctx)))
	})
}

func (s *ClientCompanyService) Reactivate(ctx context.Context, companyID id.ClientCompanyID) (*models.ClientCompany, error) {
	return s.mutate(ctx, companyID, "client company reactivated", func(c *models.ClientCompany) error {
		return invariantToConflict(c.Reactivate(requestcontext.Now(ctx)))
	})
}

func (s *ClientCompanyService) mutate(ctx context.Context, companyID id.ClientCompanyID, description string, change func(*models.ClientCompany) error) (*models.ClientCompany, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	var company *models.ClientCompany
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		company, err = s.load(ctx, p, companyID, true)
		if err != nil {
			return err
		}
		before := *company
		if err := change(company); err != nil {
			return err
		}
		if err := s.companies.Update(ctx, company); err != nil {
			if isNotFound(err) {
				return s.mismatch(ctx, entityClientCompany)
			}
			return translateStoreErr(err, "client company already exists", "failed to update client company")
		}
		_, err = s.audit.Record(ctx, writer.Entry{
			Action:          auditmodels.ActionUpdate,
			Entity:          entityClientCompany,
			RecordID:        company.ID.String(),
			ConsultancyID:   company.ConsultancyID,
			ClientCompanyID: company.ID,
			Before:          &before,
			After:           company,
			Description:     description,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

// load fetches a company and checks the principal may see it, or change it
// when write is set.
func (s *ClientCompanyService) load(ctx context.Context, p identitymodels.Principal, companyID id.ClientCompanyID, write bool) (*models.ClientCompany, error) {
	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if isNotFound(err) {
			return nil, s.mismatch(ctx, entityClientCompany)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client company")
	}
	switch p := p.(type) {
	case identitymodels.PlatformSuperadmin:
		return company, nil
	case identitymodels.Consultant:
		if company.ConsultancyID != p.ConsultancyID {
			return nil, s.mismatch(ctx, entityClientCompany)
		}
		return company, nil
	case identitymodels.CompanyUser:
		if company.ID != p.ClientCompanyID {
			return nil, s.mismatch(ctx, entityClientCompany)
		}
		if write {
			return nil, dErrors.New(dErrors.CodeForbidden, "company users cannot change client companies")
		}
		return company, nil
	}
	return nil, s.mismatch(ctx, entityClientCompany)
}
