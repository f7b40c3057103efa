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

// ConsultancyService creates and reads root tenants. Status transitions are
// owned by the subscription service.
type ConsultancyService struct {
	consultancies ConsultancyStore
	users         ConsultancyUserStore
	audit         AuditRecorder
	tx            tx.Runner
	serviceConfig
}

func NewConsultancyService(consultancies ConsultancyStore, users ConsultancyUserStore, audit AuditRecorder, txRunner tx.Runner, opts ...Option) *ConsultancyService {
	return &ConsultancyService{
		consultancies: consultancies,
		users:         users,
		audit:         audit,
		tx:            txRunner,
		serviceConfig: newConfig(opts),
	}
}

// Create provisions a consultancy and its owning consultant. Only platform
// superadmins may call it; self-service signup goes through Signup.
func (s *ConsultancyService) Create(ctx context.Context, cmd CreateConsultancyCommand) (*models.Consultancy, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if p.Kind() != identitymodels.KindPlatformSuperadmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only platform operators can create consultancies")
	}
	return s.create(ctx, cmd)
}

// Signup creates a consultancy owned by the verified subject of the request.
// The subject must not already be provisioned.
func (s *ConsultancyService) Signup(ctx context.Context, name, ownerName, ownerEmail string) (*models.Consultancy, error) {
	subject := requestcontext.Subject(ctx)
	if subject.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.create(ctx, CreateConsultancyCommand{
		Name:         name,
		OwnerSubject: subject,
		OwnerName:    ownerName,
		OwnerEmail:   ownerEmail,
	})
}

func (s *ConsultancyService) create(ctx context.Context, cmd CreateConsultancyCommand) (*models.Consultancy, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	consultancy, err := models.NewConsultancy(id.ConsultancyID(uuid.New()), cmd.Name, now)
	if err != nil {
		return nil, err
	}
	owner, err := identitymodels.NewConsultant(id.ConsultancyUserID(uuid.New()), cmd.OwnerSubject, consultancy.ID, cmd.OwnerName, cmd.OwnerEmail, now)
	if err != nil {
		return nil, err
	}

	// Signup has no principal yet. Provisioning writes operator-owned rows,
	// so it runs at platform scope.
	if requestcontext.Scope(ctx).IsZero() {
		ctx = requestcontext.WithTenantScope(ctx, requestcontext.PlatformScope())
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.consultancies.Create(ctx, consultancy); err != nil {
			return translateStoreErr(err, "consultancy already exists", "failed to create consultancy")
		}
		if err := s.users.Create(ctx, owner); err != nil {
			return translateStoreErr(err, "subject is already provisioned", "failed to create consultancy owner")
		}
		if _, err := s.audit.Record(ctx, writer.Entry{
			Action:        auditmodels.ActionInsert,
			Entity:        entityConsultancy,
			RecordID:      consultancy.ID.String(),
			ConsultancyID: consultancy.ID,
			After:         consultancy,
			Description:   "consultancy created",
		}); err != nil {
			return err
		}
		_, err := s.audit.Record(ctx, writer.Entry{
			Action:        auditmodels.ActionInsert,
			Entity:        entityConsultancyUser,
			RecordID:      owner.ID.String(),
			ConsultancyID: consultancy.ID,
			After:         owner,
			Description:   "consultancy owner created",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncConsultancyCreated()
	}
	s.logger.InfoContext(ctx, "consultancy created",
		"consultancy_id", consultancy.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return consultancy, nil
}

// Get returns a consultant's own consultancy, or any consultancy for
// superadmins.
func (s *ConsultancyService) Get(ctx context.Context, consultancyID id.ConsultancyID) (*models.Consultancy, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	switch p := p.(type) {
	case identitymodels.PlatformSuperadmin:
	case identitymodels.Consultant:
		if p.ConsultancyID != consultancyID {
			return nil, s.mismatch(ctx, entityConsultancy)
		}
	default:
		return nil, s.mismatch(ctx, entityConsultancy)
	}

	var consultancy *models.Consultancy
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		consultancy, err = s.consultancies.FindByID(ctx, consultancyID)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, s.mismatch(ctx, entityConsultancy)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consultancy")
	}
	return consultancy, nil
}

// List returns every consultancy. Platform superadmins only.
func (s *ConsultancyService) List(ctx context.Context) ([]*models.Consultancy, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if p.Kind() != identitymodels.KindPlatformSuperadmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only platform operators can list consultancies")
	}

	var consultancies []*models.Consultancy
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		consultancies, err = s.consultancies.List(ctx)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list consultancies")
	}
	return consultancies, nil
}
