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

// CompanyUserService manages staff accounts of client companies. Consultants
// of the owning consultancy, admins of the same company and superadmins may
// manage them.
type CompanyUserService struct {
	users     CompanyUserStore
	companies ClientCompanyStore
	audit     AuditRecorder
	tx        tx.Runner
	serviceConfig
}

func NewCompanyUserService(users CompanyUserStore, companies ClientCompanyStore, audit AuditRecorder, txRunner tx.Runner, opts ...Option) *CompanyUserService {
	return &CompanyUserService{
		users:         users,
		companies:     companies,
		audit:         audit,
		tx:            txRunner,
		serviceConfig: newConfig(opts),
	}
}

// Create adds a staff account to a client company. A caller-supplied subject
// is accepted from platform superadmins only; otherwise the configured
// IdentityIssuer provisions one once the user is committed.
func (s *CompanyUserService) Create(ctx context.Context, cmd CreateCompanyUserCommand) (*models.CompanyUser, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !cmd.SubjectID.IsNil() && p.Kind() != identitymodels.KindPlatformSuperadmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only platform operators can link subjects")
	}

	var user *models.CompanyUser
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		company, err := s.loadCompany(ctx, p, cmd.ClientCompanyID)
		if err != nil {
			return err
		}
		if !company.IsActive() {
			return dErrors.New(dErrors.CodeConflict, "client company is inactive")
		}

		now := requestcontext.Now(ctx)
		user, err = models.NewCompanyUser(id.CompanyUserID(uuid.New()), company, cmd.Name, cmd.Email, cmd.Role, now)
		if err != nil {
			return err
		}
		if !cmd.SubjectID.IsNil() {
			if err := user.LinkSubject(cmd.SubjectID, now); err != nil {
				return err
			}
		}

		if err := s.users.Create(ctx, user); err != nil {
			if isNotFound(err) {
				return s.mismatch(ctx, entityCompanyUser)
			}
			return translateStoreErr(err, "email or subject already in use", "failed to create company user")
		}
		_, err = s.audit.Record(ctx, writer.Entry{
			Action:          auditmodels.ActionInsert,
			Entity:          entityCompanyUser,
			RecordID:        user.ID.String(),
			ConsultancyID:   user.ConsultancyID,
			ClientCompanyID: user.ClientCompanyID,
			After:           user,
			Description:     "company user created",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncCompanyUserCreated()
	}
	if user.SubjectID.IsNil() && s.issuer != nil {
		user = s.provisionSubject(ctx, user)
	}
	return user, nil
}

// provisionSubject issues an identity for a committed user and links it.
// Failures leave the user unlinked for a platform operator to link later.
func (s *CompanyUserService) provisionSubject(ctx context.Context, user *models.CompanyUser) *models.CompanyUser {
	subject, err := s.issuer.Issue(ctx, user.Email, user.Name)
	if err != nil {
		s.logger.WarnContext(ctx, "identity provisioning failed",
			"company_user_id", user.ID.String(),
			"error", err,
		)
		return user
	}
	linked, err := s.mutate(ctx, user.ID, "company user subject linked", func(_ identitymodels.Principal, u *models.CompanyUser) error {
		return u.LinkSubject(subject, requestcontext.Now(ctx))
	})
	if err != nil {
		s.logger.WarnContext(ctx, "linking provisioned identity failed",
			"company_user_id", user.ID.String(),
			"subject_id", subject.String(),
			"error", err,
		)
		return user
	}
	return linked
}

// Get returns a company user. Non-admin company users may read only
// themselves.
func (s *CompanyUserService) Get(ctx context.Context, userID id.CompanyUserID) (*models.CompanyUser, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	var user *models.CompanyUser
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.findUser(ctx, userID)
		if err != nil {
			return err
		}
		if self, ok := p.(identitymodels.CompanyUser); ok && self.UserID == user.ID {
			return nil
		}
		return s.authorize(ctx, p, user.ConsultancyID, user.ClientCompanyID)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *CompanyUserService) List(ctx context.Context, companyID id.ClientCompanyID) ([]*models.CompanyUser, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	var users []*models.CompanyUser
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadCompany(ctx, p, companyID); err != nil {
			return err
		}
		var err error
		users, err = s.users.ListByClientCompany(ctx, companyID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list company users")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies a partial change to name, email and role.
func (s *CompanyUserService) Update(ctx context.Context, userID id.CompanyUserID, cmd UpdateCompanyUserCommand) (*models.CompanyUser, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, "company user updated", func(p identitymodels.Principal, u *models.CompanyUser) error {
		name, email, role := u.Name, u.Email, u.Role
		if cmd.Name != nil {
			name = *cmd.Name
		}
		if cmd.Email != nil {
			email = *cmd.Email
		}
		if cmd.Role != nil {
			role = *cmd.Role
		}
		if role != models.CompanyRoleAdmin && isSelf(p, u) {
			return dErrors.New(dErrors.CodeForbidden, "company admins cannot remove their own admin role")
		}
		return u.Change(name, email, role, requestcontext.Now(ctx))
	})
}

func (s *CompanyUserService) Deactivate(ctx context.Context, userID id.CompanyUserID) (*models.CompanyUser, error) {
	return s.mutate(ctx, userID, "company user deactivated", func(p identitymodels.Principal, u *models.CompanyUser) error {
		if isSelf(p, u) {
			return dErrors.New(dErrors.CodeForbidden, "company admins cannot deactivate themselves")
		}
		return invariantToConflict(u.Deactivate(requestcontext.Now(ctx)))
	})
}

func (s *CompanyUserService) Reactivate(ctx context.Context, userID id.CompanyUserID) (*models.CompanyUser, error) {
	return s.mutate(ctx, userID, "company user reactivated", func(_ identitymodels.Principal, u *models.CompanyUser) error {
		return invariantToConflict(u.Reactivate(requestcontext.Now(ctx)))
	})
}

// LinkSubject binds a company user to an identity-provider subject.
// Platform superadmins only.
func (s *CompanyUserService) LinkSubject(ctx context.Context, userID id.CompanyUserID, subject id.SubjectID) (*models.CompanyUser, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if p.Kind() != identitymodels.KindPlatformSuperadmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only platform operators can link subjects")
	}
	if subject.IsNil() {
		return nil, dErrors.NewValidation("subject is required", map[string]string{"subject_id": "is required"})
	}
	return s.mutate(ctx, userID, "company user subject linked", func(_ identitymodels.Principal, u *models.CompanyUser) error {
		return u.LinkSubject(subject, requestcontext.Now(ctx))
	})
}

func (s *CompanyUserService) mutate(ctx context.Context, userID id.CompanyUserID, description string, change func(identitymodels.Principal, *models.CompanyUser) error) (*models.CompanyUser, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	var user *models.CompanyUser
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.findUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, p, user.ConsultancyID, user.ClientCompanyID); err != nil {
			return err
		}
		before := *user
		if err := change(p, user); err != nil {
			return err
		}
		if err := s.users.Update(ctx, user); err != nil {
			if isNotFound(err) {
				return s.mismatch(ctx, entityCompanyUser)
			}
			return translateStoreErr(err, "email or subject already in use", "failed to update company user")
		}
		_, err = s.audit.Record(ctx, writer.Entry{
			Action:          auditmodels.ActionUpdate,
			Entity:          entityCompanyUser,
			RecordID:        user.ID.String(),
			ConsultancyID:   user.ConsultancyID,
			ClientCompanyID: user.ClientCompanyID,
			Before:          &before,
			After:           user,
			Description:     description,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *CompanyUserService) findUser(ctx context.Context, userID id.CompanyUserID) (*models.CompanyUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, s.mismatch(ctx, entityCompanyUser)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company user")
	}
	return user, nil
}

func (s *CompanyUserService) loadCompany(ctx context.Context, p identitymodels.Principal, companyID id.ClientCompanyID) (*models.ClientCompany, error) {
	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if isNotFound(err) {
			return nil, s.mismatch(ctx, entityClientCompany)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client company")
	}
	if err := s.authorize(ctx, p, company.ConsultancyID, company.ID); err != nil {
		return nil, err
	}
	return company, nil
}

// authorize checks that p may manage users of the given company.
func (s *CompanyUserService) authorize(ctx context.Context, p identitymodels.Principal, consultancyID id.ConsultancyID, companyID id.ClientCompanyID) error {
	switch p := p.(type) {
	case identitymodels.PlatformSuperadmin:
		return nil
	case identitymodels.Consultant:
		if p.ConsultancyID == consultancyID {
			return nil
		}
	case identitymodels.CompanyUser:
		if p.ClientCompanyID != companyID {
			break
		}
		if !p.IsCompanyAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "only company admins can manage company users")
		}
		return nil
	}
	return s.mismatch(ctx, entityCompanyUser)
}

func isSelf(p identitymodels.Principal, u *models.CompanyUser) bool {
	self, ok := p.(identitymodels.CompanyUser)
	return ok && self.UserID == u.ID
}
