package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	auditmodels "consulthub/internal/audit/models"
	"consulthub/internal/audit/writer"
	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/tenant/models"
	"consulthub/internal/tenant/service/mocks"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

type CompanyUserServiceSuite struct {
	tenantFixture
	company *models.ClientCompany
	admin   *models.CompanyUser
	viewer  *models.CompanyUser
}

func TestCompanyUserServiceSuite(t *testing.T) {
	suite.Run(t, new(CompanyUserServiceSuite))
}

func (s *CompanyUserServiceSuite) SetupTest() {
	s.tenantFixture.SetupTest()
	s.company = s.seedCompany(s.consultancyA, "Acme")
	s.admin = s.seedCompanyUser(s.company, "Ana", "ana@acme.io", models.CompanyRoleAdmin)
	s.viewer = s.seedCompanyUser(s.company, "Vic", "vic@acme.io", models.CompanyRoleViewer)
}

func (s *CompanyUserServiceSuite) TestConsultantCreatesUser() {
	u, err := s.companyUserSvc.Create(s.as(s.consultantA), CreateCompanyUserCommand{
		ClientCompanyID: s.company.ID,
		Name:            "Mia",
		Email:           " Mia@Acme.io ",
		Role:            models.CompanyRoleManager,
	})
	s.Require().NoError(err)
	s.Equal(s.company.ID, u.ClientCompanyID)
	s.Equal(s.consultancyA, u.ConsultancyID)
	s.Equal("mia@acme.io", u.Email)
	s.True(u.SubjectID.IsNil())

	records := s.auditFor(entityCompanyUser, u.ID.String())
	s.Require().Len(records, 1)
	s.Equal(auditmodels.ActionInsert, records[0].Action)
	s.Equal(s.company.ID, records[0].ClientCompanyID)
}

func (s *CompanyUserServiceSuite) TestCreateRules() {
	s.Run("duplicate email in the same company", func() {
		_, err := s.companyUserSvc.Create(s.as(s.consultantA), CreateCompanyUserCommand{
			ClientCompanyID: s.company.ID, Name: "Ana Two", Email: "ANA@acme.io", Role: models.CompanyRoleViewer,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("same email in another company is fine", func() {
		other := s.seedCompany(s.consultancyA, "Other")
		_, err := s.companyUserSvc.Create(s.as(s.consultantA), CreateCompanyUserCommand{
			ClientCompanyID: other.ID, Name: "Ana", Email: "ana@acme.io", Role: models.CompanyRoleViewer,
		})
		s.NoError(err)
	})

	s.Run("foreign consultant", func() {
		_, err := s.companyUserSvc.Create(s.as(s.consultantB), CreateCompanyUserCommand{
			ClientCompanyID: s.company.ID, Name: "Spy", Email: "spy@x.io", Role: models.CompanyRoleAdmin,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeTenantMismatch))
	})

	s.Run("inactive company", func() {
		dormant := s.seedCompany(s.consultancyA, "Dormant")
		_, err := s.companySvc.Deactivate(s.as(s.consultantA), dormant.ID)
		s.Require().NoError(err)
		_, err = s.companyUserSvc.Create(s.as(s.consultantA), CreateCompanyUserCommand{
			ClientCompanyID: dormant.ID, Name: "Late", Email: "late@dormant.io", Role: models.CompanyRoleViewer,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("invalid role", func() {
		_, err := s.companyUserSvc.Create(s.as(s.consultantA), CreateCompanyUserCommand{
			ClientCompanyID: s.company.ID, Name: "Role", Email: "role@acme.io", Role: "owner",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(dErrors.FieldsOf(err), "role")
	})
}

func (s *CompanyUserServiceSuite) TestCompanyAdminManagesOwnCompany() {
	ctx := s.as(companyPrincipal(s.admin))

	created, err := s.companyUserSvc.Create(ctx, CreateCompanyUserCommand{
		ClientCompanyID: s.company.ID, Name: "Neo", Email: "neo@acme.io", Role: models.CompanyRoleViewer,
	})
	s.Require().NoError(err)

	users, err := s.companyUserSvc.List(ctx, s.company.ID)
	s.Require().NoError(err)
	s.Len(users, 3)

	deactivated, err := s.companyUserSvc.Deactivate(ctx, created.ID)
	s.Require().NoError(err)
	s.False(deactivated.Active)

	_, err = s.companyUserSvc.Deactivate(ctx, created.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *CompanyUserServiceSuite) TestCompanyAdminCannotLockThemselvesOut() {
	ctx := s.as(companyPrincipal(s.admin))

	_, err := s.companyUserSvc.Deactivate(ctx, s.admin.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	viewer := models.CompanyRoleViewer
	_, err = s.companyUserSvc.Update(ctx, s.admin.ID, UpdateCompanyUserCommand{Role: &viewer})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *CompanyUserServiceSuite) TestViewerAccess() {
	ctx := s.as(companyPrincipal(s.viewer))

	self, err := s.companyUserSvc.Get(ctx, s.viewer.ID)
	s.Require().NoError(err)
	s.Equal("Vic", self.Name)

	_, err = s.companyUserSvc.Get(ctx, s.admin.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.companyUserSvc.List(ctx, s.company.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *CompanyUserServiceSuite) TestOtherCompanyIsMismatch() {
	other := s.seedCompany(s.consultancyA, "Other")
	stranger := s.seedCompanyUser(other, "Sam", "sam@other.io", models.CompanyRoleAdmin)

	_, err := s.companyUserSvc.Get(s.as(companyPrincipal(stranger)), s.admin.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeTenantMismatch))

	_, err = s.companyUserSvc.List(s.as(companyPrincipal(stranger)), s.company.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeTenantMismatch))

	_, err = s.companyUserSvc.Get(s.as(s.consultantA), id.CompanyUserID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeTenantMismatch))
}

func (s *CompanyUserServiceSuite) TestPartialUpdate() {
	manager := models.CompanyRoleManager
	updated, err := s.companyUserSvc.Update(s.as(s.consultantA), s.viewer.ID, UpdateCompanyUserCommand{Role: &manager})
	s.Require().NoError(err)
	s.Equal(models.CompanyRoleManager, updated.Role)
	s.Equal("Vic", updated.Name)

	records := s.auditFor(entityCompanyUser, s.viewer.ID.String())
	s.Require().Len(records, 1)
	s.Equal([]string{"role"}, records[0].ChangedFields)
	s.Equal(s.consultantA.UserID.String(), records[0].Actor.ID)
}

func (s *CompanyUserServiceSuite) TestEmailClashOnUpdate() {
	taken := "ana@acme.io"
	_, err := s.companyUserSvc.Update(s.as(s.consultantA), s.viewer.ID, UpdateCompanyUserCommand{Email: &taken})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *CompanyUserServiceSuite) TestLinkSubject() {
	_, err := s.companyUserSvc.LinkSubject(s.as(s.consultantA), s.viewer.ID, "idp|vic")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	linked, err := s.companyUserSvc.LinkSubject(s.as(s.superadmin), s.viewer.ID, "idp|vic")
	s.Require().NoError(err)
	s.Equal(id.SubjectID("idp|vic"), linked.SubjectID)

	found, err := s.companyUsers.FindBySubject(context.Background(), "idp|vic")
	s.Require().NoError(err)
	s.Equal(s.viewer.ID, found.ID)

	_, err = s.companyUserSvc.LinkSubject(s.as(s.superadmin), s.admin.ID, "idp|vic")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.companyUserSvc.LinkSubject(s.as(s.superadmin), s.admin.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *CompanyUserServiceSuite) TestIdentityIssuerProvisionsSubject() {
	ctrl := gomock.NewController(s.T())
	issuer := mocks.NewMockIdentityIssuer(ctrl)
	svc := NewCompanyUserService(s.companyUsers, s.companies, writer.New(s.auditRecords), tx.NewInMemory(),
		WithIdentityIssuer(issuer))

	issuer.EXPECT().Issue(gomock.Any(), "zoe@acme.io", "Zoe").Return(id.SubjectID("idp|zoe"), nil)
	u, err := svc.Create(s.as(s.consultantA), CreateCompanyUserCommand{
		ClientCompanyID: s.company.ID, Name: "Zoe", Email: "zoe@acme.io", Role: models.CompanyRoleViewer,
	})
	s.Require().NoError(err)
	s.Equal(id.SubjectID("idp|zoe"), u.SubjectID)

	stored, err := s.companyUsers.FindBySubject(context.Background(), "idp|zoe")
	s.Require().NoError(err)
	s.Equal(u.ID, stored.ID)

	var descriptions []string
	for _, r := range s.auditFor(entityCompanyUser, u.ID.String()) {
		descriptions = append(descriptions, r.Description)
	}
	s.ElementsMatch([]string{"company user created", "company user subject linked"}, descriptions)
}

func (s *CompanyUserServiceSuite) TestIdentityIssuerFailureKeepsUserUnlinked() {
	ctrl := gomock.NewController(s.T())
	issuer := mocks.NewMockIdentityIssuer(ctrl)
	svc := NewCompanyUserService(s.companyUsers, s.companies, writer.New(s.auditRecords), tx.NewInMemory(),
		WithIdentityIssuer(issuer))

	issuer.EXPECT().Issue(gomock.Any(), "max@acme.io", "Max").Return(id.SubjectID(""), errors.New("idp down"))
	u, err := svc.Create(s.as(s.consultantA), CreateCompanyUserCommand{
		ClientCompanyID: s.company.ID, Name: "Max", Email: "max@acme.io", Role: models.CompanyRoleViewer,
	})
	s.Require().NoError(err)
	s.True(u.SubjectID.IsNil())

	users, err := s.companyUsers.ListByClientCompany(context.Background(), s.company.ID)
	s.Require().NoError(err)
	s.Len(users, 3)

	linked, err := svc.LinkSubject(s.as(s.superadmin), u.ID, "idp|max")
	s.Require().NoError(err)
	s.Equal(id.SubjectID("idp|max"), linked.SubjectID)
}

func (s *CompanyUserServiceSuite) TestIdentityIssuerNotCalledWhenCreateFails() {
	ctrl := gomock.NewController(s.T())
	issuer := mocks.NewMockIdentityIssuer(ctrl)
	svc := NewCompanyUserService(s.companyUsers, s.companies, writer.New(s.auditRecords), tx.NewInMemory(),
		WithIdentityIssuer(issuer))

	issuer.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.Create(s.as(s.consultantA), CreateCompanyUserCommand{
		ClientCompanyID: s.company.ID, Name: "Ana Again", Email: "ana@acme.io", Role: models.CompanyRoleViewer,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	dormant := s.seedCompany(s.consultancyA, "Dormant")
	_, err = s.companySvc.Deactivate(s.as(s.consultantA), dormant.ID)
	s.Require().NoError(err)
	_, err = svc.Create(s.as(s.consultantA), CreateCompanyUserCommand{
		ClientCompanyID: dormant.ID, Name: "Late", Email: "late@dormant.io", Role: models.CompanyRoleViewer,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *CompanyUserServiceSuite) TestOnlyOperatorsSupplySubjectOnCreate() {
	callers := map[string]identitymodels.Principal{
		"consultant":    s.consultantA,
		"company admin": companyPrincipal(s.admin),
	}
	for name, caller := range callers {
		s.Run(name, func() {
			_, err := s.companyUserSvc.Create(s.as(caller), CreateCompanyUserCommand{
				ClientCompanyID: s.company.ID, Name: "Eve", Email: "eve@acme.io",
				Role: models.CompanyRoleViewer, SubjectID: "idp|victim",
			})
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

			_, err = s.companyUsers.FindBySubject(context.Background(), "idp|victim")
			s.True(errors.Is(err, sentinel.ErrNotFound))
		})
	}

	u, err := s.companyUserSvc.Create(s.as(s.superadmin), CreateCompanyUserCommand{
		ClientCompanyID: s.company.ID, Name: "Eve", Email: "eve@acme.io",
		Role: models.CompanyRoleViewer, SubjectID: "idp|eve",
	})
	s.Require().NoError(err)
	s.Equal(id.SubjectID("idp|eve"), u.SubjectID)
}
