package companyuser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store   *InMemory
	company *models.ClientCompany
	other   *models.ClientCompany
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	firm := id.ConsultancyID(uuid.New())
	var err error
	s.company, err = models.NewClientCompany(id.ClientCompanyID(uuid.New()), firm, models.ClientCompanyDetails{LegalName: "Acme"}, time.Now())
	s.Require().NoError(err)
	s.other, err = models.NewClientCompany(id.ClientCompanyID(uuid.New()), firm, models.ClientCompanyDetails{LegalName: "Globex"}, time.Now())
	s.Require().NoError(err)
}

func (s *InMemoryStoreSuite) newUser(company *models.ClientCompany, name, email string) *models.CompanyUser {
	u, err := models.NewCompanyUser(id.CompanyUserID(uuid.New()), company, name, email, models.CompanyRoleViewer, time.Now())
	s.Require().NoError(err)
	return u
}

func (s *InMemoryStoreSuite) TestEmailUniquePerCompany() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newUser(s.company, "Ana", "ana@acme.test")))

	err := s.store.Create(ctx, s.newUser(s.company, "Ana Two", "ANA@acme.test"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	s.NoError(s.store.Create(ctx, s.newUser(s.other, "Ana", "ana@acme.test")))
}

func (s *InMemoryStoreSuite) TestSubjectUniqueAcrossCompanies() {
	ctx := context.Background()
	first := s.newUser(s.company, "Ana", "ana@acme.test")
	s.Require().NoError(first.LinkSubject("idp|ana", time.Now()))
	s.Require().NoError(s.store.Create(ctx, first))

	second := s.newUser(s.other, "Bea", "bea@globex.test")
	s.Require().NoError(second.LinkSubject("idp|ana", time.Now()))
	s.ErrorIs(s.store.Create(ctx, second), sentinel.ErrAlreadyUsed)

	found, err := s.store.FindBySubject(ctx, "idp|ana")
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)

	_, err = s.store.FindBySubject(ctx, "")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListByClientCompanySorted() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newUser(s.company, "Zoe", "zoe@acme.test")))
	s.Require().NoError(s.store.Create(ctx, s.newUser(s.company, "Ana", "ana@acme.test")))
	s.Require().NoError(s.store.Create(ctx, s.newUser(s.other, "Bea", "bea@globex.test")))

	users, err := s.store.ListByClientCompany(ctx, s.company.ID)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("Ana", users[0].Name)
	s.Equal("Zoe", users[1].Name)
}

func (s *InMemoryStoreSuite) TestUpdateRolledBackWithTx() {
	u := s.newUser(s.company, "Ana", "ana@acme.test")
	s.Require().NoError(s.store.Create(context.Background(), u))

	err := tx.NewInMemory().RunInTx(context.Background(), func(ctx context.Context) error {
		changed := *u
		s.Require().NoError(changed.Deactivate(time.Now()))
		s.Require().NoError(s.store.Update(ctx, &changed))
		return errors.New("audit failed")
	})
	s.Require().Error(err)

	found, err := s.store.FindByID(context.Background(), u.ID)
	s.Require().NoError(err)
	s.True(found.Active)
}
