package clientcompany

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	"consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

type PostgresStoreSuite struct {
	suite.Suite
	mock  sqlmock.Sqlmock
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.mock = mock
	s.store = NewPostgres(sqlx.NewDb(db, "sqlmock"))
}

func (s *PostgresStoreSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

var companyColumns = []string{"id", "consultancy_id", "legal_name", "trade_name", "contact_email",
	"contact_phone", "sector", "size_bucket", "status", "created_at", "updated_at"}

func (s *PostgresStoreSuite) TestListFiltersByConsultancyAndStatus() {
	firm := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(companyColumns).
		AddRow(uuid.NewString(), firm.String(), "Acme", "ACME", nil, nil, "retail", "small", "active", now, now)
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE consultancy_id = $1 AND status = $2 ORDER BY legal_name")).
		WithArgs(firm, "active").
		WillReturnRows(rows)

	companies, err := s.store.ListByConsultancy(context.Background(), id.ConsultancyID(firm),
		models.ClientCompanyFilter{Status: models.ClientCompanyStatusActive})
	s.Require().NoError(err)
	s.Require().Len(companies, 1)
	s.Equal("ACME", companies[0].TradeName)
	s.Equal(models.SizeSmall, companies[0].SizeBucket)
	s.Empty(companies[0].ContactEmail)
}

func (s *PostgresStoreSuite) TestUpdateScopedToOwner() {
	c, err := models.NewClientCompany(id.ClientCompanyID(uuid.New()), id.ConsultancyID(uuid.New()),
		models.ClientCompanyDetails{LegalName: "Acme"}, time.Now())
	s.Require().NoError(err)
	s.mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND consultancy_id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = s.store.Update(context.Background(), c)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
