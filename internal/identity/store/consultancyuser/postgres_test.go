package consultancyuser

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	"consulthub/internal/identity/models"
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

func (s *PostgresStoreSuite) TestFindBySubjectMapsSuperadmin() {
	userID := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "subject_id", "consultancy_id", "name", "email", "role", "created_at"}).
		AddRow(userID.String(), "idp|root", nil, "Root", "root@platform.io", "platform_superadmin", time.Now())
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM consultancy_users WHERE subject_id = $1")).
		WithArgs("idp|root").WillReturnRows(rows)

	u, err := s.store.FindBySubject(context.Background(), "idp|root")
	s.Require().NoError(err)
	s.Equal(id.ConsultancyUserID(userID), u.ID)
	s.True(u.ConsultancyID.IsNil())
	s.True(u.IsSuperadmin())
}

func (s *PostgresStoreSuite) TestFindBySubjectNotFound() {
	s.mock.ExpectQuery("FROM consultancy_users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.store.FindBySubject(context.Background(), "idp|missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCreateDuplicateSubject() {
	u, err := models.NewConsultant(id.ConsultancyUserID(uuid.New()), "idp|dup", id.ConsultancyID(uuid.New()), "Dup", "dup@firm.io", time.Now())
	s.Require().NoError(err)
	s.mock.ExpectExec("INSERT INTO consultancy_users").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = s.store.Create(context.Background(), u)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}
