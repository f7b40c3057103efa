package subscription

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

	"consulthub/internal/subscription/models"
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

func (s *PostgresStoreSuite) TestFindByConsultancy() {
	firm := uuid.New()
	now := time.Now()
	columns := []string{"id", "consultancy_id", "plan_id", "status", "billing_cycle", "started_at",
		"next_billing_at", "refund_eligible_until", "total_charge", "suspension_reason", "updated_at"}
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM subscriptions")).
		WithArgs(firm).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			uuid.NewString(), firm.String(), uuid.NewString(), "suspended", "annual", now,
			now.AddDate(1, 0, 0), now.AddDate(0, 0, 7), "1290.00", "chargeback", now))

	sub, err := s.store.FindByConsultancy(context.Background(), id.ConsultancyID(firm))
	s.Require().NoError(err)
	s.Equal(models.StatusSuspended, sub.Status)
	s.Equal(models.CycleAnnual, sub.BillingCycle)
	s.Equal("chargeback", sub.SuspensionReason)
	s.Equal("1290", sub.TotalCharge.String())
}

func (s *PostgresStoreSuite) TestFindMissing() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM subscriptions")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.store.FindByConsultancy(context.Background(), id.ConsultancyID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSaveUpserts() {
	sub := &models.Subscription{
		ID:            id.SubscriptionID(uuid.New()),
		ConsultancyID: id.ConsultancyID(uuid.New()),
		PlanID:        id.PlanID(uuid.New()),
		Status:        models.StatusActive,
		BillingCycle:  models.CycleMonthly,
	}
	s.mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (consultancy_id) DO UPDATE SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.store.Save(context.Background(), sub))
}

func (s *PostgresStoreSuite) TestSaveMissingConsultancy() {
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subscriptions")).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := s.store.Save(context.Background(), &models.Subscription{ConsultancyID: id.ConsultancyID(uuid.New())})
	s.ErrorIs(err, sentinel.ErrInvalidState)
}
