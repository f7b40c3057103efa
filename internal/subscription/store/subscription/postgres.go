package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"consulthub/internal/platform/database"
	"consulthub/internal/subscription/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

// PostgresStore persists subscriptions in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type subscriptionRow struct {
	ID                  uuid.UUID       `db:"id"`
	ConsultancyID       uuid.UUID       `db:"consultancy_id"`
	PlanID              uuid.UUID       `db:"plan_id"`
	Status              string          `db:"status"`
	BillingCycle        string          `db:"billing_cycle"`
	StartedAt           time.Time       `db:"started_at"`
	NextBillingAt       time.Time       `db:"next_billing_at"`
	RefundEligibleUntil time.Time       `db:"refund_eligible_until"`
	TotalCharge         decimal.Decimal `db:"total_charge"`
	SuspensionReason    sql.NullString  `db:"suspension_reason"`
	UpdatedAt           time.Time       `db:"updated_at"`
}

func (r subscriptionRow) toModel() *models.Subscription {
	return &models.Subscription{
		ID:                  id.SubscriptionID(r.ID),
		ConsultancyID:       id.ConsultancyID(r.ConsultancyID),
		PlanID:              id.PlanID(r.PlanID),
		Status:              models.Status(r.Status),
		BillingCycle:        models.BillingCycle(r.BillingCycle),
		StartedAt:           r.StartedAt,
		NextBillingAt:       r.NextBillingAt,
		RefundEligibleUntil: r.RefundEligibleUntil,
		TotalCharge:         r.TotalCharge,
		SuspensionReason:    r.SuspensionReason.String,
		UpdatedAt:           r.UpdatedAt,
	}
}

func (s *PostgresStore) FindByConsultancy(ctx context.Context, consultancyID id.ConsultancyID) (*models.Subscription, error) {
	var row subscriptionRow
	err := database.Conn(ctx, s.db).GetContext(ctx, &row, `
		SELECT id, consultancy_id, plan_id, status, billing_cycle, started_at, next_billing_at,
		       refund_eligible_until, total_charge, suspension_reason, updated_at
		FROM subscriptions
		WHERE consultancy_id = $1`, uuid.UUID(consultancyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return row.toModel(), nil
}

// Save upserts on consultancy_id. A new subscription instance replaces the
// id of the existing row.
func (s *PostgresStore) Save(ctx context.Context, sub *models.Subscription) error {
	var reason sql.NullString
	if sub.SuspensionReason != "" {
		reason = sql.NullString{String: sub.SuspensionReason, Valid: true}
	}
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO subscriptions (id, consultancy_id, plan_id, status, billing_cycle, started_at,
		                           next_billing_at, refund_eligible_until, total_charge, suspension_reason, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (consultancy_id) DO UPDATE SET
			id = EXCLUDED.id,
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			billing_cycle = EXCLUDED.billing_cycle,
			started_at = EXCLUDED.started_at,
			next_billing_at = EXCLUDED.next_billing_at,
			refund_eligible_until = EXCLUDED.refund_eligible_until,
			total_charge = EXCLUDED.total_charge,
			suspension_reason = EXCLUDED.suspension_reason,
			updated_at = EXCLUDED.updated_at`,
		uuid.UUID(sub.ID), uuid.UUID(sub.ConsultancyID), uuid.UUID(sub.PlanID), string(sub.Status),
		string(sub.BillingCycle), sub.StartedAt, sub.NextBillingAt, sub.RefundEligibleUntil,
		sub.TotalCharge, reason, sub.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("subscription references missing row: %w", sentinel.ErrInvalidState)
		}
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}
