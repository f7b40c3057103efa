package payment

import (
	"context"
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

// PostgresStore persists payments in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type paymentRow struct {
	ID             uuid.UUID       `db:"id"`
	ConsultancyID  uuid.UUID       `db:"consultancy_id"`
	SubscriptionID uuid.UUID       `db:"subscription_id"`
	Amount         decimal.Decimal `db:"amount"`
	Status         string          `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Payment) error {
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO payments (id, consultancy_id, subscription_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(p.ID), uuid.UUID(p.ConsultancyID), uuid.UUID(p.SubscriptionID), p.Amount, string(p.Status), p.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("payment exists: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByConsultancy(ctx context.Context, consultancyID id.ConsultancyID) ([]*models.Payment, error) {
	var rows []paymentRow
	err := database.Conn(ctx, s.db).SelectContext(ctx, &rows, `
		SELECT id, consultancy_id, subscription_id, amount, status, created_at
		FROM payments
		WHERE consultancy_id = $1
		ORDER BY created_at DESC`, uuid.UUID(consultancyID))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]*models.Payment, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.Payment{
			ID:             id.PaymentID(r.ID),
			ConsultancyID:  id.ConsultancyID(r.ConsultancyID),
			SubscriptionID: id.SubscriptionID(r.SubscriptionID),
			Amount:         r.Amount,
			Status:         models.PaymentStatus(r.Status),
			CreatedAt:      r.CreatedAt,
		})
	}
	return out, nil
}
