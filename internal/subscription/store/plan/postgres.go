package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"consulthub/internal/platform/database"
	"consulthub/internal/subscription/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

// PostgresStore reads the plan catalog from PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type planRow struct {
	ID           uuid.UUID       `db:"id"`
	Code         string          `db:"code"`
	Name         string          `db:"name"`
	MonthlyPrice decimal.Decimal `db:"monthly_price"`
	AnnualPrice  decimal.Decimal `db:"annual_price"`
	Active       bool            `db:"active"`
}

func (r planRow) toModel() *models.Plan {
	return &models.Plan{
		ID:           id.PlanID(r.ID),
		Code:         r.Code,
		Name:         r.Name,
		MonthlyPrice: r.MonthlyPrice,
		AnnualPrice:  r.AnnualPrice,
		Active:       r.Active,
	}
}

const selectPlan = `SELECT id, code, name, monthly_price, annual_price, active FROM plans`

func (s *PostgresStore) FindByID(ctx context.Context, planID id.PlanID) (*models.Plan, error) {
	var row planRow
	err := database.Conn(ctx, s.db).GetContext(ctx, &row, selectPlan+` WHERE id = $1`, uuid.UUID(planID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*models.Plan, error) {
	var rows []planRow
	if err := database.Conn(ctx, s.db).SelectContext(ctx, &rows, selectPlan+` WHERE active ORDER BY monthly_price`); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out := make([]*models.Plan, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
