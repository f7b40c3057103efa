package consultancy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"consulthub/internal/platform/database"
	"consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

// PostgresStore persists consultancies in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type consultancyRow struct {
	ID               uuid.UUID      `db:"id"`
	Name             string         `db:"name"`
	Status           string         `db:"status"`
	SuspensionReason sql.NullString `db:"suspension_reason"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r consultancyRow) toModel() *models.Consultancy {
	return &models.Consultancy{
		ID:               id.ConsultancyID(r.ID),
		Name:             r.Name,
		Status:           models.ConsultancyStatus(r.Status),
		SuspensionReason: r.SuspensionReason.String,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

const selectConsultancy = `SELECT id, name, status, suspension_reason, created_at, updated_at FROM consultancies`

func (s *PostgresStore) Create(ctx context.Context, c *models.Consultancy) error {
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO consultancies (id, name, status, suspension_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(c.ID), c.Name, string(c.Status), nullString(c.SuspensionReason), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("consultancy exists: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create consultancy: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *models.Consultancy) error {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE consultancies
		SET name = $2, status = $3, suspension_reason = $4, updated_at = $5
		WHERE id = $1`,
		uuid.UUID(c.ID), c.Name, string(c.Status), nullString(c.SuspensionReason), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update consultancy: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update consultancy rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, consultancyID id.ConsultancyID) (*models.Consultancy, error) {
	var row consultancyRow
	err := database.Conn(ctx, s.db).GetContext(ctx, &row, selectConsultancy+` WHERE id = $1`, uuid.UUID(consultancyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find consultancy: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Consultancy, error) {
	var rows []consultancyRow
	if err := database.Conn(ctx, s.db).SelectContext(ctx, &rows, selectConsultancy+` ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list consultancies: %w", err)
	}
	out := make([]*models.Consultancy, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
