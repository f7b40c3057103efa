package clientcompany

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

// PostgresStore persists client companies in PostgreSQL. Row-level security
// hides companies outside the transaction's tenant scope; queries also filter
// by consultancy explicitly.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type companyRow struct {
	ID            uuid.UUID      `db:"id"`
	ConsultancyID uuid.UUID      `db:"consultancy_id"`
	LegalName     string         `db:"legal_name"`
	TradeName     sql.NullString `db:"trade_name"`
	ContactEmail  sql.NullString `db:"contact_email"`
	ContactPhone  sql.NullString `db:"contact_phone"`
	Sector        sql.NullString `db:"sector"`
	SizeBucket    sql.NullString `db:"size_bucket"`
	Status        string         `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r companyRow) toModel() *models.ClientCompany {
	return &models.ClientCompany{
		ID:            id.ClientCompanyID(r.ID),
		ConsultancyID: id.ConsultancyID(r.ConsultancyID),
		LegalName:     r.LegalName,
		TradeName:     r.TradeName.String,
		ContactEmail:  r.ContactEmail.String,
		ContactPhone:  r.ContactPhone.String,
		Sector:        r.Sector.String,
		SizeBucket:    models.SizeBucket(r.SizeBucket.String),
		Status:        models.ClientCompanyStatus(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

const selectCompany = `SELECT id, consultancy_id, legal_name, trade_name, contact_email, contact_phone,
	sector, size_bucket, status, created_at, updated_at FROM client_companies`

func (s *PostgresStore) Create(ctx context.Context, c *models.ClientCompany) error {
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO client_companies (
			id, consultancy_id, legal_name, trade_name, contact_email, contact_phone,
			sector, size_bucket, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(c.ID), uuid.UUID(c.ConsultancyID), c.LegalName,
		nullString(c.TradeName), nullString(c.ContactEmail), nullString(c.ContactPhone),
		nullString(c.Sector), nullString(string(c.SizeBucket)), string(c.Status),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return fmt.Errorf("client company exists: %w", sentinel.ErrAlreadyUsed)
		case database.IsForeignKeyViolation(err):
			return fmt.Errorf("consultancy missing: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("create client company: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *models.ClientCompany) error {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE client_companies
		SET legal_name = $3, trade_name = $4, contact_email = $5, contact_phone = $6,
			sector = $7, size_bucket = $8, status = $9, updated_at = $10
		WHERE id = $1 AND consultancy_id = $2`,
		uuid.UUID(c.ID), uuid.UUID(c.ConsultancyID), c.LegalName,
		nullString(c.TradeName), nullString(c.ContactEmail), nullString(c.ContactPhone),
		nullString(c.Sector), nullString(string(c.SizeBucket)), string(c.Status), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update client company: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client company rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, companyID id.ClientCompanyID) (*models.ClientCompany, error) {
	var row companyRow
	err := database.Conn(ctx, s.db).GetContext(ctx, &row, selectCompany+` WHERE id = $1`, uuid.UUID(companyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find client company: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ListByConsultancy(ctx context.Context, consultancyID id.ConsultancyID, filter models.ClientCompanyFilter) ([]*models.ClientCompany, error) {
	query := selectCompany + ` WHERE consultancy_id = $1`
	args := []any{uuid.UUID(consultancyID)}
	if filter.Status != "" {
		query += ` AND status = $2`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY legal_name`

	var rows []companyRow
	if err := database.Conn(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list client companies: %w", err)
	}
	out := make([]*models.ClientCompany, 0, len(rows))
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
