package companyuser

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

// PostgresStore persists company users in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type userRow struct {
	ID              uuid.UUID      `db:"id"`
	SubjectID       sql.NullString `db:"subject_id"`
	ConsultancyID   uuid.UUID      `db:"consultancy_id"`
	ClientCompanyID uuid.UUID      `db:"client_company_id"`
	Name            string         `db:"name"`
	Email           string         `db:"email"`
	Role            string         `db:"role"`
	Active          bool           `db:"active"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r userRow) toModel() *models.CompanyUser {
	return &models.CompanyUser{
		ID:              id.CompanyUserID(r.ID),
		SubjectID:       id.SubjectID(r.SubjectID.String),
		ConsultancyID:   id.ConsultancyID(r.ConsultancyID),
		ClientCompanyID: id.ClientCompanyID(r.ClientCompanyID),
		Name:            r.Name,
		Email:           r.Email,
		Role:            models.CompanyRole(r.Role),
		Active:          r.Active,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

const selectUser = `SELECT id, subject_id, consultancy_id, client_company_id, name, email, role,
	active, created_at, updated_at FROM company_users`

func (s *PostgresStore) Create(ctx context.Context, u *models.CompanyUser) error {
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO company_users (
			id, subject_id, consultancy_id, client_company_id, name, email, role,
			active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(u.ID), subject(u.SubjectID), uuid.UUID(u.ConsultancyID), uuid.UUID(u.ClientCompanyID),
		u.Name, u.Email, string(u.Role), u.Active, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return fmt.Errorf("company user email or subject taken: %w", sentinel.ErrAlreadyUsed)
		case database.IsForeignKeyViolation(err):
			return fmt.Errorf("client company missing: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("create company user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, u *models.CompanyUser) error {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE company_users
		SET subject_id = $3, name = $4, email = $5, role = $6, active = $7, updated_at = $8
		WHERE id = $1 AND client_company_id = $2`,
		uuid.UUID(u.ID), uuid.UUID(u.ClientCompanyID), subject(u.SubjectID),
		u.Name, u.Email, string(u.Role), u.Active, u.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("company user email or subject taken: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("update company user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update company user rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.CompanyUserID) (*models.CompanyUser, error) {
	return s.findOne(ctx, selectUser+` WHERE id = $1`, uuid.UUID(userID))
}

func (s *PostgresStore) FindBySubject(ctx context.Context, subjectID id.SubjectID) (*models.CompanyUser, error) {
	if subjectID.IsNil() {
		return nil, sentinel.ErrNotFound
	}
	return s.findOne(ctx, selectUser+` WHERE subject_id = $1`, string(subjectID))
}

func (s *PostgresStore) ListByClientCompany(ctx context.Context, companyID id.ClientCompanyID) ([]*models.CompanyUser, error) {
	var rows []userRow
	err := database.Conn(ctx, s.db).SelectContext(ctx, &rows,
		selectUser+` WHERE client_company_id = $1 ORDER BY name`, uuid.UUID(companyID))
	if err != nil {
		return nil, fmt.Errorf("list company users: %w", err)
	}
	out := make([]*models.CompanyUser, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.CompanyUser, error) {
	var row userRow
	if err := database.Conn(ctx, s.db).GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find company user: %w", err)
	}
	return row.toModel(), nil
}

func subject(s id.SubjectID) sql.NullString {
	if s.IsNil() {
		return sql.NullString{}
	}
	return sql.NullString{String: string(s), Valid: true}
}
