package consultancyuser

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"consulthub/internal/identity/models"
	"consulthub/internal/platform/database"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

// PostgresStore persists consultancy users in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type userRow struct {
	ID            uuid.UUID     `db:"id"`
	SubjectID     string        `db:"subject_id"`
	ConsultancyID uuid.NullUUID `db:"consultancy_id"`
	Name          string        `db:"name"`
	Email         string        `db:"email"`
	Role          string        `db:"role"`
	CreatedAt     time.Time     `db:"created_at"`
}

func (r userRow) toModel() *models.ConsultancyUser {
	u := &models.ConsultancyUser{
		ID:        id.ConsultancyUserID(r.ID),
		SubjectID: id.SubjectID(r.SubjectID),
		Name:      r.Name,
		Email:     r.Email,
		Role:      models.ConsultancyRole(r.Role),
		CreatedAt: r.CreatedAt,
	}
	if r.ConsultancyID.Valid {
		u.ConsultancyID = id.ConsultancyID(r.ConsultancyID.UUID)
	}
	return u
}

const selectUser = `SELECT id, subject_id, consultancy_id, name, email, role, created_at FROM consultancy_users`

func (s *PostgresStore) Create(ctx context.Context, user *models.ConsultancyUser) error {
	var consultancyID uuid.NullUUID
	if !user.ConsultancyID.IsNil() {
		consultancyID = uuid.NullUUID{UUID: uuid.UUID(user.ConsultancyID), Valid: true}
	}
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO consultancy_users (id, subject_id, consultancy_id, name, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(user.ID), user.SubjectID.String(), consultancyID,
		user.Name, user.Email, string(user.Role), user.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("consultancy user subject taken: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create consultancy user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.ConsultancyUserID) (*models.ConsultancyUser, error) {
	return s.findOne(ctx, selectUser+` WHERE id = $1`, uuid.UUID(userID))
}

func (s *PostgresStore) FindBySubject(ctx context.Context, subject id.SubjectID) (*models.ConsultancyUser, error) {
	return s.findOne(ctx, selectUser+` WHERE subject_id = $1`, subject.String())
}

func (s *PostgresStore) ListByConsultancy(ctx context.Context, consultancyID id.ConsultancyID) ([]*models.ConsultancyUser, error) {
	var rows []userRow
	if err := database.Conn(ctx, s.db).SelectContext(ctx, &rows,
		selectUser+` WHERE consultancy_id = $1 ORDER BY name`, uuid.UUID(consultancyID)); err != nil {
		return nil, fmt.Errorf("list consultancy users: %w", err)
	}
	out := make([]*models.ConsultancyUser, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.ConsultancyUser, error) {
	var row userRow
	if err := database.Conn(ctx, s.db).GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find consultancy user: %w", err)
	}
	return row.toModel(), nil
}

func sortByName(users []*models.ConsultancyUser) {
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
}
