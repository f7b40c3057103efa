package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"consulthub/internal/identity/models"
	impmodels "consulthub/internal/impersonation/models"
	"consulthub/internal/platform/database"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

// PostgresStore persists impersonation sessions in PostgreSQL. The table is
// visible at platform scope only.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type sessionRow struct {
	ID              uuid.UUID     `db:"id"`
	OperatorID      uuid.UUID     `db:"operator_id"`
	OperatorSubject string        `db:"operator_subject"`
	OperatorName    string        `db:"operator_name"`
	OperatorEmail   string        `db:"operator_email"`
	TargetSubject   string        `db:"target_subject_id"`
	TargetType      string        `db:"target_type"`
	ConsultancyID   uuid.UUID     `db:"consultancy_id"`
	ClientCompanyID uuid.NullUUID `db:"client_company_id"`
	Justification   string        `db:"justification"`
	StartedAt       time.Time     `db:"started_at"`
	EndedAt         sql.NullTime  `db:"ended_at"`
}

func (r sessionRow) toModel() *impmodels.Session {
	s := &impmodels.Session{
		ID:              id.ImpersonationSessionID(r.ID),
		OperatorID:      id.ConsultancyUserID(r.OperatorID),
		OperatorSubject: id.SubjectID(r.OperatorSubject),
		OperatorName:    r.OperatorName,
		OperatorEmail:   r.OperatorEmail,
		TargetSubject:   id.SubjectID(r.TargetSubject),
		TargetType:      models.Kind(r.TargetType),
		ConsultancyID:   id.ConsultancyID(r.ConsultancyID),
		Justification:   r.Justification,
		StartedAt:       r.StartedAt,
	}
	if r.ClientCompanyID.Valid {
		s.ClientCompanyID = id.ClientCompanyID(r.ClientCompanyID.UUID)
	}
	if r.EndedAt.Valid {
		ended := r.EndedAt.Time
		s.EndedAt = &ended
	}
	return s
}

const selectSession = `
	SELECT id, operator_id, operator_subject, operator_name, operator_email, target_subject_id, target_type,
	       consultancy_id, client_company_id, justification, started_at, ended_at
	FROM impersonation_sessions`

func (s *PostgresStore) Create(ctx context.Context, session *impmodels.Session) error {
	var companyID uuid.NullUUID
	if !session.ClientCompanyID.IsNil() {
		companyID = uuid.NullUUID{UUID: uuid.UUID(session.ClientCompanyID), Valid: true}
	}
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO impersonation_sessions (id, operator_id, operator_subject, operator_name, operator_email,
		    target_subject_id, target_type, consultancy_id, client_company_id, justification, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(session.ID), uuid.UUID(session.OperatorID), string(session.OperatorSubject), session.OperatorName,
		session.OperatorEmail, string(session.TargetSubject), string(session.TargetType),
		uuid.UUID(session.ConsultancyID), companyID, session.Justification, session.StartedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("operator has an open session: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create impersonation session: %w", err)
	}
	return nil
}

// End sets ended_at once; an already ended row is left as it is.
func (s *PostgresStore) End(ctx context.Context, session *impmodels.Session) error {
	if session.EndedAt == nil {
		return fmt.Errorf("end impersonation session: %w", sentinel.ErrInvalidState)
	}
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE impersonation_sessions SET ended_at = $2 WHERE id = $1 AND ended_at IS NULL`,
		uuid.UUID(session.ID), *session.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("end impersonation session: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end impersonation session rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, sessionID id.ImpersonationSessionID) (*impmodels.Session, error) {
	return s.get(ctx, selectSession+` WHERE id = $1`, uuid.UUID(sessionID))
}

func (s *PostgresStore) FindOpenByOperator(ctx context.Context, operatorID id.ConsultancyUserID) (*impmodels.Session, error) {
	return s.get(ctx, selectSession+` WHERE operator_id = $1 AND ended_at IS NULL`, uuid.UUID(operatorID))
}

func (s *PostgresStore) get(ctx context.Context, query string, args ...any) (*impmodels.Session, error) {
	var row sessionRow
	if err := database.Conn(ctx, s.db).GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find impersonation session: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) List(ctx context.Context, filter impmodels.Filter) ([]*impmodels.Session, error) {
	var (
		where []string
		args  []any
	)
	if filter.OpenOnly {
		where = append(where, "ended_at IS NULL")
	}
	if !filter.OperatorID.IsNil() {
		args = append(args, uuid.UUID(filter.OperatorID))
		where = append(where, fmt.Sprintf("operator_id = $%d", len(args)))
	}
	query := selectSession
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []sessionRow
	if err := database.Conn(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list impersonation sessions: %w", err)
	}
	out := make([]*impmodels.Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
