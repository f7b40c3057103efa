package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"consulthub/internal/audit/models"
	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/platform/database"
	id "consulthub/pkg/domain"
)

// PostgresStore persists audit records. The application role holds no
// UPDATE or DELETE privilege on audit_records.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type recordRow struct {
	ID                     string         `db:"id"`
	Action                 string         `db:"action"`
	Entity                 string         `db:"entity"`
	RecordID               string         `db:"record_id"`
	ActorID                string         `db:"actor_id"`
	ActorType              string         `db:"actor_type"`
	ActorName              string         `db:"actor_name"`
	ActorEmail             string         `db:"actor_email"`
	ImpersonatorID         sql.NullString `db:"impersonator_id"`
	ImpersonatorName       sql.NullString `db:"impersonator_name"`
	ImpersonatorEmail      sql.NullString `db:"impersonator_email"`
	ImpersonationSessionID uuid.NullUUID  `db:"impersonation_session_id"`
	ConsultancyID          uuid.NullUUID  `db:"consultancy_id"`
	ClientCompanyID        uuid.NullUUID  `db:"client_company_id"`
	Before                 []byte         `db:"before_snapshot"`
	After                  []byte         `db:"after_snapshot"`
	ChangedFields          []byte         `db:"changed_fields"`
	Description            string         `db:"description"`
	RequestID              string         `db:"request_id"`
	ClientIP               string         `db:"client_ip"`
	UserAgent              string         `db:"user_agent"`
	OccurredAt             time.Time      `db:"occurred_at"`
}

func (r recordRow) toModel() (*models.Record, error) {
	rec := &models.Record{
		ID:       r.ID,
		Action:   models.Action(r.Action),
		Entity:   r.Entity,
		RecordID: r.RecordID,
		Actor: identitymodels.Actor{
			ID:    r.ActorID,
			Type:  identitymodels.Kind(r.ActorType),
			Name:  r.ActorName,
			Email: r.ActorEmail,
		},
		Before:      r.Before,
		After:       r.After,
		Description: r.Description,
		RequestID:   r.RequestID,
		ClientIP:    r.ClientIP,
		UserAgent:   r.UserAgent,
		OccurredAt:  r.OccurredAt,
	}
	if r.ConsultancyID.Valid {
		rec.ConsultancyID = id.ConsultancyID(r.ConsultancyID.UUID)
	}
	if r.ClientCompanyID.Valid {
		rec.ClientCompanyID = id.ClientCompanyID(r.ClientCompanyID.UUID)
	}
	if r.ImpersonatorID.Valid {
		rec.Impersonator = &models.Impersonator{
			ID:        r.ImpersonatorID.String,
			Name:      r.ImpersonatorName.String,
			Email:     r.ImpersonatorEmail.String,
			SessionID: id.ImpersonationSessionID(r.ImpersonationSessionID.UUID),
		}
	}
	if len(r.ChangedFields) > 0 {
		if err := json.Unmarshal(r.ChangedFields, &rec.ChangedFields); err != nil {
			return nil, fmt.Errorf("decode changed fields: %w", err)
		}
	}
	return rec, nil
}

// Append inserts a record through the transaction carried by ctx.
func (s *PostgresStore) Append(ctx context.Context, rec *models.Record) error {
	changed, err := json.Marshal(nonNil(rec.ChangedFields))
	if err != nil {
		return fmt.Errorf("encode changed fields: %w", err)
	}
	var impID, impName, impEmail sql.NullString
	var impSession uuid.NullUUID
	if rec.Impersonator != nil {
		impID = sql.NullString{String: rec.Impersonator.ID, Valid: true}
		impName = sql.NullString{String: rec.Impersonator.Name, Valid: true}
		impEmail = sql.NullString{String: rec.Impersonator.Email, Valid: true}
		impSession = uuid.NullUUID{UUID: uuid.UUID(rec.Impersonator.SessionID), Valid: true}
	}

	_, err = database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_records (
			id, action, entity, record_id,
			actor_id, actor_type, actor_name, actor_email,
			impersonator_id, impersonator_name, impersonator_email, impersonation_session_id,
			consultancy_id, client_company_id,
			before_snapshot, after_snapshot, changed_fields,
			description, request_id, client_ip, user_agent, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		rec.ID, string(rec.Action), rec.Entity, rec.RecordID,
		rec.Actor.ID, string(rec.Actor.Type), rec.Actor.Name, rec.Actor.Email,
		impID, impName, impEmail, impSession,
		nullUUID(uuid.UUID(rec.ConsultancyID)), nullUUID(uuid.UUID(rec.ClientCompanyID)),
		nullJSON(rec.Before), nullJSON(rec.After), changed,
		rec.Description, rec.RequestID, rec.ClientIP, rec.UserAgent, rec.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

const selectRecord = `SELECT id, action, entity, record_id, actor_id, actor_type, actor_name, actor_email,
	impersonator_id, impersonator_name, impersonator_email, impersonation_session_id,
	consultancy_id, client_company_id, before_snapshot, after_snapshot, changed_fields,
	description, request_id, client_ip, user_agent, occurred_at
	FROM audit_records`

// Query returns matching records newest first.
func (s *PostgresStore) Query(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	query, args := buildQuery(filter)
	var rows []recordRow
	if err := database.Conn(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	out := make([]*models.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func buildQuery(filter models.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !filter.ConsultancyID.IsNil() {
		add("consultancy_id = $%d", uuid.UUID(filter.ConsultancyID))
	}
	if !filter.ClientCompanyID.IsNil() {
		add("client_company_id = $%d", uuid.UUID(filter.ClientCompanyID))
	}
	if !filter.From.IsZero() {
		add("occurred_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("occurred_at < $%d", filter.To)
	}
	if text := strings.TrimSpace(filter.Text); text != "" {
		args = append(args, "%"+escapeLike(text)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(actor_name ILIKE $%[1]d OR actor_email ILIKE $%[1]d OR entity ILIKE $%[1]d OR description ILIKE $%[1]d)", n))
	}

	query := selectRecord
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY occurred_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func nonNil(fields []string) []string {
	if fields == nil {
		return []string{}
	}
	return fields
}
