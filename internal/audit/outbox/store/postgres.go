package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"consulthub/internal/audit/outbox"
	"consulthub/internal/platform/database"
)

// Postgres implements outbox.Store on the audit_outbox table.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

type entryRow struct {
	ID          uuid.UUID    `db:"id"`
	RecordID    string       `db:"record_id"`
	EventType   string       `db:"event_type"`
	Payload     []byte       `db:"payload"`
	CreatedAt   time.Time    `db:"created_at"`
	ProcessedAt sql.NullTime `db:"processed_at"`
}

func (r entryRow) toEntry() *outbox.Entry {
	e := &outbox.Entry{
		ID:        r.ID,
		RecordID:  r.RecordID,
		EventType: r.EventType,
		Payload:   r.Payload,
		CreatedAt: r.CreatedAt,
	}
	if r.ProcessedAt.Valid {
		e.ProcessedAt = &r.ProcessedAt.Time
	}
	return e
}

// Append inserts an entry through the transaction carried by ctx.
func (s *Postgres) Append(ctx context.Context, entry *outbox.Entry) error {
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_outbox (id, record_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.RecordID, entry.EventType, entry.Payload, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnprocessed uses FOR UPDATE SKIP LOCKED so concurrent relays do not
// block each other.
func (s *Postgres) FetchUnprocessed(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	const maxBatch = 1000
	if limit > maxBatch {
		limit = maxBatch
	}
	var rows []entryRow
	err := database.Conn(ctx, s.db).SelectContext(ctx, &rows, `
		SELECT id, record_id, event_type, payload, created_at, processed_at
		FROM audit_outbox
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unprocessed entries: %w", err)
	}
	entries := make([]*outbox.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toEntry())
	}
	return entries, nil
}

func (s *Postgres) MarkProcessed(ctx context.Context, entryID uuid.UUID, processedAt time.Time) error {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE audit_outbox SET processed_at = $2
		WHERE id = $1 AND processed_at IS NULL`, entryID, processedAt)
	if err != nil {
		return fmt.Errorf("mark outbox entry processed: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("outbox entry not found or already processed: %s", entryID)
	}
	return nil
}

func (s *Postgres) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := database.Conn(ctx, s.db).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM audit_outbox WHERE processed_at IS NULL`); err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

func (s *Postgres) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM audit_outbox WHERE processed_at IS NOT NULL AND processed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete processed entries: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rows, nil
}
