//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"consulthub/migrations"
	id "consulthub/pkg/domain"
)

const (
	appRole     = "consulthub_app"
	appPassword = "consulthub_app_password"
)

// PostgresContainer wraps a testcontainers Postgres instance.
//
// DB connects as the container superuser, which bypasses row-level security,
// and is meant for seeding and assertions. AppDB connects as an unprivileged
// role, the way the service does in production, so policies apply to it.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
	AppDB     *sqlx.DB
}

// NewPostgresContainer starts a new Postgres container with migrations applied.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("consulthub_test"),
		postgres.WithUsername("consulthub"),
		postgres.WithPassword("consulthub_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	if err := migrations.Up(db); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	appDB, err := openAppRole(ctx, db, dsn)
	if err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to prepare application role: %v", err)
	}

	// The container is shared across suites; Ryuk removes it when the test
	// process exits.
	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
		AppDB:     appDB,
	}
}

func openAppRole(ctx context.Context, db *sql.DB, dsn string) (*sqlx.DB, error) {
	stmts := []string{
		fmt.Sprintf("CREATE ROLE %s LOGIN PASSWORD '%s' NOSUPERUSER NOBYPASSRLS", appRole, appPassword),
		fmt.Sprintf("GRANT USAGE ON SCHEMA public TO %s", appRole),
		fmt.Sprintf("GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO %s", appRole),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%s: %w", stmt, err)
		}
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	u.User = url.UserPassword(appRole, appPassword)
	return sqlx.ConnectContext(ctx, "pgx", u.String())
}

// TruncateTables clears all data from the specified tables.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// TruncateModuleTables truncates every tenant-owned table. Seeded plans are kept.
func (p *PostgresContainer) TruncateModuleTables(ctx context.Context) error {
	return p.TruncateTables(ctx,
		"audit_outbox",
		"audit_records",
		"impersonation_sessions",
		"payments",
		"subscriptions",
		"company_users",
		"consultancy_users",
		"client_companies",
		"consultancies",
	)
}

// Exec runs a SQL statement as the superuser.
func (p *PostgresContainer) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.DB.ExecContext(ctx, query, args...)
}

// QueryRow runs a SQL query expected to return a single row as the superuser.
func (p *PostgresContainer) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.DB.QueryRowContext(ctx, query, args...)
}

// CreateTestConsultancy inserts an active consultancy and returns its ID.
func (p *PostgresContainer) CreateTestConsultancy(ctx context.Context, t testing.TB) id.ConsultancyID {
	t.Helper()
	consultancyID := id.ConsultancyID(uuid.New())
	_, err := p.Exec(ctx, `
		INSERT INTO consultancies (id, name, status, created_at, updated_at)
		VALUES ($1, $2, 'active', NOW(), NOW())
	`, uuid.UUID(consultancyID), "Test Consultancy "+uuid.NewString())
	if err != nil {
		t.Fatalf("CreateTestConsultancy: %v", err)
	}
	return consultancyID
}

// CreateTestClientCompany inserts an active client company under consultancyID.
func (p *PostgresContainer) CreateTestClientCompany(ctx context.Context, t testing.TB, consultancyID id.ConsultancyID) id.ClientCompanyID {
	t.Helper()
	companyID := id.ClientCompanyID(uuid.New())
	_, err := p.Exec(ctx, `
		INSERT INTO client_companies (id, consultancy_id, legal_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'active', NOW(), NOW())
	`, uuid.UUID(companyID), uuid.UUID(consultancyID), "Test Company "+uuid.NewString())
	if err != nil {
		t.Fatalf("CreateTestClientCompany: %v", err)
	}
	return companyID
}
