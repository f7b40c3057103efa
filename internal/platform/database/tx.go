package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	dErrors "consulthub/pkg/domain-errors"
	txcontext "consulthub/pkg/platform/tx"
	"consulthub/pkg/requestcontext"
)

// applyScopeSQL sets the transaction-local settings read by the row-level
// security policies. set_config(..., true) scopes them to the transaction.
const applyScopeSQL = `SELECT set_config('app.consultancy_id', $1, true),
	set_config('app.client_company_id', $2, true),
	set_config('app.platform', $3, true)`

// TxManager runs functions in a PostgreSQL transaction bound to the tenant
// scope of the request.
type TxManager struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTxManager builds a TxManager. A zero timeout uses txcontext.DefaultTimeout.
func NewTxManager(db *sqlx.DB, timeout time.Duration) *TxManager {
	return &TxManager{db: db, timeout: timeout}
}

// RunInTx begins a transaction, applies the tenant scope from ctx, runs fn
// and commits. Any error from fn rolls the whole transaction back. Calls made
// while a transaction is already in ctx join it.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}

	timeout := m.timeout
	if timeout == 0 {
		timeout = txcontext.DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	if err := applyScope(ctx, tx, requestcontext.Scope(ctx)); err != nil {
		return err
	}

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// applyScope writes the scope settings. An empty scope leaves every setting
// blank, which the policies treat as "no tenant visible".
func applyScope(ctx context.Context, tx *sqlx.Tx, scope requestcontext.TenantScope) error {
	var consultancy, company, platform string
	if !scope.ConsultancyID.IsNil() {
		consultancy = scope.ConsultancyID.String()
	}
	if !scope.ClientCompanyID.IsNil() {
		company = scope.ClientCompanyID.String()
	}
	if scope.Platform {
		platform = "on"
	}
	if _, err := tx.ExecContext(ctx, applyScopeSQL, consultancy, company, platform); err != nil {
		return fmt.Errorf("apply tenant scope: %w", err)
	}
	return nil
}
