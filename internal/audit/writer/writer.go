// Package writer records governed mutations as append-only audit records,
// inside the same transaction as the mutation.
package writer

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"strings"

	"github.com/oklog/ulid/v2"

	auditmetrics "consulthub/internal/audit/metrics"
	"consulthub/internal/audit/models"
	"consulthub/internal/audit/outbox"
	identitymodels "consulthub/internal/identity/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/privacy"
	"consulthub/pkg/requestcontext"
)

// Store appends audit records. Records are never updated or deleted.
type Store interface {
	Append(ctx context.Context, record *models.Record) error
}

// OutboxAppender receives a copy of each record for relay.
type OutboxAppender interface {
	Append(ctx context.Context, entry *outbox.Entry) error
}

// Entry describes one governed mutation.
type Entry struct {
	Action   models.Action
	Entity   string
	RecordID string
	// Tenant scope of the mutated row.
	ConsultancyID   id.ConsultancyID
	ClientCompanyID id.ClientCompanyID
	// Global marks platform-level entities (plans, operator accounts) that
	// carry no tenant scope.
	Global      bool
	Before      any
	After       any
	Description string
}

type Writer struct {
	store   Store
	outbox  OutboxAppender
	logger  *slog.Logger
	metrics *auditmetrics.Metrics
}

type Option func(*Writer)

func WithOutbox(o OutboxAppender) Option {
	return func(w *Writer) {
		w.outbox = o
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

func WithMetrics(m *auditmetrics.Metrics) Option {
	return func(w *Writer) {
		w.metrics = m
	}
}

func New(store Store, opts ...Option) *Writer {
	w := &Writer{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Record writes the audit record for e through the transaction in ctx.
// It returns nil, nil when an UPDATE changed nothing. Any persistence
// failure is returned as AuditWriteFailure so the caller's transaction
// rolls back.
func (w *Writer) Record(ctx context.Context, e Entry) (*models.Record, error) {
	if err := validateShape(e); err != nil {
		return nil, err
	}
	principal, hasPrincipal := identitymodels.FromContext(ctx)
	if err := w.checkScope(ctx, e, principal, hasPrincipal); err != nil {
		return nil, err
	}

	before, beforeFields, err := snapshot(e.Before)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "invalid audit snapshot")
	}
	after, afterFields, err := snapshot(e.After)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "invalid audit snapshot")
	}

	var changed []string
	switch e.Action {
	case models.ActionUpdate:
		changed = changedFields(beforeFields, afterFields)
		if len(changed) == 0 {
			if w.metrics != nil {
				w.metrics.IncNoOpSuppressed()
			}
			return nil, nil
		}
	case models.ActionInsert:
		changed = changedFields(nil, afterFields)
	case models.ActionDelete:
		changed = changedFields(beforeFields, nil)
	}

	now := requestcontext.Now(ctx)
	record := &models.Record{
		ID:              ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Action:          e.Action,
		Entity:          e.Entity,
		RecordID:        e.RecordID,
		Actor:           identitymodels.SystemActor,
		ConsultancyID:   e.ConsultancyID,
		ClientCompanyID: e.ClientCompanyID,
		Before:          before,
		After:           after,
		ChangedFields:   changed,
		Description:     strings.TrimSpace(e.Description),
		RequestID:       requestcontext.RequestID(ctx),
		ClientIP:        anonymizedIP(ctx),
		UserAgent:       privacy.SummarizeUserAgent(requestcontext.UserAgent(ctx)),
		OccurredAt:      now,
	}
	if hasPrincipal {
		record.Actor = principal.Actor()
	}
	if imp, ok := identitymodels.ImpersonationFromContext(ctx); ok {
		record.Impersonator = &models.Impersonator{
			ID:        imp.Operator.UserID.String(),
			Name:      imp.Operator.Name,
			Email:     imp.Operator.Email,
			SessionID: imp.SessionID,
		}
	}

	if err := w.store.Append(ctx, record); err != nil {
		return nil, w.failure(ctx, record, err)
	}
	if w.outbox != nil {
		payload, err := json.Marshal(record)
		if err != nil {
			return nil, w.failure(ctx, record, err)
		}
		if err := w.outbox.Append(ctx, outbox.NewEntry(record.ID, outbox.EventRecorded, payload, now)); err != nil {
			return nil, w.failure(ctx, record, err)
		}
	}

	if w.metrics != nil {
		w.metrics.IncWritten(string(record.Action))
	}
	w.logger.InfoContext(ctx, record.Entity+"."+strings.ToLower(string(record.Action)),
		"log_type", "audit",
		"audit_id", record.ID,
		"record_id", record.RecordID,
		"actor_id", record.Actor.ID,
		"actor_type", record.Actor.Type,
		"consultancy_id", record.ConsultancyID,
		"changed_fields", record.ChangedFields,
		"impersonated", record.Impersonator != nil,
		"request_id", record.RequestID,
	)
	return record, nil
}

func validateShape(e Entry) error {
	fields := map[string]string{}
	if !e.Action.IsValid() {
		fields["action"] = "must be INSERT, UPDATE or DELETE"
	}
	if strings.TrimSpace(e.Entity) == "" {
		fields["entity"] = "is required"
	}
	if strings.TrimSpace(e.RecordID) == "" {
		fields["record_id"] = "is required"
	}
	hasBefore, hasAfter := present(e.Before), present(e.After)
	switch e.Action {
	case models.ActionInsert:
		if hasBefore || !hasAfter {
			fields["snapshot"] = "INSERT requires an after snapshot only"
		}
	case models.ActionDelete:
		if !hasBefore || hasAfter {
			fields["snapshot"] = "DELETE requires a before snapshot only"
		}
	case models.ActionUpdate:
		if !hasBefore || !hasAfter {
			fields["snapshot"] = "UPDATE requires before and after snapshots"
		}
	}
	if len(fields) > 0 {
		return dErrors.NewValidation("invalid audit entry", fields)
	}
	return nil
}

// checkScope rejects entries without a tenant scope and entries whose scope
// lies outside the acting principal's tenant.
func (w *Writer) checkScope(ctx context.Context, e Entry, principal identitymodels.Principal, hasPrincipal bool) error {
	if e.ConsultancyID.IsNil() {
		if e.Global && e.ClientCompanyID.IsNil() {
			return nil
		}
		w.rejectScope(ctx, e, "missing consultancy scope")
		return dErrors.NewValidation("audit entry requires a tenant scope",
			map[string]string{"consultancy_id": "is required"})
	}
	if !hasPrincipal {
		return nil
	}
	switch p := principal.(type) {
	case identitymodels.Consultant:
		if p.ConsultancyID != e.ConsultancyID {
			w.rejectScope(ctx, e, "consultancy outside principal scope")
			return dErrors.New(dErrors.CodeTenantMismatch, "audit scope does not match the acting consultancy")
		}
	case identitymodels.CompanyUser:
		if p.ConsultancyID != e.ConsultancyID || p.ClientCompanyID != e.ClientCompanyID {
			w.rejectScope(ctx, e, "company outside principal scope")
			return dErrors.New(dErrors.CodeTenantMismatch, "audit scope does not match the acting company")
		}
	}
	return nil
}

func (w *Writer) rejectScope(ctx context.Context, e Entry, reason string) {
	if w.metrics != nil {
		w.metrics.IncScopeRejections()
	}
	w.logger.WarnContext(ctx, "audit entry rejected",
		"reason", reason,
		"entity", e.Entity,
		"record_id", e.RecordID,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (w *Writer) failure(ctx context.Context, record *models.Record, err error) error {
	if w.metrics != nil {
		w.metrics.IncWriteFailures()
	}
	w.logger.ErrorContext(ctx, "audit write failed",
		"error", err,
		"entity", record.Entity,
		"record_id", record.RecordID,
		"request_id", record.RequestID,
	)
	// Store errors may already carry a code; the failure must still abort as an audit failure.
	return &dErrors.Error{Code: dErrors.CodeAuditWriteFailure, Message: "failed to write audit record", Err: err}
}

func present(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() != reflect.Pointer || !rv.IsNil()
}

func anonymizedIP(ctx context.Context) string {
	ip := requestcontext.ClientIP(ctx)
	if ip == "" {
		return ""
	}
	return privacy.AnonymizeIP(ip)
}
