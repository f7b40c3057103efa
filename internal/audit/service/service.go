// Package service answers audit queries within the caller's tenant scope.
package service

import (
	"context"
	"io"
	"log/slog"

	"consulthub/internal/audit/export"
	auditmetrics "consulthub/internal/audit/metrics"
	"consulthub/internal/audit/models"
	identitymodels "consulthub/internal/identity/models"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/tx"
	"consulthub/pkg/requestcontext"
)

type Store interface {
	Query(ctx context.Context, filter models.Filter) ([]*models.Record, error)
}

type Service struct {
	store   Store
	tx      tx.Runner
	logger  *slog.Logger
	metrics *auditmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *auditmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, txRunner tx.Runner, opts ...Option) *Service {
	s := &Service{store: store, tx: txRunner, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns the audit records visible to the caller, newest first.
// A filter naming another tenant yields an empty result.
func (s *Service) Query(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	scoped, visible, err := scopeFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !visible {
		return []*models.Record{}, nil
	}
	scoped.Limit = clampLimit(scoped.Limit, models.MaxLimit)
	return s.query(ctx, scoped)
}

// Export writes the records of Query as an XLSX workbook, up to MaxExportRows.
func (s *Service) Export(ctx context.Context, filter models.Filter, w io.Writer) error {
	scoped, visible, err := scopeFilter(ctx, filter)
	if err != nil {
		return err
	}
	var records []*models.Record
	if visible {
		scoped.Offset = 0
		scoped.Limit = models.MaxExportRows
		if records, err = s.query(ctx, scoped); err != nil {
			return err
		}
	}
	if err := export.WriteXLSX(w, records); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to render audit export")
	}
	if s.metrics != nil {
		s.metrics.ObserveExport(len(records))
	}
	s.logger.InfoContext(ctx, "audit export generated",
		"rows", len(records),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func (s *Service) query(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	var records []*models.Record
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.store.Query(ctx, filter)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit records")
	}
	if records == nil {
		records = []*models.Record{}
	}
	return records, nil
}

// scopeFilter pins filter to the caller's tenant. visible is false when the
// filter asks for a tenant the caller cannot see.
func scopeFilter(ctx context.Context, filter models.Filter) (models.Filter, bool, error) {
	principal, ok := identitymodels.FromContext(ctx)
	if !ok {
		return filter, false, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, false, dErrors.NewValidation("invalid time range", map[string]string{"to": "must be after from"})
	}

	switch p := principal.(type) {
	case identitymodels.PlatformSuperadmin:
		return filter, true, nil
	case identitymodels.Consultant:
		if !filter.ConsultancyID.IsNil() && filter.ConsultancyID != p.ConsultancyID {
			return filter, false, nil
		}
		filter.ConsultancyID = p.ConsultancyID
		return filter, true, nil
	case identitymodels.CompanyUser:
		if !p.IsCompanyAdmin() {
			return filter, false, dErrors.New(dErrors.CodeForbidden, "audit log requires the company admin role")
		}
		if (!filter.ConsultancyID.IsNil() && filter.ConsultancyID != p.ConsultancyID) ||
			(!filter.ClientCompanyID.IsNil() && filter.ClientCompanyID != p.ClientCompanyID) {
			return filter, false, nil
		}
		filter.ConsultancyID = p.ConsultancyID
		filter.ClientCompanyID = p.ClientCompanyID
		return filter, true, nil
	}
	return filter, false, dErrors.New(dErrors.CodeForbidden, "audit log not available")
}

func clampLimit(limit, upper int) int {
	if limit <= 0 {
		return models.DefaultLimit
	}
	return min(limit, upper)
}
