package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"consulthub/internal/audit/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/requestcontext"
)

type Service interface {
	Query(ctx context.Context, filter models.Filter) ([]*models.Record, error)
	Export(ctx context.Context, filter models.Filter, w io.Writer) error
}

// WorkspaceCompany returns the client company selected in the caller's
// verified workspace.
type WorkspaceCompany func(ctx context.Context) (id.ClientCompanyID, bool)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit-records", h.HandleQuery)
	r.Get("/audit-records/export", h.HandleExport)
}

// RegisterWorkspace mounts the audit query narrowed to the workspace company.
func (h *Handler) RegisterWorkspace(r chi.Router, company WorkspaceCompany) {
	r.Get("/workspace/audit-records", func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := company(r.Context())
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeTenantMismatch, "no workspace selected"))
			return
		}
		h.query(w, r, func(f *models.Filter) { f.ClientCompanyID = companyID })
	})
}

// HandleQuery lists audit records newest first.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, nil)
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request, narrow func(*models.Filter)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if narrow != nil {
		narrow(&filter)
	}

	records, err := h.service.Query(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "query audit records failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RecordListResponse{Records: records, Count: len(records)})
}

// HandleExport streams the filtered records as an XLSX workbook.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Rendered to a buffer first so failures can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.service.Export(ctx, filter, &buf); err != nil {
		h.logger.ErrorContext(ctx, "export audit records failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-records.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func parseFilter(q url.Values) (models.Filter, error) {
	var (
		filter models.Filter
		fields = map[string]string{}
		err    error
	)
	if v := q.Get("consultancy_id"); v != "" {
		if filter.ConsultancyID, err = id.ParseConsultancyID(v); err != nil {
			fields["consultancy_id"] = "must be a UUID"
		}
	}
	if v := q.Get("client_company_id"); v != "" {
		if filter.ClientCompanyID, err = id.ParseClientCompanyID(v); err != nil {
			fields["client_company_id"] = "must be a UUID"
		}
	}
	if v := q.Get("from"); v != "" {
		if filter.From, err = time.Parse(time.RFC3339, v); err != nil {
			fields["from"] = "must be an RFC 3339 timestamp"
		}
	}
	if v := q.Get("to"); v != "" {
		if filter.To, err = time.Parse(time.RFC3339, v); err != nil {
			fields["to"] = "must be an RFC 3339 timestamp"
		}
	}
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 0 {
			fields["limit"] = "must be a non-negative integer"
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil || filter.Offset < 0 {
			fields["offset"] = "must be a non-negative integer"
		}
	}
	filter.Text = q.Get("q")
	if len(fields) > 0 {
		return models.Filter{}, dErrors.NewValidation("invalid audit filter", fields)
	}
	return filter, nil
}
