package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"consulthub/internal/impersonation/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/requestcontext"
)

type Service interface {
	Begin(ctx context.Context, target id.SubjectID, justification string) (*models.Session, error)
	End(ctx context.Context, sessionID id.ImpersonationSessionID) (*models.Session, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Session, error)
}

const maxListLimit = 500

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterAdmin mounts the session routes. The caller must restrict them to
// platform operators.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/impersonations", h.HandleBegin)
	r.Post("/admin/impersonations/{id}/end", h.HandleEnd)
	r.Get("/admin/impersonations", h.HandleList)
}

func (h *Handler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BeginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	session, err := h.svc.Begin(ctx, req.target(), req.Justification)
	if err != nil {
		h.logger.ErrorContext(ctx, "begin impersonation failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, err := id.ParseImpersonationSessionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return
	}
	session, err := h.svc.End(ctx, sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "end impersonation failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sessions, err := h.svc.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list impersonations failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionListResponse(sessions))
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	var filter models.Filter
	if raw := q.Get("open"); raw != "" {
		open, err := strconv.ParseBool(raw)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeBadRequest, "open must be a boolean")
		}
		filter.OpenOnly = open
	}
	if raw := q.Get("operator_id"); raw != "" {
		operatorID, err := id.ParseConsultancyUserID(raw)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeBadRequest, "invalid operator id")
		}
		filter.OperatorID = operatorID
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return models.Filter{}, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500")
		}
		filter.Limit = limit
	}
	return filter, nil
}
