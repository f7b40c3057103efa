package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"consulthub/internal/workspace/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/requestcontext"
	s "consulthub/pkg/string"
)

type Service interface {
	Select(ctx context.Context, companyID id.ClientCompanyID) (*models.Scope, error)
	Current(ctx context.Context) (*models.Scope, error)
	Clear(ctx context.Context) error
}

type SelectRequest struct {
	ClientCompanyID string `json:"client_company_id" validate:"required,uuid"`
}

func (r *SelectRequest) Normalize() {
	s.TrimStrings(&r.ClientCompanyID)
}

type WorkspaceResponse struct {
	Selected        bool       `json:"selected"`
	ConsultancyID   string     `json:"consultancy_id,omitempty"`
	ClientCompanyID string     `json:"client_company_id,omitempty"`
	SelectedAt      *time.Time `json:"selected_at,omitempty"`
}

func toWorkspaceResponse(scope *models.Scope) WorkspaceResponse {
	resp := WorkspaceResponse{
		Selected:        true,
		ConsultancyID:   scope.ConsultancyID.String(),
		ClientCompanyID: scope.ClientCompanyID.String(),
	}
	if !scope.SelectedAt.IsZero() {
		resp.SelectedAt = &scope.SelectedAt
	}
	return resp
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/workspace", h.HandleGet)
	r.Put("/workspace", h.HandleSelect)
	r.Delete("/workspace", h.HandleClear)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, err := h.svc.Current(ctx)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusOK, WorkspaceResponse{})
			return
		}
		h.logger.WarnContext(ctx, "get workspace failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toWorkspaceResponse(scope))
}

func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SelectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	companyID, err := id.ParseClientCompanyID(req.ClientCompanyID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid client company id"))
		return
	}
	scope, err := h.svc.Select(ctx, companyID)
	if err != nil {
		h.logger.WarnContext(ctx, "select workspace failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toWorkspaceResponse(scope))
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.svc.Clear(ctx); err != nil {
		h.logger.ErrorContext(ctx, "clear workspace failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
