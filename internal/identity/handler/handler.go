package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"consulthub/internal/identity/middleware"
	"consulthub/internal/identity/models"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/requestcontext"
)

type Handler struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.HandleMe)
}

// HandleMe returns the principal resolved for the request, including the
// operator when the request is impersonated.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, err := middleware.Principal(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := toPrincipalResponse(principal)
	if imp, ok := models.ImpersonationFromContext(ctx); ok {
		resp.ImpersonatedBy = &OperatorResponse{
			ID:        imp.Operator.UserID.String(),
			Name:      imp.Operator.Name,
			Email:     imp.Operator.Email,
			SessionID: imp.SessionID.String(),
		}
	}
	h.logger.DebugContext(ctx, "principal described",
		"kind", principal.Kind(),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}
