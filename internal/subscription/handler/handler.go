package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"consulthub/internal/subscription/models"
	"consulthub/internal/subscription/service"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/requestcontext"
)

type Service interface {
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	Get(ctx context.Context, consultancyID id.ConsultancyID) (*models.Subscription, error)
	SelectPlan(ctx context.Context, cmd service.SelectPlanCommand) (*models.Subscription, error)
	Payments(ctx context.Context, consultancyID id.ConsultancyID) ([]*models.Payment, error)
	Suspend(ctx context.Context, consultancyID id.ConsultancyID, reason string) (*models.Subscription, error)
	Reactivate(ctx context.Context, consultancyID id.ConsultancyID) (*models.Subscription, error)
	Cancel(ctx context.Context, consultancyID id.ConsultancyID) (*models.Subscription, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the plan-selection routes. They stay reachable while the
// subscription gate redirects everything else.
func (h *Handler) Register(r chi.Router) {
	r.Get("/plans", h.HandleListPlans)
	r.Get("/subscription", h.HandleGetSubscription)
	r.Post("/subscription/plan", h.HandleSelectPlan)
	r.Get("/subscription/payments", h.HandleListPayments)
}

// RegisterAdmin mounts the platform-operator status transitions.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/consultancies/{id}/subscription", h.HandleGetConsultancySubscription)
	r.Post("/admin/consultancies/{id}/suspend", h.HandleSuspend)
	r.Post("/admin/consultancies/{id}/reactivate", h.HandleReactivate)
	r.Post("/admin/consultancies/{id}/cancel", h.HandleCancel)
}

func (h *Handler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plans, err := h.svc.ListPlans(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list plans failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPlanListResponse(plans))
}

func (h *Handler) HandleGetSubscription(w http.ResponseWriter, r *http.Request) {
	consultancyID, ok := optionalConsultancy(w, r)
	if !ok {
		return
	}
	h.writeSubscription(w, r, consultancyID)
}

func (h *Handler) HandleGetConsultancySubscription(w http.ResponseWriter, r *http.Request) {
	consultancyID, ok := pathConsultancy(w, r)
	if !ok {
		return
	}
	h.writeSubscription(w, r, consultancyID)
}

func (h *Handler) writeSubscription(w http.ResponseWriter, r *http.Request, consultancyID id.ConsultancyID) {
	ctx := r.Context()
	sub, err := h.svc.Get(ctx, consultancyID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusOK, SubscriptionResponse{
				ConsultancyID: consultancyIDOrEmpty(consultancyID),
				Status:        models.StatusNone,
			})
			return
		}
		h.logger.ErrorContext(ctx, "get subscription failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) HandleSelectPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SelectPlanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sub, err := h.svc.SelectPlan(ctx, cmd)
	if err != nil {
		h.logger.ErrorContext(ctx, "select plan failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	consultancyID, ok := optionalConsultancy(w, r)
	if !ok {
		return
	}
	payments, err := h.svc.Payments(ctx, consultancyID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list payments failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPaymentListResponse(payments))
}

func (h *Handler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	consultancyID, ok := pathConsultancy(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SuspendRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	h.transition(w, r, "suspend", func(ctx context.Context) (*models.Subscription, error) {
		return h.svc.Suspend(ctx, consultancyID, req.Reason)
	})
}

func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	consultancyID, ok := pathConsultancy(w, r)
	if !ok {
		return
	}
	h.transition(w, r, "reactivate", func(ctx context.Context) (*models.Subscription, error) {
		return h.svc.Reactivate(ctx, consultancyID)
	})
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	consultancyID, ok := pathConsultancy(w, r)
	if !ok {
		return
	}
	h.transition(w, r, "cancel", func(ctx context.Context) (*models.Subscription, error) {
		return h.svc.Cancel(ctx, consultancyID)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string, action func(context.Context) (*models.Subscription, error)) {
	ctx := r.Context()
	sub, err := action(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, op+" subscription failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func pathConsultancy(w http.ResponseWriter, r *http.Request) (id.ConsultancyID, bool) {
	consultancyID, err := id.ParseConsultancyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid consultancy id"))
		return id.ConsultancyID{}, false
	}
	return consultancyID, true
}

// optionalConsultancy reads ?consultancy_id=, which only platform operators
// need; consultants default to their own consultancy.
func optionalConsultancy(w http.ResponseWriter, r *http.Request) (id.ConsultancyID, bool) {
	raw := r.URL.Query().Get("consultancy_id")
	if raw == "" {
		return id.ConsultancyID{}, true
	}
	consultancyID, err := id.ParseConsultancyID(raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid consultancy id"))
		return id.ConsultancyID{}, false
	}
	return consultancyID, true
}

func consultancyIDOrEmpty(consultancyID id.ConsultancyID) string {
	if consultancyID.IsNil() {
		return ""
	}
	return consultancyID.String()
}
