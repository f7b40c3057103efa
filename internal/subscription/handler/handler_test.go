package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	auditstore "consulthub/internal/audit/store"
	"consulthub/internal/audit/writer"
	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/subscription/models"
	"consulthub/internal/subscription/service"
	"consulthub/internal/subscription/store/payment"
	"consulthub/internal/subscription/store/plan"
	"consulthub/internal/subscription/store/subscription"
	tenantmodels "consulthub/internal/tenant/models"
	"consulthub/internal/tenant/store/consultancy"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/platform/tx"
)

type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	principal identitymodels.Principal
	firm      id.ConsultancyID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	consultancies := consultancy.NewInMemory()
	firm, err := tenantmodels.NewConsultancy(id.ConsultancyID(uuid.New()), "People First", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(consultancies.Create(context.Background(), firm))
	s.firm = firm.ID
	s.principal = identitymodels.Consultant{UserID: id.ConsultancyUserID(uuid.New()), ConsultancyID: s.firm, Name: "Carla"}

	svc := service.New(plan.NewInMemory(), subscription.NewInMemory(), payment.NewInMemory(), consultancies,
		writer.New(auditstore.NewInMemory(), writer.WithLogger(logger)), tx.NewInMemory(), service.WithLogger(logger))
	h := New(svc, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(identitymodels.WithPrincipal(r.Context(), s.principal)))
		})
	})
	h.Register(r)
	h.RegisterAdmin(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func (s *HandlerSuite) TestPlanSelectionFlow() {
	rec := s.do(http.MethodGet, "/subscription", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var current SubscriptionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &current))
	s.Equal(models.StatusNone, current.Status)

	rec = s.do(http.MethodGet, "/plans", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var plans PlanListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &plans))
	s.Require().Len(plans.Plans, 3)

	rec = s.do(http.MethodPost, "/subscription/plan", map[string]any{
		"plan_id": plans.Plans[1].ID, "billing_cycle": "annual",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &current))
	s.Equal(models.StatusActive, current.Status)
	s.Equal(s.firm.String(), current.ConsultancyID)
	s.Equal("1290", current.TotalCharge.String())

	rec = s.do(http.MethodGet, "/subscription/payments", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var payments PaymentListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &payments))
	s.Equal(1, payments.Count)
}

func (s *HandlerSuite) TestSelectPlanValidation() {
	rec := s.do(http.MethodPost, "/subscription/plan", map[string]any{"plan_id": "nope", "billing_cycle": "weekly"})
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	var body httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Contains(body.Fields, "plan_id")
	s.Contains(body.Fields, "billing_cycle")
}

func (s *HandlerSuite) TestAdminTransitions() {
	starter := plan.DefaultPlans()[0]
	rec := s.do(http.MethodPost, "/subscription/plan", map[string]any{"plan_id": starter.ID.String(), "billing_cycle": "monthly"})
	s.Require().Equal(http.StatusOK, rec.Code)

	path := "/admin/consultancies/" + s.firm.String()
	rec = s.do(http.MethodPost, path+"/suspend", map[string]any{"reason": "non-payment"})
	s.Equal(http.StatusForbidden, rec.Code)

	s.principal = identitymodels.PlatformSuperadmin{UserID: id.ConsultancyUserID(uuid.New()), Name: "Root"}
	rec = s.do(http.MethodPost, path+"/suspend", map[string]any{"reason": " "})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, path+"/suspend", map[string]any{"reason": "non-payment"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var sub SubscriptionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &sub))
	s.Equal(models.StatusSuspended, sub.Status)
	s.Equal("non-payment", sub.SuspensionReason)

	rec = s.do(http.MethodPost, path+"/reactivate", nil)
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, path+"/reactivate", nil)
	s.Equal(http.StatusConflict, rec.Code)
	rec = s.do(http.MethodPost, path+"/cancel", nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, path+"/subscription", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &sub))
	s.Equal(models.StatusCanceled, sub.Status)

	rec = s.do(http.MethodPost, "/admin/consultancies/not-a-uuid/cancel", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}
