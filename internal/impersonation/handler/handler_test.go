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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	auditstore "consulthub/internal/audit/store"
	"consulthub/internal/audit/writer"
	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/impersonation/service"
	"consulthub/internal/impersonation/store/session"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/platform/tx"
)

type stubResolver map[id.SubjectID]identitymodels.Principal

func (r stubResolver) Resolve(_ context.Context, subject id.SubjectID) (identitymodels.Principal, error) {
	p, ok := r[subject]
	if !ok {
		return nil, dErrors.New(dErrors.CodeAccountNotProvisioned, "account is not provisioned")
	}
	return p, nil
}

type HandlerSuite struct {
	suite.Suite
	router     http.Handler
	operator   identitymodels.PlatformSuperadmin
	consultant identitymodels.Consultant
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.operator = identitymodels.PlatformSuperadmin{UserID: id.ConsultancyUserID(uuid.New()), SubjectID: "idp|root", Email: "root@consulthub.io"}
	s.consultant = identitymodels.Consultant{UserID: id.ConsultancyUserID(uuid.New()), SubjectID: "idp|carla", ConsultancyID: id.ConsultancyID(uuid.New())}

	svc := service.New(session.NewInMemory(), stubResolver{s.consultant.SubjectID: s.consultant},
		writer.New(auditstore.NewInMemory(), writer.WithLogger(logger)), tx.NewInMemory(), service.WithLogger(logger))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(identitymodels.WithPrincipal(r.Context(), s.operator)))
		})
	})
	New(svc, logger).RegisterAdmin(r)
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

func (s *HandlerSuite) TestSessionLifecycle() {
	rec := s.do(http.MethodPost, "/admin/impersonations", BeginRequest{TargetSubjectID: "idp|carla", Justification: "ticket 42"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var started SessionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &started))
	s.True(started.Open)
	s.Equal("consultant", started.TargetType)
	s.Equal(s.consultant.ConsultancyID.String(), started.ConsultancyID)
	s.Empty(started.ClientCompanyID)

	rec = s.do(http.MethodGet, "/admin/impersonations?open=true", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var open SessionListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &open))
	s.Equal(1, open.Count)

	rec = s.do(http.MethodPost, "/admin/impersonations/"+started.ID+"/end", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var ended SessionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &ended))
	s.False(ended.Open)
	s.NotNil(ended.EndedAt)

	rec = s.do(http.MethodGet, "/admin/impersonations?open=true", nil)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &open))
	s.Zero(open.Count)

	rec = s.do(http.MethodGet, "/admin/impersonations", nil)
	var all SessionListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &all))
	s.Equal(1, all.Count)
}

func (s *HandlerSuite) TestBeginRequiresJustification() {
	rec := s.do(http.MethodPost, "/admin/impersonations", BeginRequest{TargetSubjectID: "idp|carla", Justification: "  "})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/admin/impersonations", nil)
	var all SessionListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &all))
	s.Zero(all.Count)
}

func (s *HandlerSuite) TestBadInput() {
	rec := s.do(http.MethodPost, "/admin/impersonations/not-a-uuid/end", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/admin/impersonations/"+uuid.NewString()+"/end", nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/admin/impersonations?limit=0", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/admin/impersonations?open=maybe", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	var body httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.NotEmpty(body.ErrorDescription)
}
