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
	"consulthub/internal/identity/store/consultancyuser"
	"consulthub/internal/tenant/models"
	"consulthub/internal/tenant/service"
	"consulthub/internal/tenant/store/clientcompany"
	"consulthub/internal/tenant/store/companyuser"
	"consulthub/internal/tenant/store/consultancy"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/platform/tx"
	"consulthub/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	companies *clientcompany.InMemory
	principal identitymodels.Principal
	firm      id.ConsultancyID
	otherFirm id.ConsultancyID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.firm = id.ConsultancyID(uuid.New())
	s.otherFirm = id.ConsultancyID(uuid.New())
	s.principal = identitymodels.Consultant{UserID: id.ConsultancyUserID(uuid.New()), ConsultancyID: s.firm, Name: "Carla"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := tx.NewInMemory()
	audit := writer.New(auditstore.NewInMemory(), writer.WithLogger(logger))
	consultancies := consultancy.NewInMemory()
	s.companies = clientcompany.NewInMemory()
	users := companyuser.NewInMemory()

	h := New(
		service.NewConsultancyService(consultancies, consultancyuser.NewInMemory(), audit, runner),
		service.NewClientCompanyService(s.companies, audit, runner),
		service.NewCompanyUserService(users, s.companies, audit, runner),
		logger,
	)
	r := chi.NewRouter()
	h.RegisterSignup(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := identitymodels.WithPrincipal(r.Context(), s.principal)
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		h.Register(r)
		h.RegisterAdmin(r)
		h.RegisterWorkspace(r, func(ctx context.Context) (id.ClientCompanyID, bool) { return id.ClientCompanyID{}, false })
	})
	s.router = r
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) seedCompany(firm id.ConsultancyID, name string) *models.ClientCompany {
	c, err := models.NewClientCompany(id.ClientCompanyID(uuid.New()), firm, models.ClientCompanyDetails{LegalName: name}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.companies.Create(context.Background(), c))
	return c
}

func (s *HandlerSuite) TestCreateAndFetchClientCompany() {
	rec := s.do(http.MethodPost, "/client-companies", map[string]any{
		"legal_name":  "  Acme Ltda ",
		"size_bucket": "Small",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created ClientCompanyResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Equal("Acme Ltda", created.LegalName)
	s.Equal(models.SizeSmall, created.SizeBucket)
	s.Equal(s.firm.String(), created.ConsultancyID)

	rec = s.do(http.MethodGet, "/client-companies/"+created.ID, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/client-companies", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list ClientCompanyListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Equal(1, list.Count)
}

func (s *HandlerSuite) TestCreateValidation() {
	rec := s.do(http.MethodPost, "/client-companies", map[string]any{"legal_name": " ", "size_bucket": "huge"})
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("validation_error", body.Error)
	s.Contains(body.Fields, "legal_name")
	s.Contains(body.Fields, "size_bucket")

	rec = s.do(http.MethodPost, "/client-companies", map[string]any{"legal_name": "Acme", "unknown": true})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestForeignAndUnknownCompaniesLookAlike() {
	foreign := s.seedCompany(s.otherFirm, "Theirs")

	foreignRec := s.do(http.MethodGet, "/client-companies/"+foreign.ID.String(), nil)
	unknownRec := s.do(http.MethodGet, "/client-companies/"+uuid.NewString(), nil)

	s.Equal(http.StatusForbidden, foreignRec.Code)
	s.Equal(http.StatusForbidden, unknownRec.Code)
	s.JSONEq(foreignRec.Body.String(), unknownRec.Body.String())
}

func (s *HandlerSuite) TestBadID() {
	rec := s.do(http.MethodGet, "/client-companies/not-a-uuid", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestPatchAndLifecycle() {
	c := s.seedCompany(s.firm, "Acme")
	path := "/client-companies/" + c.ID.String()

	rec := s.do(http.MethodPatch, path, map[string]any{"sector": "retail"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var updated ClientCompanyResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &updated))
	s.Equal("retail", updated.Sector)
	s.Equal("Acme", updated.LegalName)

	rec = s.do(http.MethodPatch, path, map[string]any{})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, path+"/deactivate", nil)
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, path+"/deactivate", nil)
	s.Equal(http.StatusConflict, rec.Code)
	rec = s.do(http.MethodPost, path+"/reactivate", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestCompanyUsers() {
	c := s.seedCompany(s.firm, "Acme")

	rec := s.do(http.MethodPost, "/client-companies/"+c.ID.String()+"/users", map[string]any{
		"name": "Ana", "email": "Ana@Acme.io", "role": "admin",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var user CompanyUserResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &user))
	s.Equal("ana@acme.io", user.Email)
	s.False(user.Linked)

	rec = s.do(http.MethodPost, "/client-companies/"+c.ID.String()+"/users", map[string]any{
		"name": "Ana Again", "email": "ana@acme.io", "role": "viewer",
	})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPatch, "/company-users/"+user.ID, map[string]any{"role": "manager"})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/client-companies/"+c.ID.String()+"/users", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list CompanyUserListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Require().Equal(1, list.Count)
	s.Equal(models.CompanyRoleManager, list.CompanyUsers[0].Role)

	rec = s.do(http.MethodPut, "/admin/company-users/"+user.ID+"/subject", map[string]any{"subject_id": "idp|ana"})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestWorkspaceRequiresSelection() {
	rec := s.do(http.MethodGet, "/workspace/company-users", nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestAdminRoutes() {
	rec := s.do(http.MethodGet, "/admin/consultancies", nil)
	s.Equal(http.StatusForbidden, rec.Code)

	s.principal = identitymodels.PlatformSuperadmin{UserID: id.ConsultancyUserID(uuid.New()), Name: "Root"}
	rec = s.do(http.MethodPost, "/admin/consultancies", map[string]any{
		"name": "Northwind HR", "owner_subject": "idp|olga", "owner_name": "Olga", "owner_email": "olga@northwind.io",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created ConsultancyResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Equal(models.ConsultancyStatusActive, created.Status)

	rec = s.do(http.MethodGet, "/admin/consultancies/"+created.ID, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/admin/consultancies", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list ConsultancyListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Equal(1, list.Count)
}

func (s *HandlerSuite) TestSignup() {
	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewBufferString(
		`{"consultancy_name":"Fresh HR","owner_name":"Nina","owner_email":"nina@fresh.io"}`))
	req = req.WithContext(requestcontext.WithSubject(req.Context(), "idp|nina", "sess-1"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/signup", map[string]any{
		"consultancy_name": "Anon", "owner_name": "Anon", "owner_email": "anon@x.io",
	})
	s.Equal(http.StatusUnauthorized, rec.Code)
}
