package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"consulthub/internal/tenant/models"
	"consulthub/internal/tenant/service"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/requestcontext"
)

// Service interfaces return domain objects, not HTTP response DTOs. Tenant
// checks happen in the services; handlers only parse and map.

type ConsultancyService interface {
	Create(ctx context.Context, cmd service.CreateConsultancyCommand) (*models.Consultancy, error)
	Signup(ctx context.Context, name, ownerName, ownerEmail string) (*models.Consultancy, error)
	Get(ctx context.Context, consultancyID id.ConsultancyID) (*models.Consultancy, error)
	List(ctx context.Context) ([]*models.Consultancy, error)
}

type ClientCompanyService interface {
	Create(ctx context.Context, cmd service.CreateClientCompanyCommand) (*models.ClientCompany, error)
	Get(ctx context.Context, companyID id.ClientCompanyID) (*models.ClientCompany, error)
	List(ctx context.Context, consultancyID id.ConsultancyID, filter models.ClientCompanyFilter) ([]*models.ClientCompany, error)
	Update(ctx context.Context, companyID id.ClientCompanyID, cmd service.UpdateClientCompanyCommand) (*models.ClientCompany, error)
	Deactivate(ctx context.Context, companyID id.ClientCompanyID) (*models.ClientCompany, error)
	Reactivate(ctx context.Context, companyID id.ClientCompanyID) (*models.ClientCompany, error)
}

type CompanyUserService interface {
	Create(ctx context.Context, cmd service.CreateCompanyUserCommand) (*models.CompanyUser, error)
	Get(ctx context.Context, userID id.CompanyUserID) (*models.CompanyUser, error)
	List(ctx context.Context, companyID id.ClientCompanyID) ([]*models.CompanyUser, error)
	Update(ctx context.Context, userID id.CompanyUserID, cmd service.UpdateCompanyUserCommand) (*models.CompanyUser, error)
	Deactivate(ctx context.Context, userID id.CompanyUserID) (*models.CompanyUser, error)
	Reactivate(ctx context.Context, userID id.CompanyUserID) (*models.CompanyUser, error)
	LinkSubject(ctx context.Context, userID id.CompanyUserID, subject id.SubjectID) (*models.CompanyUser, error)
}

// WorkspaceCompany returns the client company selected in the caller's
// verified workspace.
type WorkspaceCompany func(ctx context.Context) (id.ClientCompanyID, bool)

type Handler struct {
	consultancies ConsultancyService
	companies     ClientCompanyService
	users         CompanyUserService
	logger        *slog.Logger
}

func New(consultancies ConsultancyService, companies ClientCompanyService, users CompanyUserService, logger *slog.Logger) *Handler {
	return &Handler{
		consultancies: consultancies,
		companies:     companies,
		users:         users,
		logger:        logger,
	}
}

// Register mounts the routes for resolved principals.
func (h *Handler) Register(r chi.Router) {
	r.Get("/consultancies/{id}", h.HandleGetConsultancy)

	r.Get("/client-companies", h.HandleListClientCompanies)
	r.Post("/client-companies", h.HandleCreateClientCompany)
	r.Get("/client-companies/{id}", h.HandleGetClientCompany)
	r.Patch("/client-companies/{id}", h.HandleUpdateClientCompany)
	r.Post("/client-companies/{id}/deactivate", h.HandleDeactivateClientCompany)
	r.Post("/client-companies/{id}/reactivate", h.HandleReactivateClientCompany)

	r.Get("/client-companies/{id}/users", h.HandleListCompanyUsers)
	r.Post("/client-companies/{id}/users", h.HandleCreateCompanyUser)
	r.Get("/company-users/{id}", h.HandleGetCompanyUser)
	r.Patch("/company-users/{id}", h.HandleUpdateCompanyUser)
	r.Post("/company-users/{id}/deactivate", h.HandleDeactivateCompanyUser)
	r.Post("/company-users/{id}/reactivate", h.HandleReactivateCompanyUser)
}

// RegisterAdmin mounts the platform-operator routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/consultancies", h.HandleCreateConsultancy)
	r.Get("/admin/consultancies", h.HandleListConsultancies)
	r.Get("/admin/consultancies/{id}", h.HandleGetConsultancy)
	r.Put("/admin/company-users/{id}/subject", h.HandleLinkSubject)
}

// RegisterSignup mounts self-service signup. It needs a verified subject but
// no resolved principal.
func (h *Handler) RegisterSignup(r chi.Router) {
	r.Post("/signup", h.HandleSignup)
}

// RegisterWorkspace mounts company-user routes narrowed to the workspace
// company.
func (h *Handler) RegisterWorkspace(r chi.Router, company WorkspaceCompany) {
	r.Get("/workspace/company-users", func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := company(r.Context())
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeTenantMismatch, "no workspace selected"))
			return
		}
		h.listCompanyUsers(w, r, companyID)
	})
}

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SignupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	consultancy, err := h.consultancies.Signup(ctx, req.ConsultancyName, req.OwnerName, req.OwnerEmail)
	if err != nil {
		h.logger.ErrorContext(ctx, "signup failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toConsultancyResponse(consultancy))
}

func (h *Handler) HandleCreateConsultancy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateConsultancyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	consultancy, err := h.consultancies.Create(ctx, req.toCommand())
	if err != nil {
		h.logger.ErrorContext(ctx, "create consultancy failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toConsultancyResponse(consultancy))
}

func (h *Handler) HandleListConsultancies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	consultancies, err := h.consultancies.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list consultancies failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ConsultancyListResponse{
		Consultancies: mapSlice(consultancies, toConsultancyResponse),
		Count:         len(consultancies),
	})
}

func (h *Handler) HandleGetConsultancy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	consultancyID, err := id.ParseConsultancyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid consultancy id"))
		return
	}

	consultancy, err := h.consultancies.Get(ctx, consultancyID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get consultancy failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConsultancyResponse(consultancy))
}

func (h *Handler) HandleCreateClientCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateClientCompanyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	company, err := h.companies.Create(ctx, cmd)
	if err != nil {
		h.logger.ErrorContext(ctx, "create client company failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toClientCompanyResponse(company))
}

// HandleListClientCompanies lists the companies of the caller's consultancy.
// Operators pass ?consultancy_id=; ?status= filters by status.
func (h *Handler) HandleListClientCompanies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	query := r.URL.Query()

	var consultancyID id.ConsultancyID
	if raw := query.Get("consultancy_id"); raw != "" {
		parsed, err := id.ParseConsultancyID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid consultancy id"))
			return
		}
		consultancyID = parsed
	}
	filter := models.ClientCompanyFilter{Status: models.ClientCompanyStatus(query.Get("status"))}

	companies, err := h.companies.List(ctx, consultancyID, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list client companies failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ClientCompanyListResponse{
		ClientCompanies: mapSlice(companies, toClientCompanyResponse),
		Count:           len(companies),
	})
}

func (h *Handler) HandleGetClientCompany(w http.ResponseWriter, r *http.Request) {
	h.companyAction(w, r, "get client company", h.companies.Get)
}

func (h *Handler) HandleUpdateClientCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	companyID, err := id.ParseClientCompanyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid client company id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateClientCompanyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	company, err := h.companies.Update(ctx, companyID, req.toCommand())
	if err != nil {
		h.logger.ErrorContext(ctx, "update client company failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClientCompanyResponse(company))
}

func (h *Handler) HandleDeactivateClientCompany(w http.ResponseWriter, r *http.Request) {
	h.companyAction(w, r, "deactivate client company", h.companies.Deactivate)
}

func (h *Handler) HandleReactivateClientCompany(w http.ResponseWriter, r *http.Request) {
	h.companyAction(w, r, "reactivate client company", h.companies.Reactivate)
}

func (h *Handler) companyAction(w http.ResponseWriter, r *http.Request, op string, action func(context.Context, id.ClientCompanyID) (*models.ClientCompany, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	companyID, err := id.ParseClientCompanyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid client company id"))
		return
	}

	company, err := action(ctx, companyID)
	if err != nil {
		h.logger.ErrorContext(ctx, op+" failed", "error", err, "request_id", requestID, "client_company_id", companyID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClientCompanyResponse(company))
}

func (h *Handler) HandleListCompanyUsers(w http.ResponseWriter, r *http.Request) {
	companyID, err := id.ParseClientCompanyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid client company id"))
		return
	}
	h.listCompanyUsers(w, r, companyID)
}

func (h *Handler) listCompanyUsers(w http.ResponseWriter, r *http.Request, companyID id.ClientCompanyID) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	users, err := h.users.List(ctx, companyID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list company users failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &CompanyUserListResponse{
		CompanyUsers: mapSlice(users, toCompanyUserResponse),
		Count:        len(users),
	})
}

func (h *Handler) HandleCreateCompanyUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	companyID, err := id.ParseClientCompanyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid client company id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateCompanyUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.users.Create(ctx, req.toCommand(companyID))
	if err != nil {
		h.logger.ErrorContext(ctx, "create company user failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCompanyUserResponse(user))
}

func (h *Handler) HandleGetCompanyUser(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, "get company user", h.users.Get)
}

func (h *Handler) HandleUpdateCompanyUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, err := id.ParseCompanyUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid company user id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateCompanyUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.users.Update(ctx, userID, req.toCommand())
	if err != nil {
		h.logger.ErrorContext(ctx, "update company user failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCompanyUserResponse(user))
}

func (h *Handler) HandleDeactivateCompanyUser(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, "deactivate company user", h.users.Deactivate)
}

func (h *Handler) HandleReactivateCompanyUser(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, "reactivate company user", h.users.Reactivate)
}

func (h *Handler) HandleLinkSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, err := id.ParseCompanyUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid company user id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[LinkSubjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.users.LinkSubject(ctx, userID, id.SubjectID(req.SubjectID))
	if err != nil {
		h.logger.ErrorContext(ctx, "link subject failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCompanyUserResponse(user))
}

func (h *Handler) userAction(w http.ResponseWriter, r *http.Request, op string, action func(context.Context, id.CompanyUserID) (*models.CompanyUser, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, err := id.ParseCompanyUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid company user id"))
		return
	}

	user, err := action(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, op+" failed", "error", err, "request_id", requestID, "company_user_id", userID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCompanyUserResponse(user))
}
