package handler

import (
	"time"

	"consulthub/internal/tenant/models"
)

type ConsultancyResponse struct {
	ID               string                   `json:"id"`
	Name             string                   `json:"name"`
	Status           models.ConsultancyStatus `json:"status"`
	SuspensionReason string                   `json:"suspension_reason,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

type ConsultancyListResponse struct {
	Consultancies []*ConsultancyResponse `json:"consultancies"`
	Count         int                    `json:"count"`
}

type ClientCompanyResponse struct {
	ID            string                     `json:"id"`
	ConsultancyID string                     `json:"consultancy_id"`
	LegalName     string                     `json:"legal_name"`
	TradeName     string                     `json:"trade_name,omitempty"`
	ContactEmail  string                     `json:"contact_email,omitempty"`
	ContactPhone  string                     `json:"contact_phone,omitempty"`
	Sector        string                     `json:"sector,omitempty"`
	SizeBucket    models.SizeBucket          `json:"size_bucket,omitempty"`
	Status        models.ClientCompanyStatus `json:"status"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

type ClientCompanyListResponse struct {
	ClientCompanies []*ClientCompanyResponse `json:"client_companies"`
	Count           int                      `json:"count"`
}

type CompanyUserResponse struct {
	ID              string             `json:"id"`
	ClientCompanyID string             `json:"client_company_id"`
	ConsultancyID   string             `json:"consultancy_id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Role            models.CompanyRole `json:"role"`
	Active          bool               `json:"active"`
	Linked          bool               `json:"linked"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type CompanyUserListResponse struct {
	CompanyUsers []*CompanyUserResponse `json:"company_users"`
	Count        int                    `json:"count"`
}

func toConsultancyResponse(c *models.Consultancy) *ConsultancyResponse {
	return &ConsultancyResponse{
		ID:               c.ID.String(),
		Name:             c.Name,
		Status:           c.Status,
		SuspensionReason: c.SuspensionReason,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func toClientCompanyResponse(c *models.ClientCompany) *ClientCompanyResponse {
	return &ClientCompanyResponse{
		ID:            c.ID.String(),
		ConsultancyID: c.ConsultancyID.String(),
		LegalName:     c.LegalName,
		TradeName:     c.TradeName,
		ContactEmail:  c.ContactEmail,
		ContactPhone:  c.ContactPhone,
		Sector:        c.Sector,
		SizeBucket:    c.SizeBucket,
		Status:        c.Status,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// toCompanyUserResponse omits the identity-provider subject; callers only
// learn whether one is linked.
func toCompanyUserResponse(u *models.CompanyUser) *CompanyUserResponse {
	return &CompanyUserResponse{
		ID:              u.ID.String(),
		ClientCompanyID: u.ClientCompanyID.String(),
		ConsultancyID:   u.ConsultancyID.String(),
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		Active:          u.Active,
		Linked:          !u.SubjectID.IsNil(),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
