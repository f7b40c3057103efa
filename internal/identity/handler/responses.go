package handler

import "consulthub/internal/identity/models"

type PrincipalResponse struct {
	Kind            models.Kind       `json:"kind"`
	UserID          string            `json:"user_id"`
	Subject         string            `json:"subject"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	ConsultancyID   string            `json:"consultancy_id,omitempty"`
	ClientCompanyID string            `json:"client_company_id,omitempty"`
	Role            string            `json:"role,omitempty"`
	ImpersonatedBy  *OperatorResponse `json:"impersonated_by,omitempty"`
}

type OperatorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
}

func toPrincipalResponse(p models.Principal) *PrincipalResponse {
	actor := p.Actor()
	resp := &PrincipalResponse{
		Kind:    p.Kind(),
		UserID:  actor.ID,
		Subject: p.Subject().String(),
		Name:    actor.Name,
		Email:   actor.Email,
	}
	switch v := p.(type) {
	case models.Consultant:
		resp.ConsultancyID = v.ConsultancyID.String()
	case models.CompanyUser:
		resp.ConsultancyID = v.ConsultancyID.String()
		resp.ClientCompanyID = v.ClientCompanyID.String()
		resp.Role = string(v.Role)
	}
	return resp
}
