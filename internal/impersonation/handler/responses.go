package handler

import (
	"time"

	"consulthub/internal/impersonation/models"
)

type SessionResponse struct {
	ID              string     `json:"id"`
	OperatorID      string     `json:"operator_id"`
	OperatorEmail   string     `json:"operator_email,omitempty"`
	TargetSubjectID string     `json:"target_subject_id"`
	TargetType      string     `json:"target_type"`
	ConsultancyID   string     `json:"consultancy_id"`
	ClientCompanyID string     `json:"client_company_id,omitempty"`
	Justification   string     `json:"justification"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Open            bool       `json:"open"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Count    int               `json:"count"`
}

func toSessionResponse(session *models.Session) SessionResponse {
	resp := SessionResponse{
		ID:              session.ID.String(),
		OperatorID:      session.OperatorID.String(),
		OperatorEmail:   session.OperatorEmail,
		TargetSubjectID: session.TargetSubject.String(),
		TargetType:      string(session.TargetType),
		ConsultancyID:   session.ConsultancyID.String(),
		Justification:   session.Justification,
		StartedAt:       session.StartedAt,
		EndedAt:         session.EndedAt,
		Open:            session.IsOpen(),
	}
	if !session.ClientCompanyID.IsNil() {
		resp.ClientCompanyID = session.ClientCompanyID.String()
	}
	return resp
}

func toSessionListResponse(sessions []*models.Session) SessionListResponse {
	resp := SessionListResponse{Sessions: make([]SessionResponse, 0, len(sessions)), Count: len(sessions)}
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(session))
	}
	return resp
}
