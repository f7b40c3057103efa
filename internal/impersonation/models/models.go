// Package models holds impersonation sessions: a platform operator acting as
// another identity for support.
package models

import (
	"strings"
	"time"

	identitymodels "consulthub/internal/identity/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
)

type Session struct {
	ID              id.ImpersonationSessionID `json:"id"`
	OperatorID      id.ConsultancyUserID      `json:"operator_id"`
	OperatorSubject id.SubjectID              `json:"operator_subject"`
	OperatorName    string                    `json:"operator_name"`
	OperatorEmail   string                    `json:"operator_email"`
	TargetSubject   id.SubjectID              `json:"target_subject_id"`
	TargetType      identitymodels.Kind       `json:"target_type"`
	ConsultancyID   id.ConsultancyID          `json:"consultancy_id"`
	ClientCompanyID id.ClientCompanyID        `json:"client_company_id"`
	Justification   string                    `json:"justification"`
	StartedAt       time.Time                 `json:"started_at"`
	EndedAt         *time.Time                `json:"ended_at,omitempty"`
}

// NewSession opens a session for operator acting as target. The
// justification is mandatory and superadmins cannot be targets.
func NewSession(sessionID id.ImpersonationSessionID, operator identitymodels.PlatformSuperadmin, target identitymodels.Principal, justification string, now time.Time) (*Session, error) {
	justification, err := NormalizeJustification(justification)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:              sessionID,
		OperatorID:      operator.UserID,
		OperatorSubject: operator.SubjectID,
		OperatorName:    operator.Name,
		OperatorEmail:   operator.Email,
		TargetSubject:   target.Subject(),
		TargetType:      target.Kind(),
		Justification:   justification,
		StartedAt:       now,
	}
	switch t := target.(type) {
	case identitymodels.Consultant:
		s.ConsultancyID = t.ConsultancyID
	case identitymodels.CompanyUser:
		s.ConsultancyID = t.ConsultancyID
		s.ClientCompanyID = t.ClientCompanyID
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "platform operators cannot be impersonated")
	}
	return s, nil
}

// NormalizeJustification trims a justification and rejects a blank one.
func NormalizeJustification(justification string) (string, error) {
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return "", dErrors.NewValidation("justification is required", map[string]string{"justification": "must not be blank"})
	}
	return justification, nil
}

func (s *Session) IsOpen() bool {
	return s.EndedAt == nil
}

// End closes the session. It reports false when the session was already
// closed and leaves it untouched.
func (s *Session) End(now time.Time) bool {
	if !s.IsOpen() {
		return false
	}
	s.EndedAt = &now
	return true
}

// OwnedBy reports whether operatorID opened the session.
func (s *Session) OwnedBy(operatorID id.ConsultancyUserID) bool {
	return s.OperatorID == operatorID
}

// Filter narrows session listings. The zero value lists every session.
type Filter struct {
	OpenOnly   bool
	OperatorID id.ConsultancyUserID
	Limit      int
}
