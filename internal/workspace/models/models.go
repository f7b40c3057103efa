// Package models holds the workspace pointer: the client company a
// consultancy user is currently operating on.
package models

import (
	"time"

	id "consulthub/pkg/domain"
)

// Scope is a convenience pointer keyed by the authentication session. It is
// verified against the client company record on every use and never grants
// access by itself.
type Scope struct {
	Key             string             `json:"-"`
	ConsultancyID   id.ConsultancyID   `json:"consultancy_id"`
	ClientCompanyID id.ClientCompanyID `json:"client_company_id"`
	SelectedAt      time.Time          `json:"selected_at"`
}

// KeyFor derives the pointer key of an authentication session. Impersonated
// requests get their own pointer so the operator's selection is untouched.
func KeyFor(session id.SessionID, impersonation id.ImpersonationSessionID) string {
	if impersonation.IsNil() {
		return session.String()
	}
	return session.String() + ":impersonation:" + impersonation.String()
}
