// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "consulthub/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a ClientCompanyID where a ConsultancyID is expected.
type (
	ConsultancyID          uuid.UUID
	ClientCompanyID        uuid.UUID
	ConsultancyUserID      uuid.UUID
	CompanyUserID          uuid.UUID
	PlanID                 uuid.UUID
	SubscriptionID         uuid.UUID
	PaymentID              uuid.UUID
	ImpersonationSessionID uuid.UUID
)

// SubjectID is the opaque subject issued by the external identity provider.
type SubjectID string

// SessionID identifies an authenticated session at the identity provider.
type SessionID string

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseConsultancyID(s string) (ConsultancyID, error) {
	id, err := parseUUID(s, "consultancy ID")
	return ConsultancyID(id), err
}

func ParseClientCompanyID(s string) (ClientCompanyID, error) {
	id, err := parseUUID(s, "client company ID")
	return ClientCompanyID(id), err
}

func ParseConsultancyUserID(s string) (ConsultancyUserID, error) {
	id, err := parseUUID(s, "consultancy user ID")
	return ConsultancyUserID(id), err
}

func ParseCompanyUserID(s string) (CompanyUserID, error) {
	id, err := parseUUID(s, "company user ID")
	return CompanyUserID(id), err
}

func ParsePlanID(s string) (PlanID, error) {
	id, err := parseUUID(s, "plan ID")
	return PlanID(id), err
}

func ParseImpersonationSessionID(s string) (ImpersonationSessionID, error) {
	id, err := parseUUID(s, "impersonation session ID")
	return ImpersonationSessionID(id), err
}

func ParseSubjectID(s string) (SubjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject cannot be empty")
	}
	return SubjectID(s), nil
}

// String methods - for logging and debugging.

func (id ConsultancyID) String() string          { return uuid.UUID(id).String() }
func (id ClientCompanyID) String() string        { return uuid.UUID(id).String() }
func (id ConsultancyUserID) String() string      { return uuid.UUID(id).String() }
func (id CompanyUserID) String() string          { return uuid.UUID(id).String() }
func (id PlanID) String() string                 { return uuid.UUID(id).String() }
func (id SubscriptionID) String() string         { return uuid.UUID(id).String() }
func (id PaymentID) String() string              { return uuid.UUID(id).String() }
func (id ImpersonationSessionID) String() string { return uuid.UUID(id).String() }
func (id SubjectID) String() string              { return string(id) }
func (id SessionID) String() string              { return string(id) }

// IsNil checks - used for service-layer validation.

func (id ConsultancyID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id ClientCompanyID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ConsultancyUserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CompanyUserID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id PlanID) IsNil() bool                 { return uuid.UUID(id) == uuid.Nil }
func (id SubscriptionID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsNil() bool              { return uuid.UUID(id) == uuid.Nil }
func (id ImpersonationSessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SubjectID) IsNil() bool              { return id == "" }
func (id SessionID) IsNil() bool              { return id == "" }

// parseUUID is the shared validation logic. Nil UUIDs are rejected at the
// boundary so they never reach a store lookup.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
