// Package models defines append-only audit records.
package models

import (
	"encoding/json"
	"time"

	identitymodels "consulthub/internal/identity/models"
	id "consulthub/pkg/domain"
)

// Action is the kind of mutation an audit record describes.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

func (a Action) IsValid() bool {
	return a == ActionInsert || a == ActionUpdate || a == ActionDelete
}

// Impersonator identifies the platform operator behind an impersonated mutation.
type Impersonator struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	Email     string                    `json:"email"`
	SessionID id.ImpersonationSessionID `json:"session_id"`
}

// Record is a write-once audit entry. ID is a ULID, so ids sort by time.
type Record struct {
	ID              string               `json:"id"`
	Action          Action               `json:"action"`
	Entity          string               `json:"entity"`
	RecordID        string               `json:"record_id"`
	Actor           identitymodels.Actor `json:"actor"`
	Impersonator    *Impersonator        `json:"impersonator,omitempty"`
	ConsultancyID   id.ConsultancyID     `json:"consultancy_id"`
	ClientCompanyID id.ClientCompanyID   `json:"client_company_id"`
	Before          json.RawMessage      `json:"before,omitempty"`
	After           json.RawMessage      `json:"after,omitempty"`
	ChangedFields   []string             `json:"changed_fields,omitempty"`
	Description     string               `json:"description,omitempty"`
	RequestID       string               `json:"request_id,omitempty"`
	ClientIP        string               `json:"client_ip,omitempty"`
	UserAgent       string               `json:"user_agent,omitempty"`
	OccurredAt      time.Time            `json:"occurred_at"`
}

// Filter selects audit records. Zero values do not constrain. To is exclusive.
type Filter struct {
	ConsultancyID   id.ConsultancyID
	ClientCompanyID id.ClientCompanyID
	Text            string
	From            time.Time
	To              time.Time
	Limit           int
	Offset          int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
	// MaxExportRows bounds a single export workbook.
	MaxExportRows = 10000
)

// Matches reports whether r satisfies the tenant and time constraints of f.
// Free-text matching is left to stores.
func (f Filter) Matches(r *Record) bool {
	if !f.ConsultancyID.IsNil() && r.ConsultancyID != f.ConsultancyID {
		return false
	}
	if !f.ClientCompanyID.IsNil() && r.ClientCompanyID != f.ClientCompanyID {
		return false
	}
	if !f.From.IsZero() && r.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.OccurredAt.Before(f.To) {
		return false
	}
	return true
}
