package models

import (
	"strings"
	"time"

	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/validation"
)

// Consultancy is the root tenant: an HR consulting firm.
type Consultancy struct {
	ID               id.ConsultancyID  `json:"id"`
	Name             string            `json:"name"`
	Status           ConsultancyStatus `json:"status"`
	SuspensionReason string            `json:"suspension_reason,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func NewConsultancy(consultancyID id.ConsultancyID, name string, now time.Time) (*Consultancy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "consultancy name cannot be empty")
	}
	if len(name) > validation.MaxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "consultancy name is too long")
	}
	return &Consultancy{
		ID:        consultancyID,
		Name:      name,
		Status:    ConsultancyStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (c *Consultancy) IsActive() bool {
	return c.Status == ConsultancyStatusActive
}

// Suspend mirrors a subscription suspension onto the tenant.
func (c *Consultancy) Suspend(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.NewValidation("suspension reason is required", map[string]string{
			"reason": "is required",
		})
	}
	if c.Status == ConsultancyStatusCanceled {
		return dErrors.New(dErrors.CodeInvariantViolation, "consultancy is canceled")
	}
	c.Status = ConsultancyStatusSuspended
	c.SuspensionReason = reason
	c.UpdatedAt = now
	return nil
}

// Activate returns the consultancy to active status and clears any suspension reason.
func (c *Consultancy) Activate(now time.Time) {
	c.Status = ConsultancyStatusActive
	c.SuspensionReason = ""
	c.UpdatedAt = now
}

func (c *Consultancy) Cancel(now time.Time) {
	c.Status = ConsultancyStatusCanceled
	c.SuspensionReason = ""
	c.UpdatedAt = now
}
