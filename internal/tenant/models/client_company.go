package models

import (
	"strings"
	"time"

	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/validation"
)

// ClientCompany is a company served by a consultancy. ConsultancyID never
// changes after creation and companies are never hard-deleted.
type ClientCompany struct {
	ID            id.ClientCompanyID  `json:"id"`
	ConsultancyID id.ConsultancyID    `json:"consultancy_id"`
	LegalName     string              `json:"legal_name"`
	TradeName     string              `json:"trade_name,omitempty"`
	ContactEmail  string              `json:"contact_email,omitempty"`
	ContactPhone  string              `json:"contact_phone,omitempty"`
	Sector        string              `json:"sector,omitempty"`
	SizeBucket    SizeBucket          `json:"size_bucket,omitempty"`
	Status        ClientCompanyStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ClientCompanyDetails are the descriptive attributes of a client company.
type ClientCompanyDetails struct {
	LegalName    string
	TradeName    string
	ContactEmail string
	ContactPhone string
	Sector       string
	SizeBucket   SizeBucket
}

func NewClientCompany(companyID id.ClientCompanyID, consultancyID id.ConsultancyID, details ClientCompanyDetails, now time.Time) (*ClientCompany, error) {
	if consultancyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client company must belong to a consultancy")
	}
	c := &ClientCompany{
		ID:            companyID,
		ConsultancyID: consultancyID,
		Status:        ClientCompanyStatusActive,
		CreatedAt:     now,
	}
	if err := c.apply(details, now); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename replaces the descriptive attributes, leaving ownership untouched.
func (c *ClientCompany) Rename(details ClientCompanyDetails, now time.Time) error {
	return c.apply(details, now)
}

func (c *ClientCompany) apply(details ClientCompanyDetails, now time.Time) error {
	legalName := strings.TrimSpace(details.LegalName)
	if legalName == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "legal name cannot be empty")
	}
	if len(legalName) > validation.MaxNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "legal name is too long")
	}
	if details.SizeBucket != "" && !details.SizeBucket.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown size bucket")
	}
	c.LegalName = legalName
	c.TradeName = strings.TrimSpace(details.TradeName)
	c.ContactEmail = strings.TrimSpace(details.ContactEmail)
	c.ContactPhone = strings.TrimSpace(details.ContactPhone)
	c.Sector = strings.TrimSpace(details.Sector)
	c.SizeBucket = details.SizeBucket
	c.UpdatedAt = now
	return nil
}

// Details returns the current descriptive attributes.
func (c *ClientCompany) Details() ClientCompanyDetails {
	return ClientCompanyDetails{
		LegalName:    c.LegalName,
		TradeName:    c.TradeName,
		ContactEmail: c.ContactEmail,
		ContactPhone: c.ContactPhone,
		Sector:       c.Sector,
		SizeBucket:   c.SizeBucket,
	}
}

func (c *ClientCompany) IsActive() bool {
	return c.Status == ClientCompanyStatusActive
}

// Deactivate transitions the company to inactive status.
// Returns an error if the company is already inactive.
func (c *ClientCompany) Deactivate(now time.Time) error {
	if !c.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "client company is already inactive")
	}
	c.Status = ClientCompanyStatusInactive
	c.UpdatedAt = now
	return nil
}

// Reactivate transitions the company to active status.
// Returns an error if the company is already active.
func (c *ClientCompany) Reactivate(now time.Time) error {
	if c.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "client company is already active")
	}
	c.Status = ClientCompanyStatusActive
	c.UpdatedAt = now
	return nil
}
