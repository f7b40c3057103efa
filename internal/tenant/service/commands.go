package service

import (
	"strings"

	"consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/validation"
)

// CreateConsultancyCommand creates a consultancy together with its first
// consultant.
type CreateConsultancyCommand struct {
	Name         string
	OwnerSubject id.SubjectID
	OwnerName    string
	OwnerEmail   string
}

func (c *CreateConsultancyCommand) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(c.Name) == "" {
		fields["name"] = "is required"
	} else if len(strings.TrimSpace(c.Name)) > validation.MaxNameLength {
		fields["name"] = "is too long"
	}
	if c.OwnerSubject.IsNil() {
		fields["owner_subject"] = "is required"
	}
	if strings.TrimSpace(c.OwnerName) == "" {
		fields["owner_name"] = "is required"
	}
	if strings.TrimSpace(c.OwnerEmail) == "" {
		fields["owner_email"] = "is required"
	}
	return fieldsError("invalid consultancy", fields)
}

// CreateClientCompanyCommand creates a client company. ConsultancyID is
// taken from the principal for consultants and is required for superadmins.
type CreateClientCompanyCommand struct {
	ConsultancyID id.ConsultancyID
	Details       models.ClientCompanyDetails
}

func (c *CreateClientCompanyCommand) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(c.Details.LegalName) == "" {
		fields["legal_name"] = "is required"
	}
	if c.Details.SizeBucket != "" && !c.Details.SizeBucket.IsValid() {
		fields["size_bucket"] = "must be one of micro, small, medium, large, enterprise"
	}
	return fieldsError("invalid client company", fields)
}

// UpdateClientCompanyCommand is a partial update; nil fields are left as is.
type UpdateClientCompanyCommand struct {
	LegalName    *string
	TradeName    *string
	ContactEmail *string
	ContactPhone *string
	Sector       *string
	SizeBucket   *models.SizeBucket
}

func (c *UpdateClientCompanyCommand) Validate() error {
	fields := map[string]string{}
	if c.LegalName != nil && strings.TrimSpace(*c.LegalName) == "" {
		fields["legal_name"] = "cannot be empty"
	}
	if c.SizeBucket != nil && *c.SizeBucket != "" && !c.SizeBucket.IsValid() {
		fields["size_bucket"] = "must be one of micro, small, medium, large, enterprise"
	}
	return fieldsError("invalid client company update", fields)
}

func (c *UpdateClientCompanyCommand) apply(d models.ClientCompanyDetails) models.ClientCompanyDetails {
	if c.LegalName != nil {
		d.LegalName = *c.LegalName
	}
	if c.TradeName != nil {
		d.TradeName = *c.TradeName
	}
	if c.ContactEmail != nil {
		d.ContactEmail = *c.ContactEmail
	}
	if c.ContactPhone != nil {
		d.ContactPhone = *c.ContactPhone
	}
	if c.Sector != nil {
		d.Sector = *c.Sector
	}
	if c.SizeBucket != nil {
		d.SizeBucket = *c.SizeBucket
	}
	return d
}

type CreateCompanyUserCommand struct {
	ClientCompanyID id.ClientCompanyID
	Name            string
	Email           string
	Role            models.CompanyRole
	// SubjectID links an existing identity and is reserved to platform
	// superadmins. Left empty, the configured IdentityIssuer (if any)
	// provisions one after the user is created.
	SubjectID id.SubjectID
}

func (c *CreateCompanyUserCommand) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(c.Name) == "" {
		fields["name"] = "is required"
	}
	if strings.TrimSpace(c.Email) == "" {
		fields["email"] = "is required"
	}
	if !c.Role.IsValid() {
		fields["role"] = "must be one of admin, manager, viewer"
	}
	return fieldsError("invalid company user", fields)
}

type UpdateCompanyUserCommand struct {
	Name  *string
	Email *string
	Role  *models.CompanyRole
}

func (c *UpdateCompanyUserCommand) Validate() error {
	fields := map[string]string{}
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		fields["name"] = "cannot be empty"
	}
	if c.Email != nil && strings.TrimSpace(*c.Email) == "" {
		fields["email"] = "cannot be empty"
	}
	if c.Role != nil && !c.Role.IsValid() {
		fields["role"] = "must be one of admin, manager, viewer"
	}
	return fieldsError("invalid company user update", fields)
}

func fieldsError(msg string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return dErrors.NewValidation(msg, fields)
}
