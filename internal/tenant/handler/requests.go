package handler

import (
	"strings"

	"consulthub/internal/tenant/models"
	"consulthub/internal/tenant/service"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	s "consulthub/pkg/string"
)

// HTTP request DTOs. Struct tags are checked by the shared validator, then
// the DTO is converted to a service command.

type SignupRequest struct {
	ConsultancyName string `json:"consultancy_name" validate:"notblank,max=200"`
	OwnerName       string `json:"owner_name" validate:"notblank,max=200"`
	OwnerEmail      string `json:"owner_email" validate:"required,email"`
}

func (r *SignupRequest) Normalize() {
	s.TrimStrings(&r.ConsultancyName, &r.OwnerName)
	r.OwnerEmail = s.NormalizeEmail(r.OwnerEmail)
}

type CreateConsultancyRequest struct {
	Name         string `json:"name" validate:"notblank,max=200"`
	OwnerSubject string `json:"owner_subject" validate:"notblank"`
	OwnerName    string `json:"owner_name" validate:"notblank,max=200"`
	OwnerEmail   string `json:"owner_email" validate:"required,email"`
}

func (r *CreateConsultancyRequest) Normalize() {
	s.TrimStrings(&r.Name, &r.OwnerSubject, &r.OwnerName)
	r.OwnerEmail = s.NormalizeEmail(r.OwnerEmail)
}

func (r *CreateConsultancyRequest) toCommand() service.CreateConsultancyCommand {
	return service.CreateConsultancyCommand{
		Name:         r.Name,
		OwnerSubject: id.SubjectID(r.OwnerSubject),
		OwnerName:    r.OwnerName,
		OwnerEmail:   r.OwnerEmail,
	}
}

type CreateClientCompanyRequest struct {
	// ConsultancyID is only honored for platform operators.
	ConsultancyID string `json:"consultancy_id,omitempty" validate:"omitempty,uuid"`
	LegalName     string `json:"legal_name" validate:"notblank,max=200"`
	TradeName     string `json:"trade_name,omitempty" validate:"max=200"`
	ContactEmail  string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone  string `json:"contact_phone,omitempty" validate:"max=50"`
	Sector        string `json:"sector,omitempty" validate:"max=100"`
	SizeBucket    string `json:"size_bucket,omitempty" validate:"omitempty,oneof=micro small medium large enterprise"`
}

func (r *CreateClientCompanyRequest) Normalize() {
	s.TrimStrings(&r.ConsultancyID, &r.LegalName, &r.TradeName, &r.ContactPhone, &r.Sector)
	r.ContactEmail = s.NormalizeEmail(r.ContactEmail)
	r.SizeBucket = strings.ToLower(strings.TrimSpace(r.SizeBucket))
}

func (r *CreateClientCompanyRequest) toCommand() (service.CreateClientCompanyCommand, error) {
	cmd := service.CreateClientCompanyCommand{
		Details: models.ClientCompanyDetails{
			LegalName:    r.LegalName,
			TradeName:    r.TradeName,
			ContactEmail: r.ContactEmail,
			ContactPhone: r.ContactPhone,
			Sector:       r.Sector,
			SizeBucket:   models.SizeBucket(r.SizeBucket),
		},
	}
	if r.ConsultancyID != "" {
		consultancyID, err := id.ParseConsultancyID(r.ConsultancyID)
		if err != nil {
			return cmd, dErrors.New(dErrors.CodeBadRequest, "invalid consultancy id")
		}
		cmd.ConsultancyID = consultancyID
	}
	return cmd, nil
}

// UpdateClientCompanyRequest is a partial update; omitted fields keep their
// value.
type UpdateClientCompanyRequest struct {
	LegalName    *string `json:"legal_name,omitempty" validate:"omitempty,notblank,max=200"`
	TradeName    *string `json:"trade_name,omitempty" validate:"omitempty,max=200"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone,omitempty" validate:"omitempty,max=50"`
	Sector       *string `json:"sector,omitempty" validate:"omitempty,max=100"`
	SizeBucket   *string `json:"size_bucket,omitempty" validate:"omitempty,oneof=micro small medium large enterprise"`
}

func (r *UpdateClientCompanyRequest) Normalize() {
	s.TrimOptional(&r.LegalName, &r.TradeName, &r.ContactPhone, &r.Sector)
	if r.ContactEmail != nil {
		*r.ContactEmail = s.NormalizeEmail(*r.ContactEmail)
	}
	if r.SizeBucket != nil {
		*r.SizeBucket = strings.ToLower(strings.TrimSpace(*r.SizeBucket))
	}
}

func (r *UpdateClientCompanyRequest) Validate() error {
	if r.LegalName == nil && r.TradeName == nil && r.ContactEmail == nil &&
		r.ContactPhone == nil && r.Sector == nil && r.SizeBucket == nil {
		return dErrors.New(dErrors.CodeBadRequest, "no fields to update")
	}
	return nil
}

func (r *UpdateClientCompanyRequest) toCommand() service.UpdateClientCompanyCommand {
	cmd := service.UpdateClientCompanyCommand{
		LegalName:    r.LegalName,
		TradeName:    r.TradeName,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
		Sector:       r.Sector,
	}
	if r.SizeBucket != nil {
		bucket := models.SizeBucket(*r.SizeBucket)
		cmd.SizeBucket = &bucket
	}
	return cmd
}

type CreateCompanyUserRequest struct {
	Name      string `json:"name" validate:"notblank,max=200"`
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"required,oneof=admin manager viewer"`
	SubjectID string `json:"subject_id,omitempty"`
}

func (r *CreateCompanyUserRequest) Normalize() {
	s.TrimStrings(&r.Name, &r.SubjectID)
	r.Email = s.NormalizeEmail(r.Email)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *CreateCompanyUserRequest) toCommand(companyID id.ClientCompanyID) service.CreateCompanyUserCommand {
	return service.CreateCompanyUserCommand{
		ClientCompanyID: companyID,
		Name:            r.Name,
		Email:           r.Email,
		Role:            models.CompanyRole(r.Role),
		SubjectID:       id.SubjectID(r.SubjectID),
	}
}

type UpdateCompanyUserRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Role  *string `json:"role,omitempty" validate:"omitempty,oneof=admin manager viewer"`
}

func (r *UpdateCompanyUserRequest) Normalize() {
	s.TrimOptional(&r.Name)
	if r.Email != nil {
		*r.Email = s.NormalizeEmail(*r.Email)
	}
	if r.Role != nil {
		*r.Role = strings.ToLower(strings.TrimSpace(*r.Role))
	}
}

func (r *UpdateCompanyUserRequest) Validate() error {
	if r.Name == nil && r.Email == nil && r.Role == nil {
		return dErrors.New(dErrors.CodeBadRequest, "no fields to update")
	}
	return nil
}

func (r *UpdateCompanyUserRequest) toCommand() service.UpdateCompanyUserCommand {
	cmd := service.UpdateCompanyUserCommand{Name: r.Name, Email: r.Email}
	if r.Role != nil {
		role := models.CompanyRole(*r.Role)
		cmd.Role = &role
	}
	return cmd
}

type LinkSubjectRequest struct {
	SubjectID string `json:"subject_id" validate:"notblank"`
}

func (r *LinkSubjectRequest) Normalize() {
	r.SubjectID = strings.TrimSpace(r.SubjectID)
}
