package models

import (
	"strings"
	"time"

	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/validation"
	str "consulthub/pkg/string"
)

// CompanyUser is a staff account scoped to exactly one client company.
// SubjectID stays empty until an identity-provider subject is linked.
type CompanyUser struct {
	ID              id.CompanyUserID   `json:"id"`
	SubjectID       id.SubjectID       `json:"subject_id,omitempty"`
	ConsultancyID   id.ConsultancyID   `json:"consultancy_id"`
	ClientCompanyID id.ClientCompanyID `json:"client_company_id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Role            CompanyRole        `json:"role"`
	Active          bool               `json:"active"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func NewCompanyUser(userID id.CompanyUserID, company *ClientCompany, name, email string, role CompanyRole, now time.Time) (*CompanyUser, error) {
	u := &CompanyUser{
		ID:              userID,
		ConsultancyID:   company.ConsultancyID,
		ClientCompanyID: company.ID,
		Active:          true,
		CreatedAt:       now,
	}
	if err := u.Change(name, email, role, now); err != nil {
		return nil, err
	}
	return u, nil
}

// Change updates the editable profile fields.
func (u *CompanyUser) Change(name, email string, role CompanyRole, now time.Time) error {
	name = strings.TrimSpace(name)
	email = str.NormalizeEmail(email)
	if name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "company user name cannot be empty")
	}
	if len(name) > validation.MaxNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "company user name is too long")
	}
	if email == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "company user email cannot be empty")
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown company role")
	}
	u.Name = name
	u.Email = email
	u.Role = role
	u.UpdatedAt = now
	return nil
}

func (u *CompanyUser) IsAdmin() bool {
	return u.Role == CompanyRoleAdmin
}

// Deactivate blocks the account from resolving to a principal.
func (u *CompanyUser) Deactivate(now time.Time) error {
	if !u.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "company user is already inactive")
	}
	u.Active = false
	u.UpdatedAt = now
	return nil
}

func (u *CompanyUser) Reactivate(now time.Time) error {
	if u.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "company user is already active")
	}
	u.Active = true
	u.UpdatedAt = now
	return nil
}

// LinkSubject binds the account to an identity-provider subject.
func (u *CompanyUser) LinkSubject(subject id.SubjectID, now time.Time) error {
	if subject.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "subject cannot be empty")
	}
	u.SubjectID = subject
	u.UpdatedAt = now
	return nil
}
