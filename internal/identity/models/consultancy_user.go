package models

import (
	"strings"
	"time"

	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	str "consulthub/pkg/string"
)

type ConsultancyRole string

const (
	ConsultancyRoleConsultant         ConsultancyRole = "consultant"
	ConsultancyRolePlatformSuperadmin ConsultancyRole = "platform_superadmin"
)

// ConsultancyUser is a person acting for a consultancy, or a platform
// superadmin, who is not bound to one (ConsultancyID is nil).
type ConsultancyUser struct {
	ID            id.ConsultancyUserID `json:"id"`
	SubjectID     id.SubjectID         `json:"subject_id"`
	ConsultancyID id.ConsultancyID     `json:"consultancy_id"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	Role          ConsultancyRole      `json:"role"`
	CreatedAt     time.Time            `json:"created_at"`
}

func NewConsultant(userID id.ConsultancyUserID, subject id.SubjectID, consultancyID id.ConsultancyID, name, email string, now time.Time) (*ConsultancyUser, error) {
	if consultancyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "consultant must belong to a consultancy")
	}
	return newConsultancyUser(userID, subject, consultancyID, name, email, ConsultancyRoleConsultant, now)
}

func NewPlatformSuperadmin(userID id.ConsultancyUserID, subject id.SubjectID, name, email string, now time.Time) (*ConsultancyUser, error) {
	return newConsultancyUser(userID, subject, id.ConsultancyID{}, name, email, ConsultancyRolePlatformSuperadmin, now)
}

func newConsultancyUser(userID id.ConsultancyUserID, subject id.SubjectID, consultancyID id.ConsultancyID, name, email string, role ConsultancyRole, now time.Time) (*ConsultancyUser, error) {
	if subject.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "subject cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	return &ConsultancyUser{
		ID:            userID,
		SubjectID:     subject,
		ConsultancyID: consultancyID,
		Name:          name,
		Email:         str.NormalizeEmail(email),
		Role:          role,
		CreatedAt:     now,
	}, nil
}

func (u *ConsultancyUser) IsSuperadmin() bool {
	return u.Role == ConsultancyRolePlatformSuperadmin
}

// Principal converts the record into its principal variant.
func (u *ConsultancyUser) Principal() Principal {
	if u.IsSuperadmin() {
		return PlatformSuperadmin{UserID: u.ID, SubjectID: u.SubjectID, Name: u.Name, Email: u.Email}
	}
	return Consultant{UserID: u.ID, SubjectID: u.SubjectID, ConsultancyID: u.ConsultancyID, Name: u.Name, Email: u.Email}
}
