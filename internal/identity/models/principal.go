// Package models defines the resolved identity of a request.
package models

import (
	tenantmodels "consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/requestcontext"
)

// Kind names a principal variant.
type Kind string

const (
	KindPlatformSuperadmin Kind = "platform_superadmin"
	KindConsultant         Kind = "consultant"
	KindCompanyUser        Kind = "company_user"
	// KindSystem marks mutations performed by operator tooling outside a request.
	KindSystem Kind = "system"
)

// Principal is the acting identity of a request, resolved once from the
// verified subject. The set of variants is closed: PlatformSuperadmin,
// Consultant and CompanyUser.
type Principal interface {
	Kind() Kind
	Subject() id.SubjectID
	// Scope is the tenant boundary the principal operates in.
	Scope() requestcontext.TenantScope
	// Actor describes the principal on audit records.
	Actor() Actor
	isPrincipal()
}

// Actor is the identity attached to an audit record.
type Actor struct {
	ID    string `json:"id"`
	Type  Kind   `json:"type"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SystemActor is recorded when no principal is present.
var SystemActor = Actor{ID: "system", Type: KindSystem, Name: "system"}

type PlatformSuperadmin struct {
	UserID    id.ConsultancyUserID
	SubjectID id.SubjectID
	Name      string
	Email     string
}

type Consultant struct {
	UserID        id.ConsultancyUserID
	SubjectID     id.SubjectID
	ConsultancyID id.ConsultancyID
	Name          string
	Email         string
}

type CompanyUser struct {
	UserID          id.CompanyUserID
	SubjectID       id.SubjectID
	ClientCompanyID id.ClientCompanyID
	ConsultancyID   id.ConsultancyID
	Role            tenantmodels.CompanyRole
	Active          bool
	Name            string
	Email           string
}

func (PlatformSuperadmin) isPrincipal() {}
func (Consultant) isPrincipal()         {}
func (CompanyUser) isPrincipal()        {}

func (PlatformSuperadmin) Kind() Kind { return KindPlatformSuperadmin }
func (Consultant) Kind() Kind         { return KindConsultant }
func (CompanyUser) Kind() Kind        { return KindCompanyUser }

func (p PlatformSuperadmin) Subject() id.SubjectID { return p.SubjectID }
func (p Consultant) Subject() id.SubjectID         { return p.SubjectID }
func (p CompanyUser) Subject() id.SubjectID        { return p.SubjectID }

func (PlatformSuperadmin) Scope() requestcontext.TenantScope {
	return requestcontext.PlatformScope()
}

func (p Consultant) Scope() requestcontext.TenantScope {
	return requestcontext.TenantScope{ConsultancyID: p.ConsultancyID}
}

func (p CompanyUser) Scope() requestcontext.TenantScope {
	return requestcontext.TenantScope{ConsultancyID: p.ConsultancyID, ClientCompanyID: p.ClientCompanyID}
}

func (p PlatformSuperadmin) Actor() Actor {
	return Actor{ID: p.UserID.String(), Type: KindPlatformSuperadmin, Name: p.Name, Email: p.Email}
}

func (p Consultant) Actor() Actor {
	return Actor{ID: p.UserID.String(), Type: KindConsultant, Name: p.Name, Email: p.Email}
}

func (p CompanyUser) Actor() Actor {
	return Actor{ID: p.UserID.String(), Type: KindCompanyUser, Name: p.Name, Email: p.Email}
}

// IsCompanyAdmin reports whether the company user administers its company.
func (p CompanyUser) IsCompanyAdmin() bool {
	return p.Role == tenantmodels.CompanyRoleAdmin
}
