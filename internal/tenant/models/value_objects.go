package models

type ConsultancyStatus string

const (
	ConsultancyStatusActive    ConsultancyStatus = "active"
	ConsultancyStatusSuspended ConsultancyStatus = "suspended"
	ConsultancyStatusCanceled  ConsultancyStatus = "canceled"
)

type ClientCompanyStatus string

const (
	ClientCompanyStatusActive   ClientCompanyStatus = "active"
	ClientCompanyStatusInactive ClientCompanyStatus = "inactive"
)

func (s ClientCompanyStatus) IsValid() bool {
	return s == ClientCompanyStatusActive || s == ClientCompanyStatusInactive
}

// SizeBucket is the headcount band of a client company.
type SizeBucket string

const (
	SizeMicro      SizeBucket = "micro"
	SizeSmall      SizeBucket = "small"
	SizeMedium     SizeBucket = "medium"
	SizeLarge      SizeBucket = "large"
	SizeEnterprise SizeBucket = "enterprise"
)

func (b SizeBucket) IsValid() bool {
	switch b {
	case SizeMicro, SizeSmall, SizeMedium, SizeLarge, SizeEnterprise:
		return true
	}
	return false
}

// CompanyRole is the role of a company user inside its client company.
type CompanyRole string

const (
	CompanyRoleAdmin   CompanyRole = "admin"
	CompanyRoleManager CompanyRole = "manager"
	CompanyRoleViewer  CompanyRole = "viewer"
)

func (r CompanyRole) IsValid() bool {
	switch r {
	case CompanyRoleAdmin, CompanyRoleManager, CompanyRoleViewer:
		return true
	}
	return false
}

// ClientCompanyFilter narrows client company listings.
type ClientCompanyFilter struct {
	Status ClientCompanyStatus
}
