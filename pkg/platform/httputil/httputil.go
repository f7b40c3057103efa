package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "consulthub/pkg/domain-errors"
)

// PlanSelectionPath is where consultants without an active subscription are sent.
const PlanSelectionPath = "/plans"

// tenantMismatchDescription is deliberately identical for foreign and
// nonexistent records so responses never confirm that a record exists.
const tenantMismatchDescription = "the requested resource is not available"

// accountUnavailableDescription covers both unprovisioned and inactive accounts.
const accountUnavailableDescription = "this account cannot access the platform"

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
	RedirectTo       string            `json:"redirect_to,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: DomainCodeToHTTPCode(dErrors.CodeInternal)})
		return
	}

	response := ErrorResponse{
		Error:            DomainCodeToHTTPCode(domainErr.Code),
		ErrorDescription: domainErr.Message,
		Fields:           domainErr.Fields,
	}
	switch domainErr.Code {
	case dErrors.CodeTenantMismatch:
		response.ErrorDescription = tenantMismatchDescription
	case dErrors.CodeAccountInactive, dErrors.CodeAccountNotProvisioned:
		response.ErrorDescription = accountUnavailableDescription
	case dErrors.CodeInternal, dErrors.CodeAuditWriteFailure:
		response.ErrorDescription = ""
	case dErrors.CodeSubscriptionInactive:
		response.RedirectTo = PlanSelectionPath
		w.Header().Set("Location", PlanSelectionPath)
	}
	WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeTenantMismatch, dErrors.CodeAccountInactive, dErrors.CodeAccountNotProvisioned:
		return http.StatusForbidden
	case dErrors.CodeSubscriptionInactive:
		return http.StatusSeeOther
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to HTTP error codes (for JSON response).
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodeTenantMismatch:
		return "access_denied"
	case dErrors.CodeAccountInactive, dErrors.CodeAccountNotProvisioned:
		return "account_unavailable"
	case dErrors.CodeSubscriptionInactive:
		return "subscription_inactive"
	case dErrors.CodeTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}
