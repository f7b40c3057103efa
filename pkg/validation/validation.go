// Package validation validates request structs with go-playground/validator
// tags and converts failures into field-level domain errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "consulthub/pkg/domain-errors"
	s "consulthub/pkg/string"
)

// Request limits shared by handlers.
const (
	// MaxBodySize is the maximum accepted JSON request body (64 KB).
	MaxBodySize = 64 * 1024
	// MaxNameLength bounds person and company names.
	MaxNameLength = 200
	// MaxReasonLength bounds suspension reasons and impersonation justifications.
	MaxReasonLength = 1000
)

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates a struct using the default validator and returns a
// validation domain error carrying one message per failing field.
func Validate(req any) error {
	err := defaultValidator.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "invalid request body")
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		field := fieldName(fe)
		if _, seen := fields[field]; !seen {
			fields[field] = message(fe, field)
		}
	}
	return dErrors.NewValidation(message(validationErrs[0], fieldName(validationErrs[0])), fields)
}

func fieldName(fe validator.FieldError) string {
	if name := fe.Field(); name != "" {
		return s.ToSnakeCase(name)
	}
	return s.ToSnakeCase(fe.StructField())
}

func message(fe validator.FieldError, field string) string {
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid uuid", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "e164":
		return fmt.Sprintf("%s must be an E.164 phone number", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
