// Package validation checks catalog and account input before it is written.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"resourcehub/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates v against its `validate` tags and reports the first
// failing field as a validation error.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return models.NewValidationError(describe(fieldErrs[0]))
	}
	return models.NewValidationError(err.Error())
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid link", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}

// ValidateEmail checks an address used for a user profile.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return models.NewValidationError("email must be a valid email address")
	}
	return nil
}
