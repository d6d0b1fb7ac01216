// Package validator wraps go-playground/validator with the client's rules.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*#?&]{8,}$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`\d`)
)

// Validator validates login and registration input before any network call.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with custom rules and JSON field names.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsPassword(fl.Field().String())
	})

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: validate}
}

// Validate checks a struct and returns a *ValidationError on failure.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return err
}

// IsEmail reports whether value is a syntactically valid email address.
func (v *Validator) IsEmail(value string) bool {
	return v.validate.Var(value, "required,email") == nil
}

// IsPassword applies the registration password policy: at least 8 characters
// from [A-Za-z\d@$!%*#?&] with at least one letter and one digit.
func IsPassword(password string) bool {
	return passwordCharset.MatchString(password) &&
		hasLetter.MatchString(password) &&
		hasDigit.MatchString(password)
}

// ValidationError maps JSON field names to messages.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, e.Errors[field])
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, ", "))
}

// NewValidationError creates a ValidationError from validator.ValidationErrors.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	out := make(map[string]string, len(errs))
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "email":
			out[field] = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s characters long", field, err.Param())
		case "password":
			out[field] = "password must be at least 8 characters and contain a letter and a number"
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return &ValidationError{Errors: out}
}
