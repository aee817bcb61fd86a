// Package validation validates HTTP request bodies at the boundary.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

// FieldError describes one failed rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Validator wraps go-playground/validator with JSON field names and
// INVALID_INPUT errors
type Validator struct {
	validate *validator.Validate
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a validator with the custom rules registered
func NewValidator() *Validator {
	v := &Validator{validate: validator.New()}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// a label must keep at least one non-space character
	_ = v.validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// Validate checks i against its struct tags
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to an INVALID_INPUT AppError
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.InvalidInput("%s", err.Error())
	}

	fields := make([]FieldError, 0, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := fieldPath(e)
		message := errorMessage(e.Tag(), e.Param(), e.Kind())
		fields = append(fields, FieldError{
			Field:   field,
			Message: message,
			Code:    strings.ToUpper(e.Tag()),
		})
		messages = append(messages, fmt.Sprintf("%s: %s", field, message))
	}

	return apperrors.InvalidInput("%s", strings.Join(messages, "; ")).
		WithDetail("fields", fields)
}

// fieldPath drops the struct name from the namespace, e.g. "topics[2]"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func errorMessage(tag, param string, kind reflect.Kind) string {
	unit := "characters"
	if kind == reflect.Slice || kind == reflect.Array {
		unit = "items"
	}

	switch tag {
	case "required":
		return "This field is required"
	case "notblank":
		return "Must not be blank"
	case "min":
		return fmt.Sprintf("Must be at least %s %s", param, unit)
	case "max":
		return fmt.Sprintf("Must be at most %s %s", param, unit)
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", param)
	case "dive":
		return "Invalid item in collection"
	default:
		return fmt.Sprintf("Failed %s validation", tag)
	}
}
