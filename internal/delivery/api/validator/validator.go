// Package validator plugs go-playground/validator into echo's Validator hook.
package validator

import (
	"reflect"
	"strings"

	domainerrors "account/internal/domain/errors"
	"account/internal/errors"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected request field, keyed by its JSON name.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError carries the rejected fields of a request DTO.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		names = append(names, field.Field+":"+field.Rule)
	}

	return "validation failed: " + strings.Join(names, ", ")
}

// Is makes a ValidationError match ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == domainerrors.ErrValidationFailed
}

// HTTPCode, ErrorCode, Message and Details let the error handler treat it as an AppError.
func (e *ValidationError) HTTPCode() int { return domainerrors.ErrValidationFailed.HTTPCode() }

func (e *ValidationError) ErrorCode() string { return domainerrors.ErrValidationFailed.ErrorCode() }

func (e *ValidationError) Message() string { return domainerrors.ErrValidationFailed.Message() }

func (e *ValidationError) Details() string { return e.Error() }

// RequestValidator implements echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

// New builds a validator that reports fields by their json tag.
func New() *RequestValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form", "param"} {
			name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}

		return field.Name
	})

	return &RequestValidator{validate: validate}
}

// Validate checks the struct tags of i.
func (v *RequestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(domainerrors.ErrValidationFailed, err.Error())
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fieldErr := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Field: fieldErr.Field(),
			Rule:  fieldErr.Tag(),
		})
	}

	return out
}
