// Package validate wraps go-playground/validator with the rules used at
// BenchBook's capability boundaries: vector records before upsert and
// search requests before embedding.
package validate

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// Validator wraps the go-playground validator with custom rules.
// It is safe for concurrent use.
type Validator struct {
	validator *validator.Validate
}

// New creates a validator that reports JSON field names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// "finite" rejects NaN and infinite vector components.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < f.Len(); i++ {
			x := f.Index(i).Float()
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
		return true
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validator: v}
}

// Struct validates s and returns a *ValidationError on failure.
func (v *Validator) Struct(s any) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

// Records validates every record and checks they share dim, when dim > 0.
// The first failing record is reported by position and id.
func (v *Validator) Records(records []domain.VectorRecord, dim int) error {
	for i := range records {
		r := &records[i]
		if err := v.Struct(r); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, r.ID, err)
		}
		if dim > 0 && len(r.Vector) != dim {
			return fmt.Errorf("record %d (%s): %w: got %d, want %d",
				i, r.ID, domain.ErrDimensionMismatch, len(r.Vector), dim)
		}
	}
	return nil
}

// ValidationError carries one user-facing message per failing field.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// Error lists the field messages in field order.
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	messages := make([]string, len(fields))
	for i, f := range fields {
		messages[i] = e.Errors[f]
	}
	return "validation failed: " + strings.Join(messages, ", ")
}

// Unwrap makes validation failures match domain.ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return domain.ErrInvalidInput
}

// NewValidationError converts validator errors to field messages.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	out := make(map[string]string, len(errs))
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "min":
			out[field] = fmt.Sprintf("%s must have at least %s elements", field, err.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "gte":
			out[field] = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "lte":
			out[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "datetime":
			out[field] = fmt.Sprintf("%s must be a date formatted %s", field, err.Param())
		case "finite":
			out[field] = fmt.Sprintf("%s must not contain NaN or infinite values", field)
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return &ValidationError{Errors: out}
}
