package schema

import (
	"strings"

	apperrors "github.com/sweetpotato0/ai-desk/errors"
)

// Violation is a single failed constraint.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// Validator collects violations so that every failed constraint is reported,
// not just the first one.
type Validator struct {
	violations []Violation
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Add records a violation for field.
func (v *Validator) Add(field, message string) *Validator {
	v.violations = append(v.violations, Violation{Field: field, Message: message})
	return v
}

// HasErrors returns true if there are any violations.
func (v *Validator) HasErrors() bool {
	return len(v.violations) > 0
}

// Message joins every violation into one user-displayable line.
func (v *Validator) Message() string {
	parts := make([]string, len(v.violations))
	for i, violation := range v.violations {
		parts[i] = violation.String()
	}
	return strings.Join(parts, "; ")
}

// Err returns nil when nothing failed, otherwise a VALIDATION_OR_RUNTIME error.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return apperrors.Wrap(apperrors.KindValidationOrRuntime, v.Message(), apperrors.ErrInvalidInput)
}
