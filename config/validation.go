package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field %q: %s", e.Field, e.Message)
}

// Validator provides configuration validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{
		errors: []ValidationError{},
	}
}

// RequireNonEmpty validates that a string field is not empty
func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if value == "" {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: "value cannot be empty",
		})
	}
	return v
}

// RequirePositive validates that an integer field is greater than 0
func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value <= 0 {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be positive, got %d", value),
		})
	}
	return v
}

// ValidateFloatRange validates that a float field is within a range [min, max]
func (v *Validator) ValidateFloatRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be between %.2f and %.2f, got %.2f", min, max, value),
		})
	}
	return v
}

// RequireNonNegative validates that a duration is not negative
func (v *Validator) RequireNonNegative(field string, value time.Duration) *Validator {
	if value < 0 {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value cannot be negative, got %s", value),
		})
	}
	return v
}

// Invalid records a value that could not be parsed.
func (v *Validator) Invalid(field, value string, err error) *Validator {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: fmt.Sprintf("invalid value %q: %v", value, err),
	})
	return v
}

// ValidateOneOf validates that a string value is one of the allowed options
func (v *Validator) ValidateOneOf(field string, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if a == value {
			return v
		}
	}
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be one of %v, got %q", allowed, value),
	})
	return v
}

// HasErrors returns true if there are any validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error returns a combined error message or nil if no errors
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}

	var b strings.Builder
	b.WriteString("configuration validation failed:\n")
	for _, e := range v.errors {
		fmt.Fprintf(&b, "  - %s: %s\n", e.Field, e.Message)
	}
	return errors.New(b.String())
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ValidateLLMConfig validates the tuning of a completion backend. The API key
// is not checked here: a missing key is reported when a request resolves the
// backend.
func ValidateLLMConfig(prefix, model string, temperature float64, maxTokens int) error {
	v := NewValidator()

	v.RequireNonEmpty(prefix+"_MODEL", model)
	v.ValidateFloatRange(prefix+"_TEMPERATURE", temperature, 0.0, 2.0)
	v.RequirePositive(prefix+"_MAX_TOKENS", maxTokens)

	return v.Error()
}
