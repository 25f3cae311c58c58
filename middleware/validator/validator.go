package validator

import (
	"github.com/sweetpotato0/ai-desk/middleware"
	"github.com/sweetpotato0/ai-desk/schema"
)

// ValidatorFunc validates the request carried by the context
type ValidatorFunc func(*middleware.Context) error

// InputValidator rejects a request before the final handler runs
type InputValidator struct {
	validator ValidatorFunc
}

// NewInputValidator creates an input validation middleware
func NewInputValidator(validator ValidatorFunc) *InputValidator {
	return &InputValidator{validator: validator}
}

// NewSchemaValidator parses the request envelope and validates its payload
// against the selected tool. On success ctx.Tool, ctx.Payload and ctx.Input are set.
func NewSchemaValidator() *InputValidator {
	return NewInputValidator(func(ctx *middleware.Context) error {
		req, err := schema.ParseEnvelope(ctx.Body)
		if err != nil {
			return err
		}
		ctx.Tool = req.Tool
		ctx.Payload = req.Payload

		input, err := schema.Validate(req.Tool, req.Payload)
		if err != nil {
			return err
		}
		ctx.Input = input
		return nil
	})
}

// Name returns the middleware name
func (m *InputValidator) Name() string {
	return "InputValidator"
}

// Execute validates the input
func (m *InputValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.validator != nil {
		if err := m.validator(ctx); err != nil {
			return err
		}
	}
	return next(ctx)
}
