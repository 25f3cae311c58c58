package errorhandler

import (
	"fmt"
	"runtime/debug"

	"github.com/sweetpotato0/ai-desk/middleware"
)

// ErrorHandlerFunc handles errors
type ErrorHandlerFunc func(*middleware.Context, error) error

// PanicError is a panic recovered from a downstream middleware or handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler is the boundary of the middleware chain: it recovers panics,
// lets handler rewrite the failure and records the result in ctx.Error.
type ErrorHandler struct {
	handler ErrorHandlerFunc
}

// NewErrorHandler creates an error handling middleware
func NewErrorHandler(handler ErrorHandlerFunc) *ErrorHandler {
	return &ErrorHandler{handler: handler}
}

// Name returns the middleware name
func (m *ErrorHandler) Name() string {
	return "ErrorHandler"
}

// Execute handles errors from downstream middlewares
func (m *ErrorHandler) Execute(ctx *middleware.Context, next middleware.Handler) error {
	err := m.run(ctx, next)
	if err != nil && m.handler != nil {
		err = m.handler(ctx, err)
	}
	ctx.Error = err
	return err
}

func (m *ErrorHandler) run(ctx *middleware.Context, next middleware.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return next(ctx)
}
