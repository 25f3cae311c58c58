package enricher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sweetpotato0/ai-desk/middleware"
)

// EnricherFunc enriches the context
type EnricherFunc func(*middleware.Context) error

// ContextEnricher adds additional data to the middleware context
type ContextEnricher struct {
	enricher EnricherFunc
}

// NewContextEnricher creates a context enriching middleware
func NewContextEnricher(enricher EnricherFunc) *ContextEnricher {
	return &ContextEnricher{enricher: enricher}
}

// NewRequestID assigns a random request id unless the context already has one.
func NewRequestID() *ContextEnricher {
	return NewContextEnricher(func(ctx *middleware.Context) error {
		if ctx.RequestID == "" {
			ctx.RequestID = uuid.NewString()
		}
		return nil
	})
}

// Name returns the middleware name
func (m *ContextEnricher) Name() string {
	return "ContextEnricher"
}

// Execute enriches the context
func (m *ContextEnricher) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.enricher != nil {
		if err := m.enricher(ctx); err != nil {
			return err
		}
	}
	return next(ctx)
}

// Deadline bounds the rest of the chain with a timeout.
type Deadline struct {
	timeout time.Duration
}

// NewDeadline creates a deadline middleware. A non-positive timeout leaves the
// context untouched.
func NewDeadline(timeout time.Duration) *Deadline {
	return &Deadline{timeout: timeout}
}

// Name returns the middleware name
func (m *Deadline) Name() string {
	return "Deadline"
}

// Execute runs next under a context that expires after the timeout.
func (m *Deadline) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.timeout <= 0 {
		return next(ctx)
	}
	parent := ctx.Context()
	bounded, cancel := context.WithTimeout(parent, m.timeout)
	defer cancel()

	ctx.WithContext(bounded)
	defer ctx.WithContext(parent)
	return next(ctx)
}
