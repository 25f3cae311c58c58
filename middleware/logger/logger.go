package logger

import (
	"log/slog"
	"time"

	apperrors "github.com/sweetpotato0/ai-desk/errors"
	"github.com/sweetpotato0/ai-desk/middleware"
)

// RequestLogger logs incoming requests
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger creates a request logging middleware. A nil logger disables it.
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

// Name returns the middleware name
func (m *RequestLogger) Name() string {
	return "RequestLogger"
}

// Execute logs the request
func (m *RequestLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.logger != nil {
		m.logger.DebugContext(ctx.Context(), "router request",
			"request_id", ctx.RequestID,
			"bytes", len(ctx.Body))
	}
	return next(ctx)
}

// ResponseLogger logs the outcome of a request once the rest of the chain returns
type ResponseLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewResponseLogger creates a response logging middleware. A nil logger disables it.
func NewResponseLogger(logger *slog.Logger) *ResponseLogger {
	return &ResponseLogger{logger: logger, now: time.Now}
}

// Name returns the middleware name
func (m *ResponseLogger) Name() string {
	return "ResponseLogger"
}

// Execute logs the response
func (m *ResponseLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	start := m.now()
	err := next(ctx)
	if m.logger == nil {
		return err
	}

	attrs := []any{
		"request_id", ctx.RequestID,
		"tool", string(ctx.Tool),
		"duration_ms", m.now().Sub(start).Milliseconds(),
	}
	if err == nil {
		m.logger.InfoContext(ctx.Context(), "router response", attrs...)
		return nil
	}

	classified := apperrors.Normalize(err)
	attrs = append(attrs,
		"code", string(classified.Kind),
		"status", classified.Status(),
		"error", err.Error())
	if classified.Kind == apperrors.KindRuntime {
		m.logger.ErrorContext(ctx.Context(), "router request failed", attrs...)
	} else {
		m.logger.WarnContext(ctx.Context(), "router request rejected", attrs...)
	}
	return err
}
