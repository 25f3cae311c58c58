// Package router turns a raw {tool, payload} request into exactly one
// provider capability call and shapes the result into an Envelope.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/ai-desk/contrib/provider"
	apperrors "github.com/sweetpotato0/ai-desk/errors"
	"github.com/sweetpotato0/ai-desk/middleware"
	"github.com/sweetpotato0/ai-desk/middleware/enricher"
	"github.com/sweetpotato0/ai-desk/middleware/errorhandler"
	"github.com/sweetpotato0/ai-desk/middleware/logger"
	"github.com/sweetpotato0/ai-desk/middleware/validator"
	"github.com/sweetpotato0/ai-desk/pkg/logging"
	"github.com/sweetpotato0/ai-desk/pkg/telemetry"
	"github.com/sweetpotato0/ai-desk/tool"
)

const internalError = "Internal server error"

// Router dispatches tool requests to a provider.
type Router struct {
	factory provider.Factory
	chain   *middleware.MiddlewareChain
	logger  *slog.Logger
	timeout time.Duration
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for request and failure logs.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTimeout bounds every dispatch. Zero means no deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Router) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithMetrics records request counts and durations.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(r *Router) {
		r.metrics = metrics
	}
}

// WithTracer overrides the tracer used for dispatch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Router) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// New creates a Router that resolves its provider through factory on every request.
func New(factory provider.Factory, opts ...Option) *Router {
	r := &Router{
		factory: factory,
		logger:  logging.WithComponent("router"),
		tracer:  telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.chain = middleware.NewChain(
		errorhandler.NewErrorHandler(r.classify),
		enricher.NewRequestID(),
		logger.NewRequestLogger(r.logger),
		logger.NewResponseLogger(r.logger),
		validator.NewSchemaValidator(),
	)
	if r.timeout > 0 {
		r.chain.Add(enricher.NewDeadline(r.timeout))
	}
	return r
}

// Dispatch routes one request body. It never panics and always returns a
// well-formed envelope.
func (r *Router) Dispatch(ctx context.Context, body []byte) Response {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "router.Dispatch")

	mctx := middleware.NewContext(ctx, body)
	err := r.chain.Execute(mctx, r.invoke)

	var resp Response
	code := "ok"
	if err != nil {
		classified := apperrors.Normalize(err)
		code = string(classified.Kind)
		resp = Response{Status: classified.Status(), Envelope: Failure(classified)}
	} else {
		resp = Response{Status: http.StatusOK, Envelope: Success(mctx.Result)}
	}

	span.SetAttributes(
		attribute.String("aidesk.request_id", mctx.RequestID),
		attribute.String("aidesk.tool", string(mctx.Tool)),
		attribute.String("aidesk.code", code),
	)
	telemetry.End(span, err)
	r.metrics.Record(ctx, string(mctx.Tool), code, time.Since(start))
	return resp
}

// ServeHTTP reads the request body, dispatches it and writes the envelope.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var resp Response
	body, err := io.ReadAll(req.Body)
	if err != nil {
		classified := apperrors.Wrap(apperrors.KindRuntime,
			fmt.Sprintf("failed to read request body: %v", err), err)
		resp = Response{Status: classified.Status(), Envelope: Failure(classified)}
	} else {
		resp = r.Dispatch(req.Context(), body)
	}
	WriteJSON(w, resp.Status, resp.Envelope)
}

// classify is the chain boundary: every failure leaves it as one *apperrors.Error.
func (r *Router) classify(ctx *middleware.Context, err error) error {
	var panicErr *errorhandler.PanicError
	if errors.As(err, &panicErr) {
		r.logger.ErrorContext(ctx.Context(), "router recovered panic",
			"request_id", ctx.RequestID,
			"panic", fmt.Sprint(panicErr.Value),
			"stack", string(panicErr.Stack))
		return apperrors.Wrap(apperrors.KindRuntime, internalError, err)
	}
	return apperrors.Normalize(err)
}

// invoke resolves the provider and calls the one capability matching the
// validated input.
func (r *Router) invoke(ctx *middleware.Context) error {
	if ctx.Input == nil {
		return middleware.ErrNotValidated
	}
	if r.factory == nil {
		return apperrors.NotConfigured("", "No AI provider is configured.")
	}

	p, err := r.factory(ctx.Context())
	if err != nil {
		return err
	}
	if p == nil {
		return apperrors.NotConfigured("", "No AI provider is configured.")
	}

	switch in := ctx.Input.(type) {
	case tool.WriteInput:
		text, err := p.Compose(ctx.Context(), in)
		if err != nil {
			return err
		}
		ctx.Result = text

	case tool.IdeasInput:
		result, err := p.GenerateIdeas(ctx.Context(), in)
		if err != nil {
			return err
		}
		if result == nil {
			result = &tool.IdeasResult{}
		}
		if result.Items == nil {
			result.Items = []tool.IdeaItem{}
		}
		ctx.Result = result

	case tool.FocusInput:
		result, err := p.SuggestPriorities(ctx.Context(), in)
		if err != nil {
			return err
		}
		if result == nil {
			result = &tool.FocusResult{}
		}
		if result.Items == nil {
			result.Items = []tool.PriorityItem{}
		}
		ctx.Result = result

	default:
		return apperrors.Wrap(apperrors.KindValidationOrRuntime, "Unsupported tool", apperrors.ErrInvalidInput)
	}
	return nil
}
