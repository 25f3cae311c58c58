package middleware

import (
	"context"
	"encoding/json"

	"github.com/sweetpotato0/ai-desk/tool"
)

// Context carries one routed request through the middleware chain.
type Context struct {
	// RequestID correlates log lines and spans of one request
	RequestID string

	// Raw request body
	Body []byte

	// Tool and raw payload, set once the envelope is parsed
	Tool    tool.Name
	Payload json.RawMessage

	// Typed, validated payload: tool.WriteInput, tool.IdeasInput or tool.FocusInput
	Input any

	// Capability output: string, *tool.IdeasResult or *tool.FocusResult
	Result any

	// Error from execution, as returned by the outermost middleware
	Error error

	// Internal state
	context context.Context
}

// NewContext creates a new middleware context
func NewContext(ctx context.Context, body []byte) *Context {
	return &Context{
		Body:    body,
		context: ctx,
	}
}

// Context returns the underlying context.Context
func (c *Context) Context() context.Context {
	return c.context
}

// WithContext replaces the underlying context.Context. A nil ctx is ignored.
func (c *Context) WithContext(ctx context.Context) {
	if ctx != nil {
		c.context = ctx
	}
}

// Middleware defines the interface for middleware components
// Middlewares can intercept and modify requests/responses in the routing pipeline
type Middleware interface {
	// Name returns the name of the middleware for logging and debugging
	Name() string

	// Execute runs the middleware logic
	// It receives the current context and a next handler to continue the chain
	// Returning error will stop the middleware chain
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware
type Handler func(*Context) error

// MiddlewareChain represents a sequence of middleware to be executed
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{
		middlewares: middlewares,
	}
}

// Add appends a middleware to the chain
func (c *MiddlewareChain) Add(m Middleware) *MiddlewareChain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Names returns the middleware names in execution order.
func (c *MiddlewareChain) Names() []string {
	names := make([]string, len(c.middlewares))
	for i, m := range c.middlewares {
		names[i] = m.Name()
	}
	return names
}

// Execute runs all middlewares in the chain
func (c *MiddlewareChain) Execute(ctx *Context, finalHandler Handler) error {
	if ctx == nil || ctx.context == nil {
		return ErrInvalidContext
	}
	return c.executeMiddleware(ctx, 0, finalHandler)
}

// executeMiddleware recursively executes middlewares in sequence
func (c *MiddlewareChain) executeMiddleware(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		// All middlewares executed, call the final handler
		return finalHandler(ctx)
	}

	// Create a handler for the next middleware
	nextHandler := func(ctx *Context) error {
		return c.executeMiddleware(ctx, index+1, finalHandler)
	}

	// Execute current middleware
	return c.middlewares[index].Execute(ctx, nextHandler)
}
