// Package provider defines the capabilities the router can invoke and the
// adapter that implements them on top of a text completion backend.
package provider

import (
	"context"

	"github.com/sweetpotato0/ai-desk/message"
	"github.com/sweetpotato0/ai-desk/tool"
)

// Provider generates content for the three tools.
type Provider interface {
	// Compose drafts prose for a write request.
	Compose(ctx context.Context, in tool.WriteInput) (string, error)
	// GenerateIdeas returns ideas for the idea board.
	GenerateIdeas(ctx context.Context, in tool.IdeasInput) (*tool.IdeasResult, error)
	// SuggestPriorities returns daily priorities for the focus tracker.
	SuggestPriorities(ctx context.Context, in tool.FocusInput) (*tool.FocusResult, error)
}

// Factory resolves the provider for one request. It fails when no backend is
// usable, for example because credentials are missing.
type Factory func(ctx context.Context) (Provider, error)

// Static returns a factory that always yields p.
func Static(p Provider) Factory {
	return func(context.Context) (Provider, error) {
		return p, nil
	}
}

// CompletionRequest is a single chat completion call.
type CompletionRequest struct {
	Messages []*message.Message
	// Temperature of 0 keeps the backend's configured default.
	Temperature float64
	// MaxTokens of 0 keeps the backend's configured default.
	MaxTokens int64
}

// Completer is a text generation backend. Failures must be returned as
// *errors.UpstreamError, except context errors which are passed through.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}
