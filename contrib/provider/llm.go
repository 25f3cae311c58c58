package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/sweetpotato0/ai-desk/errors"
	"github.com/sweetpotato0/ai-desk/message"
	"github.com/sweetpotato0/ai-desk/prompt"
	"github.com/sweetpotato0/ai-desk/tool"
)

// Defaults applied when the request leaves a field out.
const (
	DefaultTone       = tool.ToneNeutral
	DefaultLength     = tool.LengthMedium
	DefaultIdeasCount = 5
	DefaultFocusCount = 3

	IdeasTemperature = 0.8
	FocusTemperature = 0.7
)

// LLM implements Provider by prompting a Completer.
type LLM struct {
	completer Completer
	prompts   *prompt.Manager
}

// Option configures an LLM.
type Option func(*LLM)

// WithPrompts replaces the built-in prompt templates. The manager must hold
// templates named after each tool plus prompt.FocusSystem.
func WithPrompts(m *prompt.Manager) Option {
	return func(l *LLM) {
		l.prompts = m
	}
}

// NewLLM creates a provider backed by c.
func NewLLM(c Completer, opts ...Option) (*LLM, error) {
	if c == nil {
		return nil, fmt.Errorf("completer cannot be nil")
	}
	l := &LLM{completer: c}
	for _, opt := range opts {
		opt(l)
	}
	if l.prompts == nil {
		m, err := prompt.NewBuiltinManager()
		if err != nil {
			return nil, err
		}
		l.prompts = m
	}
	return l, nil
}

// Compose implements Provider.
func (l *LLM) Compose(ctx context.Context, in tool.WriteInput) (string, error) {
	tone := in.Tone
	if tone == "" {
		tone = DefaultTone
	}
	length := in.Length
	if length == "" {
		length = DefaultLength
	}

	text, err := l.prompts.Render(prompt.Write, map[string]any{
		"Topic":             in.Topic,
		"Tone":              tone,
		"Length":            length,
		"ToneInstruction":   prompt.ToneInstructions[tone],
		"LengthInstruction": prompt.LengthInstructions[length],
		"Outline":           in.Outline,
	})
	if err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	out, err := l.completer.Complete(ctx, &CompletionRequest{
		Messages: []*message.Message{message.User(text)},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return ComposeFallback(l.completer.Name()), nil
	}
	return out, nil
}

// GenerateIdeas implements Provider.
func (l *LLM) GenerateIdeas(ctx context.Context, in tool.IdeasInput) (*tool.IdeasResult, error) {
	count := in.Count
	if count == 0 {
		count = DefaultIdeasCount
	}

	text, err := l.prompts.Render(prompt.Ideas, map[string]any{
		"Topic": in.Topic,
		"Count": count,
		"Tags":  in.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("ideas prompt: %w", err)
	}

	out, err := l.completer.Complete(ctx, &CompletionRequest{
		Messages:    []*message.Message{message.User(text)},
		Temperature: IdeasTemperature,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeArray[tool.IdeaItem](l.completer.Name(), out)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Tags == nil {
			items[i].Tags = []string{}
		}
	}
	return &tool.IdeasResult{Items: items}, nil
}

// SuggestPriorities implements Provider.
func (l *LLM) SuggestPriorities(ctx context.Context, in tool.FocusInput) (*tool.FocusResult, error) {
	count := in.Count
	if count == 0 {
		count = DefaultFocusCount
	}

	system, err := l.prompts.Render(prompt.FocusSystem, nil)
	if err != nil {
		return nil, fmt.Errorf("focus system prompt: %w", err)
	}
	text, err := l.prompts.Render(prompt.Focus, map[string]any{
		"Context":            in.Context,
		"Count":              count,
		"ExistingPriorities": in.ExistingPriorities,
	})
	if err != nil {
		return nil, fmt.Errorf("focus prompt: %w", err)
	}

	out, err := l.completer.Complete(ctx, &CompletionRequest{
		Messages:    []*message.Message{message.System(system), message.User(text)},
		Temperature: FocusTemperature,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeArray[tool.PriorityItem](l.completer.Name(), out)
	if err != nil {
		return nil, err
	}
	return &tool.FocusResult{Items: items}, nil
}

// ComposeFallback is the draft returned when the backend replies with no text.
func ComposeFallback(backend string) string {
	return fmt.Sprintf("Failed to generate content from %s.", backend)
}

// decodeArray parses a JSON array out of a model reply. Markdown code fences
// and any text around the outermost brackets are discarded. A blank reply is
// an empty array.
func decodeArray[T any](backend, reply string) ([]T, error) {
	if strings.TrimSpace(reply) == "" {
		return make([]T, 0), nil
	}
	cleaned := ExtractJSONArray(reply)

	var probe any
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return nil, apperrors.Upstream(apperrors.ClassUnavailable, backend,
			fmt.Sprintf("Invalid JSON response from %s: %v", backend, err), err)
	}
	if _, ok := probe.([]any); !ok {
		return nil, apperrors.Upstream(apperrors.ClassUnavailable, backend,
			fmt.Sprintf("Invalid response format from %s - expected array", backend), nil)
	}

	items := make([]T, 0)
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, apperrors.Upstream(apperrors.ClassUnavailable, backend,
			fmt.Sprintf("Invalid JSON response from %s: %v", backend, err), err)
	}
	return items, nil
}

// ExtractJSONArray strips code fences from reply and returns the text between
// the first '[' and the last ']'. Without brackets the trimmed text is returned.
func ExtractJSONArray(reply string) string {
	s := strings.TrimSpace(reply)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.LastIndex(s, "```"); j >= 0 {
			s = s[:j]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
