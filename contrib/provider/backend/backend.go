// Package backend resolves the configured completion backend into a
// provider.Factory.
package backend

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/sweetpotato0/ai-desk/config"
	"github.com/sweetpotato0/ai-desk/contrib/provider"
	"github.com/sweetpotato0/ai-desk/contrib/provider/claude"
	"github.com/sweetpotato0/ai-desk/contrib/provider/gemini"
	"github.com/sweetpotato0/ai-desk/contrib/provider/openrouter"
	apperrors "github.com/sweetpotato0/ai-desk/errors"
)

// ErrUnknownBackend is returned for a backend name that has no implementation.
var ErrUnknownBackend = stderrors.New("unknown provider backend")

// NewCompleter builds the completer selected by cfg.Provider. A missing API
// key yields an error built with errors.NotConfigured.
func NewCompleter(cfg *config.Config) (provider.Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouter:
		c := cfg.OpenRouter
		if c.APIKey == "" {
			return nil, apperrors.NotConfigured(openrouter.Name,
				"OpenRouter API key is required. Set OPENROUTER_API_KEY environment variable.")
		}
		return openrouter.New(&openrouter.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: c.Temperature,
			SiteURL:     c.SiteURL,
			SiteName:    c.SiteName,
		}), nil

	case config.ProviderAnthropic:
		c := cfg.Anthropic
		if c.APIKey == "" {
			return nil, apperrors.NotConfigured(claude.Name,
				"Anthropic API key is required. Set ANTHROPIC_API_KEY environment variable.")
		}
		return claude.New(&claude.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: c.Temperature,
		}), nil

	case config.ProviderGemini:
		c := cfg.Gemini
		if c.APIKey == "" {
			return nil, apperrors.NotConfigured(gemini.Name,
				"Gemini API key is required. Set GEMINI_API_KEY environment variable.")
		}
		return gemini.New(&gemini.Config{
			APIKey:      c.APIKey,
			Model:       c.Model,
			Endpoint:    c.Endpoint,
			MaxTokens:   int32(c.MaxTokens),
			Temperature: float32(c.Temperature),
		}), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Provider)
	}
}

// NewFactory returns the factory the router resolves providers with.
// Resolution failures (missing credentials, unknown backend) are reported by
// the factory on every request rather than here, so a misconfigured process
// still starts and answers each request with an error envelope.
func NewFactory(cfg *config.Config, opts ...provider.Option) (provider.Factory, error) {
	completer, err := NewCompleter(cfg)
	if err != nil {
		return func(context.Context) (provider.Provider, error) {
			return nil, err
		}, nil
	}

	llm, err := provider.NewLLM(completer, opts...)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", completer.Name(), err)
	}
	return provider.Static(llm), nil
}
