// Package config loads process configuration from the environment and
// optional dotenv files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider backend names accepted by AIDESK_PROVIDER.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
)

// Providers lists the accepted backend names.
func Providers() []string {
	return []string{ProviderOpenRouter, ProviderAnthropic, ProviderGemini}
}

// DefaultFiles are the dotenv files read by Load, highest precedence first.
var DefaultFiles = []string{".env.local", ".env"}

// Config is the full process configuration.
type Config struct {
	Addr           string
	CORSOrigin     string
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	Environment    string

	Provider   string
	OpenRouter OpenRouterConfig
	Anthropic  AnthropicConfig
	Gemini     GeminiConfig

	Telemetry TelemetryConfig
}

// OpenRouterConfig configures the OpenRouter backend.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
	SiteURL     string
	SiteName    string
}

// AnthropicConfig configures the Anthropic backend.
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Endpoint    string
	MaxTokens   int64
	Temperature float64
}

// TelemetryConfig configures tracing export.
type TelemetryConfig struct {
	Disable  bool
	Endpoint string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Addr:         ":3000",
		CORSOrigin:   "*",
		MaxBodyBytes: 1 << 20,
		Environment:  "development",
		Provider:     ProviderOpenRouter,
		OpenRouter: OpenRouterConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   1000,
			Temperature: 0.7,
			SiteName:    "ai-desk",
		},
		Anthropic: AnthropicConfig{
			Model:       "claude-sonnet-4-5-20250929",
			MaxTokens:   1000,
			Temperature: 0.7,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-1.5-flash",
			MaxTokens:   1000,
			Temperature: 0.7,
		},
	}
}

// Load reads configuration from the process environment, falling back to the
// given dotenv files (DefaultFiles when none are given). Real environment
// variables always win, then files in the order given. Missing files are
// skipped.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = DefaultFiles
	}

	layers := make([]map[string]string, 0, len(files))
	for _, name := range files {
		values, err := godotenv.Read(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		layers = append(layers, values)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		for _, layer := range layers {
			if v, ok := layer[key]; ok {
				return v, true
			}
		}
		return "", false
	}
	return FromLookup(lookup)
}

// FromLookup builds a validated Config from a key lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	r := reader{lookup: lookup, v: NewValidator()}

	r.setString("AIDESK_ADDR", &cfg.Addr)
	r.setString("AIDESK_CORS_ORIGIN", &cfg.CORSOrigin)
	r.setInt64("AIDESK_MAX_BODY", &cfg.MaxBodyBytes)
	r.setDuration("AIDESK_REQUEST_TIMEOUT", &cfg.RequestTimeout)
	r.setString("AIDESK_ENV", &cfg.Environment)
	r.setString("AIDESK_PROVIDER", &cfg.Provider)
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	r.setString("OPENROUTER_API_KEY", &cfg.OpenRouter.APIKey)
	r.setString("OPENROUTER_BASE_URL", &cfg.OpenRouter.BaseURL)
	r.setString("OPENROUTER_MODEL", &cfg.OpenRouter.Model)
	r.setInt64("OPENROUTER_MAX_TOKENS", &cfg.OpenRouter.MaxTokens)
	r.setFloat("OPENROUTER_TEMPERATURE", &cfg.OpenRouter.Temperature)
	r.setString("OPENROUTER_SITE_URL", &cfg.OpenRouter.SiteURL)
	r.setString("OPENROUTER_SITE_NAME", &cfg.OpenRouter.SiteName)

	r.setString("ANTHROPIC_API_KEY", &cfg.Anthropic.APIKey)
	r.setString("ANTHROPIC_BASE_URL", &cfg.Anthropic.BaseURL)
	r.setString("ANTHROPIC_MODEL", &cfg.Anthropic.Model)
	r.setInt64("ANTHROPIC_MAX_TOKENS", &cfg.Anthropic.MaxTokens)
	r.setFloat("ANTHROPIC_TEMPERATURE", &cfg.Anthropic.Temperature)

	r.setString("GEMINI_API_KEY", &cfg.Gemini.APIKey)
	r.setString("GEMINI_MODEL", &cfg.Gemini.Model)
	r.setString("GEMINI_ENDPOINT", &cfg.Gemini.Endpoint)
	r.setInt64("GEMINI_MAX_TOKENS", &cfg.Gemini.MaxTokens)
	r.setFloat("GEMINI_TEMPERATURE", &cfg.Gemini.Temperature)

	r.setBool("AIDESK_TELEMETRY_DISABLE", &cfg.Telemetry.Disable)
	r.setString("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Telemetry.Endpoint)

	if err := r.v.Error(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration. API keys are not required here.
func (c *Config) Validate() error {
	v := NewValidator()
	v.RequireNonEmpty("AIDESK_ADDR", c.Addr)
	v.RequirePositive("AIDESK_MAX_BODY", int(c.MaxBodyBytes))
	v.RequireNonNegative("AIDESK_REQUEST_TIMEOUT", c.RequestTimeout)
	v.ValidateOneOf("AIDESK_PROVIDER", c.Provider, Providers()...)
	if err := v.Error(); err != nil {
		return err
	}

	switch c.Provider {
	case ProviderOpenRouter:
		return ValidateLLMConfig("OPENROUTER", c.OpenRouter.Model, c.OpenRouter.Temperature, int(c.OpenRouter.MaxTokens))
	case ProviderAnthropic:
		return ValidateLLMConfig("ANTHROPIC", c.Anthropic.Model, c.Anthropic.Temperature, int(c.Anthropic.MaxTokens))
	case ProviderGemini:
		return ValidateLLMConfig("GEMINI", c.Gemini.Model, c.Gemini.Temperature, int(c.Gemini.MaxTokens))
	}
	return nil
}

// reader copies set variables into fields, recording parse failures.
type reader struct {
	lookup func(string) (string, bool)
	v      *Validator
}

func (r reader) get(key string) (string, bool) {
	raw, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func (r reader) setString(key string, dst *string) {
	if raw, ok := r.get(key); ok {
		*dst = raw
	}
}

func (r reader) setInt64(key string, dst *int64) {
	raw, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.v.Invalid(key, raw, err)
		return
	}
	*dst = n
}

func (r reader) setFloat(key string, dst *float64) {
	raw, ok := r.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.v.Invalid(key, raw, err)
		return
	}
	*dst = f
}

func (r reader) setDuration(key string, dst *time.Duration) {
	raw, ok := r.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		r.v.Invalid(key, raw, err)
		return
	}
	*dst = d
}

func (r reader) setBool(key string, dst *bool) {
	raw, ok := r.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		r.v.Invalid(key, raw, err)
		return
	}
	*dst = b
}
