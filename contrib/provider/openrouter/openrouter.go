package openrouter

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/sweetpotato0/ai-desk/contrib/provider"
	apperrors "github.com/sweetpotato0/ai-desk/errors"
	"github.com/sweetpotato0/ai-desk/message"
)

// Name identifies the backend in errors and logs.
const Name = "OpenRouter"

// DefaultBaseURL is OpenRouter's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

const quotaMessage = "OpenRouter quota exceeded. Please check your plan/billing."

// Config holds OpenRouter provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
	// SiteURL and SiteName are sent as HTTP-Referer and X-Title for
	// OpenRouter's app attribution.
	SiteURL  string
	SiteName string
}

// DefaultConfig returns default OpenRouter configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Model:       "gpt-4o-mini",
		MaxTokens:   1000,
		Temperature: 0.7,
	}
}

// Completer implements provider.Completer over OpenRouter chat completions.
type Completer struct {
	config *Config
	client openai.Client
}

var _ provider.Completer = (*Completer)(nil)

// New creates a new OpenRouter completer using the OpenAI SDK.
// Requests are never retried.
func New(config *Config) *Completer {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	options := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithBaseURL(config.BaseURL),
		option.WithMaxRetries(0),
	}
	if config.SiteURL != "" {
		options = append(options, option.WithHeader("HTTP-Referer", config.SiteURL))
	}
	if config.SiteName != "" {
		options = append(options, option.WithHeader("X-Title", config.SiteName))
	}

	return &Completer{
		config: config,
		client: openai.NewClient(options...),
	}
}

// Name implements provider.Completer.
func (c *Completer) Name() string {
	return Name
}

// Complete implements provider.Completer.
func (c *Completer) Complete(ctx context.Context, req *provider.CompletionRequest) (string, error) {
	if req == nil {
		return "", apperrors.Upstream(apperrors.ClassOther, Name, "completion request cannot be nil", nil)
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case message.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case message.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(c.config.Model),
	}

	temperature := c.config.Temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	if temperature > 0 {
		params.Temperature = param.NewOpt(temperature)
	}

	// OpenRouter reads max_tokens, not max_completion_tokens.
	maxTokens := c.config.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = param.NewOpt(maxTokens)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapError(ctx, err)
	}
	if len(completion.Choices) == 0 {
		return "", apperrors.Upstream(apperrors.ClassUnavailable, Name, "no choices returned from OpenRouter", nil)
	}
	return completion.Choices[0].Message.Content, nil
}

// mapError turns an SDK failure into an UpstreamError. Context errors are
// returned untouched.
func mapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.Error
	if !stderrors.As(err, &apiErr) {
		return apperrors.Upstream(apperrors.ClassUnavailable, Name,
			fmt.Sprintf("OpenRouter request failed: %v", err), err)
	}

	class := apperrors.ClassifyStatus(apiErr.StatusCode, apiErr.Code)
	msg := apiErr.Message
	switch {
	case class == apperrors.ClassQuota:
		msg = quotaMessage
	case msg == "":
		msg = "OpenRouter provider error"
	}

	return &apperrors.UpstreamError{
		Class:      class,
		Provider:   Name,
		Code:       apiErr.Code,
		StatusCode: apiErr.StatusCode,
		Message:    msg,
		Err:        err,
	}
}
