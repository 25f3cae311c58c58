package claude

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/sweetpotato0/ai-desk/contrib/provider"
	apperrors "github.com/sweetpotato0/ai-desk/errors"
	"github.com/sweetpotato0/ai-desk/message"
)

// Name identifies the backend in errors and logs.
const Name = "Anthropic"

const quotaMessage = "Anthropic quota exceeded. Please check your plan/billing."

// Config holds Claude provider configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey, baseURL string) *Config {
	return &Config{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   1000,
		Temperature: 0.7,
	}
}

// Completer implements provider.Completer over the Anthropic Messages API.
type Completer struct {
	config *Config
	client anthropic.Client
}

var _ provider.Completer = (*Completer)(nil)

// New creates a new Claude completer using official SDK. Requests are never
// retried.
func New(config *Config) *Completer {
	if config.Model == "" {
		config.Model = "claude-sonnet-4-5-20250929"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1000
	}

	options := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Completer{
		config: config,
		client: anthropic.NewClient(options...),
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

	system, rest := message.Split(req.Messages)
	conversation := make([]anthropic.MessageParam, 0, len(rest))
	for _, msg := range rest {
		switch msg.Role {
		case message.RoleUser:
			conversation = append(conversation, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case message.RoleAssistant:
			conversation = append(conversation, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	maxTokens := c.config.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		Messages:  conversation,
		MaxTokens: maxTokens,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	temperature := c.config.Temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	if temperature > 0 {
		params.Temperature = param.NewOpt(temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", mapError(ctx, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// errorBody is the JSON body of an Anthropic API failure.
type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func mapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *anthropic.Error
	if !stderrors.As(err, &apiErr) {
		return apperrors.Upstream(apperrors.ClassUnavailable, Name,
			fmt.Sprintf("Anthropic request failed: %v", err), err)
	}

	var body errorBody
	_ = json.Unmarshal([]byte(apiErr.RawJSON()), &body)

	class := apperrors.ClassifyStatus(apiErr.StatusCode, body.Error.Type)
	msg := body.Error.Message
	switch {
	case class == apperrors.ClassQuota:
		msg = quotaMessage
	case msg == "":
		msg = fmt.Sprintf("Anthropic provider error (status %d)", apiErr.StatusCode)
	}

	return &apperrors.UpstreamError{
		Class:      class,
		Provider:   Name,
		Code:       body.Error.Type,
		StatusCode: apiErr.StatusCode,
		Message:    msg,
		Err:        err,
	}
}
