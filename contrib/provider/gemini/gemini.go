package gemini

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sweetpotato0/ai-desk/contrib/provider"
	apperrors "github.com/sweetpotato0/ai-desk/errors"
	"github.com/sweetpotato0/ai-desk/message"
)

// Name identifies the backend in errors and logs.
const Name = "Gemini"

const quotaMessage = "Gemini quota exceeded. Please check your plan/billing."

// Config holds Gemini provider configuration
type Config struct {
	APIKey string
	Model  string
	// Endpoint overrides the API endpoint, mostly for tests and proxies.
	Endpoint    string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   1000,
		Temperature: 0.7,
	}
}

// Completer implements provider.Completer over the Gemini API.
type Completer struct {
	config *Config
}

var _ provider.Completer = (*Completer)(nil)

// New creates a new Gemini completer. The SDK client is opened per call.
func New(config *Config) *Completer {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}
	return &Completer{config: config}
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

	system, history, last := toContents(req.Messages)
	if len(last) == 0 {
		return "", apperrors.Upstream(apperrors.ClassOther, Name, "completion request has no user message", nil)
	}

	options := []option.ClientOption{option.WithAPIKey(c.config.APIKey)}
	if c.config.Endpoint != "" {
		options = append(options, option.WithEndpoint(c.config.Endpoint))
	}
	client, err := genai.NewClient(ctx, options...)
	if err != nil {
		return "", apperrors.Upstream(apperrors.ClassUnavailable, Name,
			fmt.Sprintf("failed to create Gemini client: %v", err), err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.config.Model)
	temperature := c.config.Temperature
	if req.Temperature > 0 {
		temperature = float32(req.Temperature)
	}
	if temperature > 0 {
		model.SetTemperature(temperature)
	}
	maxTokens := c.config.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = int32(req.MaxTokens)
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(maxTokens)
	}
	model.SystemInstruction = system

	session := model.StartChat()
	session.History = history
	resp, err := session.SendMessage(ctx, last...)
	if err != nil {
		return "", mapError(ctx, err)
	}
	return responseText(resp), nil
}

// toContents converts chat messages into Gemini contents. The final user turn
// is returned separately as the parts to send; earlier turns become history.
func toContents(msgs []*message.Message) (system *genai.Content, history []*genai.Content, last []genai.Part) {
	sys, rest := message.Split(msgs)
	if sys != "" {
		system = &genai.Content{Parts: []genai.Part{genai.Text(sys)}}
	}
	if len(rest) == 0 {
		return system, nil, nil
	}

	for _, msg := range rest[:len(rest)-1] {
		role := "user"
		if msg.Role == message.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Content)}})
	}
	final := rest[len(rest)-1]
	if final.Role != message.RoleUser {
		return system, history, nil
	}
	return system, history, []genai.Part{genai.Text(final.Content)}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

func mapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return err
	}

	var blocked *genai.BlockedError
	if stderrors.As(err, &blocked) {
		return apperrors.Upstream(apperrors.ClassValidation, Name, "Gemini blocked the request content", err)
	}

	upstream := &apperrors.UpstreamError{Provider: Name, Err: err}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		upstream.StatusCode = apiErr.Code
		upstream.Class = apperrors.ClassifyStatus(apiErr.Code, "")
		upstream.Message = apiErr.Message
	} else if st, ok := status.FromError(err); ok {
		upstream.Code = st.Code().String()
		upstream.Class = classifyCode(st.Code())
		upstream.Message = st.Message()
	} else {
		upstream.Class = apperrors.ClassUnavailable
		upstream.Message = fmt.Sprintf("Gemini request failed: %v", err)
	}

	switch {
	case upstream.Class == apperrors.ClassQuota:
		upstream.Message = quotaMessage
	case upstream.Message == "":
		upstream.Message = "Gemini provider error"
	}
	return upstream
}

func classifyCode(code codes.Code) apperrors.Class {
	switch code {
	case codes.ResourceExhausted:
		return apperrors.ClassQuota
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return apperrors.ClassValidation
	case codes.Unavailable, codes.Internal, codes.DataLoss:
		return apperrors.ClassUnavailable
	default:
		return apperrors.ClassOther
	}
}
