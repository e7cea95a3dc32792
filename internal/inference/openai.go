package inference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a meticulous legal citation editor. Respond only with JSON that matches the requested schema."

// OpenAI calls an OpenAI-compatible chat completions endpoint. Azure OpenAI and
// Ollama are reached through the same API with provider-specific configuration.
type OpenAI struct {
	client       *openai.Client
	model        string
	temperature  float32
	corpusAccess bool
	timeout      time.Duration
}

// NewOpenAI creates a client from a finalized Config.
func NewOpenAI(cfg *Config) (*OpenAI, error) {
	var cc openai.ClientConfig

	switch cfg.Provider {
	case ProviderAzure:
		cc = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			cc.APIVersion = cfg.APIVersion
		}
	case ProviderOpenAI, ProviderOllama:
		cc = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			cc.BaseURL = cfg.BaseURL
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	return &OpenAI{
		client:       openai.NewClientWithConfig(cc),
		model:        cfg.Model,
		temperature:  float32(cfg.Temperature),
		corpusAccess: cfg.CorpusAccess,
		timeout:      cfg.RequestTimeoutDuration(),
	}, nil
}

func (c *OpenAI) CorpusAccess() bool {
	return c.corpusAccess
}

func (c *OpenAI) Model() string {
	return c.model
}

// Complete sends req as a single user message. When req carries a schema the
// service is asked for strict structured output. A call that exceeds the request
// timeout while ctx is still live is reported as ErrServiceUnavailable so the
// caller may retry it.
func (c *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	chat := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}

	if len(req.Schema) > 0 {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: true,
			},
		}
	}

	resp, err := c.client.CreateChatCompletion(callCtx, chat)
	if err != nil {
		if ctx.Err() == nil && callCtx.Err() != nil {
			return "", fmt.Errorf("%w: request exceeded %s", ErrServiceUnavailable, c.timeout)
		}
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty content (finish reason %s)", ErrMalformedResponse, resp.Choices[0].FinishReason)
	}

	return content, nil
}
