package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyrag/internal/domain"
)

// DefaultMaxTokens bounds the refine reply length.
const DefaultMaxTokens = 800

// CompleterConfig holds chat completion settings.
type CompleterConfig struct {
	Config
	MaxTokens   int
	Temperature float32
	// JSONMode requests a json_object response format. Some compatible
	// providers reject it, so it can be turned off.
	JSONMode bool
}

// Completer implements domain.Completer over the chat completions API.
type Completer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	jsonMode    bool
	logger      *zap.Logger
}

// NewCompleter creates a chat completion client.
func NewCompleter(cfg *CompleterConfig) *Completer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Completer{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		jsonMode:    cfg.JSONMode,
		logger:      logger,
	}
}

// Complete sends one system+user exchange and returns the assistant reply.
func (c *Completer) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", domain.NewExternalServiceError(domain.ServiceLLM, "complete", parseAPIError(err))
	}
	c.logger.Debug("chat completion",
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	if len(resp.Choices) == 0 {
		return "", domain.NewExternalServiceError(domain.ServiceLLM, "complete", errors.New("no choices in response"))
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", domain.NewExternalServiceError(domain.ServiceLLM, "complete", errors.New("empty reply"))
	}
	return content, nil
}
