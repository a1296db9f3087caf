package provider

import (
	"context"
	"fmt"

	"github.com/propview/backend/internal/domain"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIClient extracts listings with an OpenAI-compatible chat model
type OpenAIClient struct {
	client  *openai.Client
	model   string
	prompts *Prompts
	logger  *zap.Logger
}

// NewOpenAIClient creates an OpenAI client; baseURL may point at any compatible server
func NewOpenAIClient(opts Options, prompts *Prompts, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		prompts: prompts,
		logger:  logger.Named("openai"),
	}
}

// Name identifies the provider in logs and metrics
func (c *OpenAIClient) Name() string {
	return "openai"
}

// ExtractListing requests a JSON object answer for the listing
func (c *OpenAIClient) ExtractListing(ctx context.Context, query string) (*domain.RawExtraction, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.prompts.Extraction.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: c.prompts.Render(query),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices", domain.ErrProviderFailure)
	}

	text := resp.Choices[0].Message.Content
	c.logger.Info("listing extracted", zap.String("query", query), zap.Int("payload_bytes", len(text)))
	return &domain.RawExtraction{Payload: text}, nil
}
