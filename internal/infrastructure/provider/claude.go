package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/propview/backend/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-5"
	defaultClaudeMaxTokens = 4096
)

// ClaudeClient extracts listings with an Anthropic model
type ClaudeClient struct {
	client  *anthropic.Client
	model   string
	prompts *Prompts
	logger  *zap.Logger
}

// NewClaudeClient creates a Claude client
func NewClaudeClient(opts Options, prompts *Prompts, logger *zap.Logger) *ClaudeClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	var clientOpts []anthropic.ClientOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(opts.BaseURL))
	}
	model := opts.Model
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeClient{
		client:  anthropic.NewClient(opts.APIKey, clientOpts...),
		model:   model,
		prompts: prompts,
		logger:  logger.Named("claude"),
	}
}

// Name identifies the provider in logs and metrics
func (c *ClaudeClient) Name() string {
	return "claude"
}

// ExtractListing asks Claude for the listing JSON
func (c *ClaudeClient) ExtractListing(ctx context.Context, query string) (*domain.RawExtraction, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: c.prompts.Extraction.System,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(c.prompts.Render(query)),
				},
			},
		},
		MaxTokens: defaultClaudeMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("%w: no response content", domain.ErrProviderFailure)
	}

	c.logger.Info("listing extracted", zap.String("query", query), zap.Int("payload_bytes", sb.Len()))
	return &domain.RawExtraction{Payload: sb.String()}, nil
}
