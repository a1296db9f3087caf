package provider

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/propview/backend/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiSDKClient uses the Gemini SDK with a response schema. It runs
// without the search tool, so results carry no grounding sources.
type GeminiSDKClient struct {
	client  *genai.Client
	model   string
	prompts *Prompts
	logger  *zap.Logger
}

// NewGeminiSDKClient creates a schema-constrained Gemini client
func NewGeminiSDKClient(ctx context.Context, opts Options, prompts *Prompts, logger *zap.Logger) (*GeminiSDKClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.BaseURL))
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiSDKClient{
		client:  client,
		model:   model,
		prompts: prompts,
		logger:  logger.Named("gemini-structured"),
	}, nil
}

// Name identifies the provider in logs and metrics
func (c *GeminiSDKClient) Name() string {
	return "gemini-structured"
}

// ExtractListing asks Gemini for schema-shaped listing JSON
func (c *GeminiSDKClient) ExtractListing(ctx context.Context, query string) (*domain.RawExtraction, error) {
	model := c.client.GenerativeModel(c.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = listingSchema()
	if c.prompts.Extraction.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(c.prompts.Extraction.System))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(c.prompts.Render(query)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	text, err := sdkResponseText(resp)
	if err != nil {
		return nil, err
	}
	c.logger.Info("listing extracted", zap.String("query", query), zap.Int("payload_bytes", len(text)))

	return &domain.RawExtraction{Payload: text}, nil
}

// Close releases the SDK client
func (c *GeminiSDKClient) Close() error {
	return c.client.Close()
}

// listingSchema mirrors the listing JSON shape the pipeline parses
func listingSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"address": str("Street address, city and state."),
			"price":   str("Listing price as displayed."),
			"beds":    str("Bedroom count."),
			"baths":   str("Bathroom count."),
			"sqft":    str("Interior square footage."),
			"images": {
				Type:        genai.TypeArray,
				Description: "High-resolution direct image file URLs.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"url":         str("Direct JPG/PNG link."),
						"description": str("Room or view description."),
					},
					Required: []string{"url"},
				},
			},
		},
		Required: []string{"address", "images"},
	}
}
