package provider

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/propview/backend/internal/domain"
	"go.uber.org/zap"
)

// Provider names accepted by New
const (
	NameGemini = "gemini"
	NameOpenAI = "openai"
	NameClaude = "claude"
)

// Settings selects and configures an extraction provider
type Settings struct {
	Name            string
	Search          bool
	PromptFile      string
	RequestsPerHour int
	Options
}

// Provider is an extraction provider that may hold resources
type Provider struct {
	*Limited
	closer io.Closer
}

// Close releases the underlying client, if it holds anything
func (p *Provider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// New builds the configured provider wrapped in the hourly limiter
func New(ctx context.Context, settings Settings, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	prompts := DefaultPrompts()
	if settings.PromptFile != "" {
		loaded, err := LoadPrompts(settings.PromptFile)
		if err != nil {
			return nil, err
		}
		prompts = loaded
	}

	var (
		client domain.ExtractionProvider
		closer io.Closer
	)
	switch strings.ToLower(strings.TrimSpace(settings.Name)) {
	case NameGemini, "":
		if settings.Search {
			client = NewGeminiClient(settings.Options, prompts, logger)
		} else {
			sdk, err := NewGeminiSDKClient(ctx, settings.Options, prompts, logger)
			if err != nil {
				return nil, err
			}
			client, closer = sdk, sdk
		}
	case NameOpenAI:
		client = NewOpenAIClient(settings.Options, prompts, logger)
	case NameClaude:
		client = NewClaudeClient(settings.Options, prompts, logger)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, settings.Name)
	}

	logger.Info("extraction provider ready",
		zap.String("provider", client.Name()),
		zap.Bool("search", settings.Search),
		zap.Int("requests_per_hour", settings.RequestsPerHour),
	)

	return &Provider{
		Limited: NewLimited(client, settings.RequestsPerHour, settings.Timeout),
		closer:  closer,
	}, nil
}
