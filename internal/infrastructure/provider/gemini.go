package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/propview/backend/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.5-pro"
	maxAttempts          = 3
)

// Options configures a provider client
type Options struct {
	APIKey         string
	Model          string
	BaseURL        string
	Timeout        time.Duration
	ThinkingBudget int
}

// GeminiClient calls the Gemini generateContent REST endpoint with Google
// Search grounding enabled.
type GeminiClient struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	model          string
	thinkingBudget int
	prompts        *Prompts
	logger         *zap.Logger
	backoff        func(attempt int) time.Duration
}

// NewGeminiClient creates a new grounded Gemini client
func NewGeminiClient(opts Options, prompts *Prompts, logger *zap.Logger) *GeminiClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:         opts.APIKey,
		baseURL:        baseURL,
		model:          model,
		thinkingBudget: opts.ThinkingBudget,
		prompts:        prompts,
		logger:         logger.Named("gemini"),
		backoff:        exponentialBackoff,
	}
}

// Name identifies the provider in logs and metrics
func (c *GeminiClient) Name() string {
	return "gemini"
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// ExtractListing asks Gemini to search the web for the listing and returns
// the raw JSON text together with the grounding sources.
func (c *GeminiClient) ExtractListing(ctx context.Context, query string) (*domain.RawExtraction, error) {
	c.logger.Debug("ExtractListing called", zap.String("query", query), zap.String("model", c.model))

	body, err := json.Marshal(c.buildRequest(query))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, c.backoff(attempt-1)); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
			}
		}

		resp, err := c.doRequest(ctx, endpoint, body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, ctx.Err())
			}
			c.logger.Warn("request error", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrProviderFailure, readErr)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := describeAPIError(resp.StatusCode, respBody)
			c.logger.Warn("API error", zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode), zap.String("error", apiErr))
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				lastErr = fmt.Errorf("%w: %s", domain.ErrRateLimited, apiErr)
				continue
			case resp.StatusCode >= 500:
				lastErr = fmt.Errorf("%w: status %d: %s", domain.ErrProviderFailure, resp.StatusCode, apiErr)
				continue
			default:
				return nil, fmt.Errorf("%w: status %d: %s", domain.ErrProviderFailure, resp.StatusCode, apiErr)
			}
		}

		var parsed generateContentResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrProviderFailure, err)
		}

		raw, err := mapGenerateContentResponse(&parsed)
		if err != nil {
			return nil, err
		}
		c.logger.Info("listing extracted",
			zap.String("query", query),
			zap.Int("payload_bytes", len(raw.Payload)),
			zap.Int("grounding_chunks", len(raw.Grounding)),
		)
		return raw, nil
	}

	c.logger.Error("all retries failed", zap.String("query", query), zap.Error(lastErr))
	return nil, lastErr
}

// buildRequest assembles the generateContent body. The search tool cannot be
// combined with a response schema, so the JSON shape lives in the prompt.
func (c *GeminiClient) buildRequest(query string) generateContentRequest {
	req := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: c.prompts.Render(query)}},
		}},
		Tools: []tool{{GoogleSearch: &struct{}{}}},
	}
	if c.prompts.Extraction.System != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: c.prompts.Extraction.System}}}
	}
	if c.thinkingBudget > 0 {
		req.GenerationConfig = &generationConfig{
			ThinkingConfig: &thinkingConfig{ThinkingBudget: c.thinkingBudget},
		}
	}
	return req
}

// doRequest executes an HTTP POST request with proper headers
func (c *GeminiClient) doRequest(ctx context.Context, endpoint string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PropView/1.0")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	return resp, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// describeAPIError pulls the message out of a Google API error body
func describeAPIError(status int, body []byte) string {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Sprintf("%s: %s", apiErr.Error.Status, apiErr.Error.Message)
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		text = http.StatusText(status)
	}
	return text
}
