package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/propview/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const listingJSON = `{"address":"123 Main St, Springfield, IL","price":"$450,000","images":[{"url":"https://photos.zillowstatic.com/fp/abc-cc_ft_384.jpg","description":"Front"}]}`

func newTestGeminiClient(t *testing.T, baseURL string) *GeminiClient {
	t.Helper()
	client := NewGeminiClient(Options{APIKey: "test-api-key", BaseURL: baseURL}, nil, zaptest.NewLogger(t))
	client.backoff = func(int) time.Duration { return 0 }
	return client
}

func writeGeminiResponse(t *testing.T, w http.ResponseWriter, text string, chunks []domain.GroundingChunk) {
	t.Helper()
	resp := generateContentResponse{
		Candidates: []candidate{{
			Content: &content{
				Role: "model",
				Parts: []part{
					{Text: "reasoning about the listing", Thought: true},
					{Text: text},
				},
			},
			FinishReason:      "STOP",
			GroundingMetadata: &groundingMetadata{GroundingChunks: chunks},
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestNewGeminiClient_Defaults(t *testing.T) {
	client := NewGeminiClient(Options{APIKey: "key"}, nil, nil)

	assert.Equal(t, defaultGeminiBaseURL, client.baseURL)
	assert.Equal(t, defaultGeminiModel, client.model)
	assert.Equal(t, 120*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.prompts)
	assert.Equal(t, "gemini", client.Name())
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestGeminiExtractListing_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-goog-api-key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req generateContentRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Len(t, req.Tools, 1)
		assert.NotNil(t, req.Tools[0].GoogleSearch)
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "123 Main St")
		assert.NotNil(t, req.SystemInstruction)

		writeGeminiResponse(t, w, listingJSON, []domain.GroundingChunk{
			{Web: &domain.WebChunk{Title: "Zillow", URI: "https://zillow.com/x"}},
			{},
		})
	}))
	defer server.Close()

	client := newTestGeminiClient(t, server.URL)
	raw, err := client.ExtractListing(context.Background(), "123 Main St")

	require.NoError(t, err)
	assert.Equal(t, listingJSON, raw.Payload)
	require.Len(t, raw.Grounding, 2)
	assert.Equal(t, "https://zillow.com/x", raw.Grounding[0].Web.URI)
	assert.Nil(t, raw.Grounding[1].Web)
}

func TestGeminiExtractListing_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"status":"UNAVAILABLE","message":"overloaded"}}`))
			return
		}
		writeGeminiResponse(t, w, listingJSON, nil)
	}))
	defer server.Close()

	client := newTestGeminiClient(t, server.URL)
	raw, err := client.ExtractListing(context.Background(), "123 Main St")

	require.NoError(t, err)
	assert.Equal(t, listingJSON, raw.Payload)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeminiExtractListing_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"status":"INVALID_ARGUMENT","message":"API key not valid"}}`))
	}))
	defer server.Close()

	client := newTestGeminiClient(t, server.URL)
	_, err := client.ExtractListing(context.Background(), "123 Main St")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Contains(t, err.Error(), "API key not valid")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiExtractListing_RateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestGeminiClient(t, server.URL)
	_, err := client.ExtractListing(context.Background(), "123 Main St")

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestGeminiExtractListing_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeGeminiResponse(t, w, listingJSON, nil)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestGeminiClient(t, server.URL)
	_, err := client.ExtractListing(ctx, "123 Main St")

	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestGeminiBuildRequest_ThinkingBudget(t *testing.T) {
	client := NewGeminiClient(Options{APIKey: "key", ThinkingBudget: 2048}, nil, nil)

	req := client.buildRequest("123 Main St")

	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, 2048, req.GenerationConfig.ThinkingConfig.ThinkingBudget)

	client = NewGeminiClient(Options{APIKey: "key"}, nil, nil)
	assert.Nil(t, client.buildRequest("123 Main St").GenerationConfig)
}

func TestDescribeAPIError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"google error body", 403, `{"error":{"status":"PERMISSION_DENIED","message":"denied"}}`, "PERMISSION_DENIED: denied"},
		{"plain body", 500, "boom", "boom"},
		{"empty body", 502, "", "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, describeAPIError(tt.status, []byte(tt.body)))
		})
	}
}
