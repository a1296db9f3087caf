package provider

import (
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/propview/backend/internal/domain"
)

// generateContentRequest is the body of a Gemini generateContent call
type generateContentRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Tools             []tool            `json:"tools,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type generationConfig struct {
	ThinkingConfig *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

// generateContentResponse is the subset of the Gemini response we read
type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

type candidate struct {
	Content           *content           `json:"content"`
	FinishReason      string             `json:"finishReason"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
}

type groundingMetadata struct {
	GroundingChunks  []domain.GroundingChunk `json:"groundingChunks"`
	WebSearchQueries []string                `json:"webSearchQueries,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

// mapGenerateContentResponse converts the first candidate to a RawExtraction
func mapGenerateContentResponse(resp *generateContentResponse) (*domain.RawExtraction, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("%w: prompt blocked: %s", domain.ErrProviderFailure, resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("%w: no response candidates", domain.ErrProviderFailure)
	}

	first := resp.Candidates[0]
	raw := &domain.RawExtraction{}
	if first.Content != nil {
		var sb strings.Builder
		for _, p := range first.Content.Parts {
			if p.Thought {
				continue
			}
			sb.WriteString(p.Text)
		}
		raw.Payload = sb.String()
	}
	if first.GroundingMetadata != nil {
		raw.Grounding = first.GroundingMetadata.GroundingChunks
	}
	return raw, nil
}

// sdkResponseText joins the text parts of the first SDK candidate
func sdkResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no response candidates", domain.ErrProviderFailure)
	}
	first := resp.Candidates[0]
	if first.Content == nil {
		return "", fmt.Errorf("%w: empty candidate (finish reason %v)", domain.ErrProviderFailure, first.FinishReason)
	}

	var sb strings.Builder
	for _, p := range first.Content.Parts {
		if text, ok := p.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
