package usecase

import (
	"fmt"
	"strings"

	"github.com/propview/backend/internal/domain"
	"github.com/tidwall/gjson"
)

// ListingPayload is the provider's JSON answer split into metadata and raw images
type ListingPayload struct {
	Metadata domain.ListingMetadata
	Images   []domain.ImageCandidate
}

// ParseListingPayload reads the provider's JSON answer.
// Missing optional fields are fine and a missing or non-array "images" field
// yields no candidates; anything that is not a JSON object is ErrParseFailure.
func ParseListingPayload(raw string) (*ListingPayload, error) {
	body := extractJSONObject(raw)
	if body == "" || !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", domain.ErrParseFailure)
	}

	doc := gjson.Parse(body)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object, got %s", domain.ErrParseFailure, doc.Type)
	}

	payload := &ListingPayload{
		Metadata: domain.ListingMetadata{
			Address: scalarString(doc.Get("address")),
			Price:   scalarString(doc.Get("price")),
			Beds:    scalarString(doc.Get("beds")),
			Baths:   scalarString(doc.Get("baths")),
			Sqft:    scalarString(doc.Get("sqft")),
		},
	}

	images := doc.Get("images")
	if images.IsArray() {
		for _, item := range images.Array() {
			payload.Images = append(payload.Images, domain.ImageCandidate{
				URL:         stringValue(item.Get("url")),
				Description: stringValue(item.Get("description")),
			})
		}
	}

	return payload, nil
}

// extractJSONObject returns raw when it is already valid JSON, otherwise the
// outermost {...} span, which drops markdown fences and chatter around it.
// When chatter itself holds braces the widest span is invalid, so the first
// balanced object that parses is used instead.
func extractJSONObject(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if gjson.Valid(trimmed) {
		return trimmed
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return trimmed
	}
	if widest := trimmed[start : end+1]; gjson.Valid(widest) {
		return widest
	}

	for i := start; i < len(trimmed); i++ {
		if trimmed[i] != '{' {
			continue
		}
		if closing := matchingBrace(trimmed, i); closing > 0 && gjson.Valid(trimmed[i:closing+1]) {
			return trimmed[i : closing+1]
		}
	}
	return trimmed[start : end+1]
}

// matchingBrace returns the index of the '}' closing the '{' at open,
// skipping braces inside JSON strings, or -1 when it is never closed.
func matchingBrace(s string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stringValue returns the value only when it is a JSON string
func stringValue(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.Str
	}
	return ""
}

// scalarString keeps numbers as their literal text, so "price": 850000 survives
func scalarString(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return strings.TrimSpace(r.Str)
	case gjson.Number:
		return r.Raw
	default:
		return ""
	}
}
