package domain

import "time"

// ImageCandidate is a single image URL reported for a listing
type ImageCandidate struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// ListingMetadata holds the structured facts extracted for a property
type ListingMetadata struct {
	Address string           `json:"address"`
	Price   string           `json:"price,omitempty"`
	Beds    string           `json:"beds,omitempty"`
	Baths   string           `json:"baths,omitempty"`
	Sqft    string           `json:"sqft,omitempty"`
	Images  []ImageCandidate `json:"images"`
}

// SourceCitation is a web page the provider cited while extracting the listing
type SourceCitation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ExtractionResult is the normalized gallery returned to callers
type ExtractionResult struct {
	Property ListingMetadata  `json:"property"`
	Sources  []SourceCitation `json:"sources"`
	Provider string           `json:"provider,omitempty"`
	Origin   string           `json:"origin"` // "Provider" or "Cache"
	CachedAt time.Time        `json:"cachedAt,omitzero"`
}

// ExtractRequest represents a gallery extraction request
type ExtractRequest struct {
	Query   string `json:"query" binding:"required"` // listing URL or street address
	Refresh bool   `json:"refresh,omitempty"`
}

// RawExtraction is the unprocessed provider answer
type RawExtraction struct {
	Payload   string
	Grounding []GroundingChunk
}

// GroundingChunk mirrors one entry of the provider's grounding metadata
type GroundingChunk struct {
	Web *WebChunk `json:"web,omitempty"`
}

// WebChunk is the web reference inside a grounding chunk
type WebChunk struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// Result origins
const (
	OriginProvider = "Provider"
	OriginCache    = "Cache"
)
