package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ExtractionProvider asks an AI search service for the raw listing data behind a query
type ExtractionProvider interface {
	Name() string
	ExtractListing(ctx context.Context, query string) (*RawExtraction, error)
}

// PageProber reads image hints straight from a listing page
type PageProber interface {
	ProbeImages(ctx context.Context, listingURL string) ([]ImageCandidate, error)
}
