package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/propview/backend/internal/domain"
	"github.com/propview/backend/internal/metrics"
	"go.uber.org/zap"
)

// Extraction outcomes reported to metrics
const (
	outcomeOK             = "ok"
	outcomeEmpty          = "empty"
	outcomeProviderError  = "provider_error"
	outcomeParseError     = "parse_error"
	outcomeMissingAddress = "missing_address"
)

// ExtractionServiceConfig holds configuration for the extraction service
type ExtractionServiceConfig struct {
	CacheTTL      time.Duration
	Policy        *ResolutionPolicy
	VendorMarkers []string
	Placeholder   string
}

// ExtractionService runs provider extraction through the normalization pipeline with caching
type ExtractionService struct {
	cache        domain.CacheRepository
	provider     domain.ExtractionProvider
	prober       domain.PageProber
	assembler    *Assembler
	preprocessor *QueryPreprocessor
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewExtractionService creates a new extraction service with dependencies.
// prober may be nil.
func NewExtractionService(
	cache domain.CacheRepository,
	provider domain.ExtractionProvider,
	prober domain.PageProber,
	logger *zap.Logger,
	config ExtractionServiceConfig,
) *ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}

	policy := config.Policy
	if policy == nil {
		policy = DefaultResolutionPolicy()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &ExtractionService{
		cache:    cache,
		provider: provider,
		prober:   prober,
		assembler: NewAssembler(
			NewAggregator(policy, config.Placeholder),
			NewValidityFilter(config.VendorMarkers),
		),
		preprocessor: NewQueryPreprocessor(logger),
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Preprocessor exposes the query preprocessor used by the service
func (s *ExtractionService) Preprocessor() *QueryPreprocessor {
	return s.preprocessor
}

// Extract returns the normalized gallery for a listing URL or address.
// Flow: check cache -> ask provider -> parse -> probe page -> assemble -> cache -> return
func (s *ExtractionService) Extract(
	ctx context.Context,
	request *domain.ExtractRequest,
) (*domain.ExtractionResult, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}
	query := s.preprocessor.Normalize(request.Query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := s.preprocessor.CacheKey(query)
	if !request.Refresh {
		if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			cached.Origin = domain.OriginCache
			return cached, nil
		}
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	providerName := s.provider.Name()
	start := time.Now()
	defer func() {
		metrics.ExtractionDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	}()

	raw, err := s.provider.ExtractListing(ctx, query)
	if err != nil {
		s.recordOutcome(providerName, outcomeProviderError)
		s.logger.Warn("provider extraction failed",
			zap.String("provider", providerName),
			zap.String("query", query),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrProviderFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}

	payload, err := ParseListingPayload(raw.Payload)
	if err != nil {
		s.recordOutcome(providerName, outcomeParseError)
		s.logger.Error("provider returned unparseable gallery metadata",
			zap.String("provider", providerName),
			zap.String("query", query),
			zap.String("payload", truncate(raw.Payload, 512)),
			zap.Error(err),
		)
		return nil, err
	}

	images := payload.Images
	if s.prober != nil && s.preprocessor.IsListingURL(query) {
		hints, err := s.prober.ProbeImages(ctx, query)
		if err != nil {
			s.logger.Warn("listing page probe failed", zap.String("url", query), zap.Error(err))
		} else {
			images = append(images, hints...)
		}
	}

	result, stats, err := s.assembler.Assemble(payload.Metadata, images, raw.Grounding)
	if err != nil {
		s.recordOutcome(providerName, outcomeMissingAddress)
		s.logger.Warn("provider metadata rejected", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	result.Provider = providerName
	result.Origin = domain.OriginProvider

	metrics.RecordDrops(stats.Skipped, stats.Duplicates+stats.Upgrades, stats.Filtered)
	metrics.GalleryImages.Observe(float64(stats.Images))

	s.logger.Info("gallery assembled",
		zap.String("provider", providerName),
		zap.String("address", result.Property.Address),
		zap.Int("raw", stats.Raw),
		zap.Int("skipped", stats.Skipped),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("upgrades", stats.Upgrades),
		zap.Int("filtered", stats.Filtered),
		zap.Int("images", stats.Images),
		zap.Int("sources", len(result.Sources)),
	)

	if stats.Images == 0 {
		// Empty galleries are not cached so an address-only retry reaches the provider.
		s.recordOutcome(providerName, outcomeEmpty)
		return result, nil
	}

	if err := s.setInCache(ctx, cacheKey, result); err != nil {
		s.logger.Warn("failed to cache gallery", zap.String("key", cacheKey), zap.Error(err))
	}
	s.recordOutcome(providerName, outcomeOK)

	return result, nil
}

// AddressHint derives the address-only retry query for a request query
func (s *ExtractionService) AddressHint(query string) string {
	return s.preprocessor.AddressHint(query)
}

func (s *ExtractionService) recordOutcome(provider, outcome string) {
	metrics.ExtractionsTotal.WithLabelValues(provider, outcome).Inc()
}

// getFromCache retrieves a gallery from cache
func (s *ExtractionService) getFromCache(ctx context.Context, key string) (*domain.ExtractionResult, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil, domain.ErrCacheMiss
	}
	return &result, nil
}

// setInCache stores a gallery in cache
func (s *ExtractionService) setInCache(ctx context.Context, key string, result *domain.ExtractionResult) error {
	if s.cache == nil {
		return nil
	}
	entry := *result
	entry.CachedAt = time.Now()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
