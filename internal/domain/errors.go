package domain

import "errors"

var (
	// ErrParseFailure is returned when the provider answer is not structured listing data
	ErrParseFailure = errors.New("unable to parse gallery metadata")

	// ErrMissingAddress is returned when the extracted metadata has no address
	ErrMissingAddress = errors.New("listing metadata is missing the required address")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProviderFailure is returned when the extraction provider request fails
	ErrProviderFailure = errors.New("extraction provider request failed")

	// ErrUnsupportedProvider is returned for an unknown provider name
	ErrUnsupportedProvider = errors.New("unsupported extraction provider")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
