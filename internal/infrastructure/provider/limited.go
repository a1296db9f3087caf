package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propview/backend/internal/domain"
	"golang.org/x/time/rate"
)

const maxProviderBurst = 10

// Limited wraps a provider with a shared hourly request budget
type Limited struct {
	next    domain.ExtractionProvider
	limiter *rate.Limiter
	timeout time.Duration
}

// NewLimited creates a rate limited provider. A non-positive perHour
// disables limiting; timeout bounds each call when positive.
func NewLimited(next domain.ExtractionProvider, perHour int, timeout time.Duration) *Limited {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perHour > 0 {
		burst := min(perHour, maxProviderBurst)
		limiter = rate.NewLimiter(rate.Limit(float64(perHour)/3600.0), burst)
	}
	return &Limited{
		next:    next,
		limiter: limiter,
		timeout: timeout,
	}
}

// Name returns the wrapped provider's name
func (l *Limited) Name() string {
	return l.next.Name()
}

// ExtractListing waits for a token and then delegates
func (l *Limited) ExtractListing(ctx context.Context, query string) (*domain.RawExtraction, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	if err := l.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: provider budget: %v", domain.ErrRateLimited, err)
	}
	return l.next.ExtractListing(ctx, query)
}
