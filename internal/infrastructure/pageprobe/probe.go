package pageprobe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/propview/backend/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultUserAgent    = "Mozilla/5.0 (compatible; PropViewBot/1.0)"
	defaultMaxBodyBytes = 2 << 20
	probeDescription    = "Listing Preview"
)

// ErrBlockedHost is returned when a listing URL resolves to a loopback,
// private, link-local or otherwise non-public address.
var ErrBlockedHost = errors.New("listing host is not a public address")

// metaSelectors lists the share-preview tags that point at listing photos
var metaSelectors = []string{
	`meta[property="og:image"]`,
	`meta[property="og:image:secure_url"]`,
	`meta[name="twitter:image"]`,
	`meta[property="twitter:image"]`,
}

// Options configures a Prober
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64

	// AllowPrivateHosts disables the public-address check on dialed hosts.
	AllowPrivateHosts bool
}

// Prober reads share-preview images from a listing page
type Prober struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewProber creates a new page prober
func NewProber(opts Options, logger *zap.Logger) *Prober {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := &net.Dialer{Timeout: opts.Timeout}
	if !opts.AllowPrivateHosts {
		dialer.Control = publicAddressOnly
	}

	return &Prober{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: opts.Timeout,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       logger.Named("pageprobe"),
	}
}

// publicAddressOnly rejects connections to addresses that are not publicly routable.
// It runs after DNS resolution, for every connection including redirects.
func publicAddressOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedHost, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedHost, address)
	}
	if !isPublicAddr(addr) {
		return fmt.Errorf("%w: %s", ErrBlockedHost, addr)
	}
	return nil
}

func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified()
}

// ProbeImages fetches the listing page and returns its og/twitter image URLs
// in document order. Relative URLs are resolved against the page URL.
// At most MaxBodyBytes of the page are read; tags past the cap are not seen.
func (p *Prober) ProbeImages(ctx context.Context, listingURL string) ([]domain.ImageCandidate, error) {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, p.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	var images []domain.ImageCandidate
	doc.Find(strings.Join(metaSelectors, ", ")).Each(func(i int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		ref, err := url.Parse(content)
		if err != nil {
			return
		}
		images = append(images, domain.ImageCandidate{
			URL:         base.ResolveReference(ref).String(),
			Description: probeDescription,
		})
	})

	p.logger.Debug("listing page probed", zap.String("url", listingURL), zap.Int("images", len(images)))
	return images, nil
}
