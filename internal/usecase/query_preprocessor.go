package usecase

import (
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Compiled regex patterns for query preprocessing
var (
	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)

	// Listing ids such as "2077675938_zpid" or "home/12345" carry no address words
	listingIDPattern = regexp.MustCompile(`^[0-9_]+(zpid)?$|^[0-9]+$`)
)

// QueryPreprocessor cleans user queries and derives address-only fallbacks
type QueryPreprocessor struct {
	logger *zap.Logger
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger *zap.Logger) *QueryPreprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryPreprocessor{logger: logger}
}

// Normalize trims the query and collapses inner whitespace
func (p *QueryPreprocessor) Normalize(query string) string {
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(query, " "))
}

// IsListingURL reports whether the query is an http(s) link rather than an address
func (p *QueryPreprocessor) IsListingURL(query string) bool {
	if !HasHTTPScheme(query) {
		return false
	}
	u, err := url.Parse(query)
	return err == nil && u.Host != ""
}

// AddressHint derives an address-only query from a listing URL, e.g.
// ".../homedetails/123-Main-St-Austin-TX-78701/2077_zpid/" -> "123 Main St Austin TX 78701".
// Addresses come back unchanged.
func (p *QueryPreprocessor) AddressHint(query string) string {
	query = p.Normalize(query)
	if !p.IsListingURL(query) {
		return query
	}

	u, err := url.Parse(query)
	if err != nil {
		return query
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	hint := ""
	for i := len(segments) - 1; i >= 0; i-- {
		segment, err := url.PathUnescape(segments[i])
		if err != nil {
			segment = segments[i]
		}
		if strings.Contains(segment, "-") && !listingIDPattern.MatchString(segment) {
			hint = segment
			break
		}
		if hint == "" && !listingIDPattern.MatchString(segment) {
			hint = segment
		}
	}
	if hint == "" {
		return query
	}

	hint = p.Normalize(strings.ReplaceAll(hint, "-", " "))
	p.logger.Debug("derived address hint", zap.String("query", query), zap.String("hint", hint))
	return hint
}

// CacheKey creates a normalized cache key for a query.
// Addresses are lower-cased whole. Listing URLs only get the scheme and host
// lower-cased, since paths and query strings are case-sensitive.
func (p *QueryPreprocessor) CacheKey(query string) string {
	query = p.Normalize(query)
	if p.IsListingURL(query) {
		if u, err := url.Parse(query); err == nil {
			u.Scheme = strings.ToLower(u.Scheme)
			u.Host = strings.ToLower(u.Host)
			return "extraction:" + u.String()
		}
	}
	return "extraction:" + strings.ToLower(query)
}
