package usecase

import (
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestNewQueryPreprocessor(t *testing.T) {
	t.Run("defaults to a no-op logger", func(t *testing.T) {
		p := NewQueryPreprocessor(nil)
		if p.logger == nil {
			t.Error("expected a logger")
		}
	})

	t.Run("keeps the given logger", func(t *testing.T) {
		logger := zaptest.NewLogger(t)
		p := NewQueryPreprocessor(logger)
		if p.logger != logger {
			t.Error("expected the given logger")
		}
	})
}

func TestNormalize(t *testing.T) {
	p := NewQueryPreprocessor(nil)

	testCases := []struct {
		name  string
		query string
		want  string
	}{
		{"trims", "  123 Main St  ", "123 Main St"},
		{"collapses inner whitespace", "123   Main\tSt,\n Springfield", "123 Main St, Springfield"},
		{"keeps case", "123 MAIN St", "123 MAIN St"},
		{"blank", "   ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.Normalize(tc.query); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}

func TestIsListingURL(t *testing.T) {
	p := NewQueryPreprocessor(nil)

	testCases := []struct {
		query string
		want  bool
	}{
		{"https://www.zillow.com/homedetails/123-Main-St/1_zpid/", true},
		{"http://redfin.com/IL/Springfield/123-Main-St/home/555", true},
		{"123 Main St, Springfield, IL", false},
		{"zillow.com/homedetails/123", false},
		{"https://", false},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			if got := p.IsListingURL(tc.query); got != tc.want {
				t.Errorf("IsListingURL(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestAddressHint(t *testing.T) {
	p := NewQueryPreprocessor(zaptest.NewLogger(t))

	testCases := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "zillow homedetails",
			query: "https://www.zillow.com/homedetails/123-Main-St-Austin-TX-78701/2077675938_zpid/",
			want:  "123 Main St Austin TX 78701",
		},
		{
			name:  "redfin home id",
			query: "https://www.redfin.com/TX/Austin/456-Oak-Ave-78702/home/12345",
			want:  "456 Oak Ave 78702",
		},
		{
			name:  "escaped segment",
			query: "https://example.com/listing/789-Pine-Rd%2C-Dallas",
			want:  "789 Pine Rd, Dallas",
		},
		{
			name:  "query string ignored",
			query: "https://www.zillow.com/homedetails/1-Elm-St-Waco-TX/99_zpid/?utm_source=share",
			want:  "1 Elm St Waco TX",
		},
		{
			name:  "no dashed segment falls back to last word segment",
			query: "https://example.com/listings/springfield/12345",
			want:  "springfield",
		},
		{
			name:  "only ids returns the query",
			query: "https://example.com/12345",
			want:  "https://example.com/12345",
		},
		{
			name:  "address passes through normalized",
			query: "  123 Main St,   Springfield ",
			want:  "123 Main St, Springfield",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.AddressHint(tc.query); got != tc.want {
				t.Errorf("AddressHint(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}

func TestCacheKey(t *testing.T) {
	p := NewQueryPreprocessor(nil)

	testCases := []struct {
		name  string
		query string
		want  string
	}{
		{"lowercases", "123 Main St", "extraction:123 main st"},
		{"normalizes whitespace", "  123   Main St ", "extraction:123 main st"},
		{"url", "https://www.Zillow.com/homedetails/1_zpid/", "extraction:https://www.zillow.com/homedetails/1_zpid/"},
		{"url scheme and host lowercased", "HTTPS://WWW.Redfin.COM/listing/AbC123", "extraction:https://www.redfin.com/listing/AbC123"},
		{"url path case kept", "https://www.redfin.com/listing/AbC123", "extraction:https://www.redfin.com/listing/AbC123"},
		{"url query case kept", "https://example.com/l?id=XyZ", "extraction:https://example.com/l?id=XyZ"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.CacheKey(tc.query); got != tc.want {
				t.Errorf("CacheKey(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}

func TestCacheKey_URLPathCaseDistinct(t *testing.T) {
	p := NewQueryPreprocessor(nil)

	upper := p.CacheKey("https://www.example.com/listing/AbC123")
	lower := p.CacheKey("https://www.example.com/listing/abc123")
	if upper == lower {
		t.Errorf("CacheKey() = %q for both path casings, want distinct keys", upper)
	}
}
