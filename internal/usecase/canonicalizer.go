package usecase

import "strings"

// CanonicalKey strips the query string and fragment from an image URL.
// The key only detects duplicates; callers keep the original URL.
func CanonicalKey(rawURL string) string {
	if idx := strings.IndexAny(rawURL, "?#"); idx >= 0 {
		return rawURL[:idx]
	}
	return rawURL
}

// HasHTTPScheme reports whether rawURL is an absolute http or https URL
func HasHTTPScheme(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(lower, scheme) && len(rawURL) > len(scheme) {
			return true
		}
	}
	return false
}
