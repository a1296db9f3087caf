package usecase

import (
	"strings"

	"github.com/propview/backend/internal/domain"
)

// imageExtensions are the raster formats listing CDNs serve
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".avif"}

// genericImageMarkers flag URLs that usually serve images whatever their filename
var genericImageMarkers = []string{"photo", "cdn"}

// DefaultVendorMarkers are static-image domains of listing platforms
var DefaultVendorMarkers = []string{"zillowstatic", "rdcpix", "images.kw.com"}

// ValidityFilter drops candidates that do not look like image assets.
type ValidityFilter struct {
	markers []string
}

// NewValidityFilter creates a filter recognizing the given vendor markers
// in addition to the generic ones.
func NewValidityFilter(vendorMarkers []string) *ValidityFilter {
	if vendorMarkers == nil {
		vendorMarkers = DefaultVendorMarkers
	}
	markers := make([]string, 0, len(genericImageMarkers)+len(vendorMarkers))
	markers = append(markers, genericImageMarkers...)
	for _, m := range vendorMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			markers = append(markers, m)
		}
	}
	return &ValidityFilter{markers: markers}
}

// IsLikelyImage reports whether the candidate URL mentions an image extension
// anywhere or carries one of the known image-host markers.
// Image proxies and path-style resizers put the extension mid-URL.
func (f *ValidityFilter) IsLikelyImage(candidate domain.ImageCandidate) bool {
	lower := strings.ToLower(candidate.URL)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}

	for _, marker := range f.markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Filter returns the candidates that pass IsLikelyImage, preserving order
func (f *ValidityFilter) Filter(images []domain.ImageCandidate) []domain.ImageCandidate {
	kept := make([]domain.ImageCandidate, 0, len(images))
	for _, img := range images {
		if f.IsLikelyImage(img) {
			kept = append(kept, img)
		}
	}
	return kept
}
