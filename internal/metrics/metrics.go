package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extraction metrics
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propview_extractions_total",
			Help: "Total number of gallery extractions by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "propview_extraction_duration_seconds",
			Help:    "Provider call plus normalization duration in seconds",
			Buckets: []float64{1, 5, 10, 20, 40, 60, 120, 240},
		},
		[]string{"provider"},
	)

	GalleryImages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "propview_gallery_images",
			Help:    "Number of images in a normalized gallery",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 50, 100},
		},
	)

	CandidatesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propview_candidates_dropped_total",
			Help: "Raw image candidates removed by the normalization pipeline",
		},
		[]string{"reason"},
	)

	// Cache metrics
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propview_cache_requests_total",
			Help: "Gallery cache lookups by result",
		},
		[]string{"result"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propview_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "propview_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Drop reasons
const (
	DropInvalidURL = "invalid_url"
	DropDuplicate  = "duplicate"
	DropNotImage   = "not_image"
)

// RecordDrops adds the per-reason drop counts of one pipeline run
func RecordDrops(invalid, duplicates, notImage int) {
	if invalid > 0 {
		CandidatesDropped.WithLabelValues(DropInvalidURL).Add(float64(invalid))
	}
	if duplicates > 0 {
		CandidatesDropped.WithLabelValues(DropDuplicate).Add(float64(duplicates))
	}
	if notImage > 0 {
		CandidatesDropped.WithLabelValues(DropNotImage).Add(float64(notImage))
	}
}
