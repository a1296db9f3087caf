package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propview/backend/internal/domain"
	"github.com/propview/backend/internal/usecase"
	"go.uber.org/zap"
)

// ParseFailureMessage is shown to users when the provider answer cannot be parsed
const ParseFailureMessage = "The search engine was unable to parse the gallery metadata. The listing may be too new or private."

// Handler holds dependencies for HTTP handlers
type Handler struct {
	extractionService *usecase.ExtractionService
	logger            *zap.Logger
}

// NewHandler creates a new HTTP handler. A nil service makes the listing
// endpoints answer 503.
func NewHandler(extractionService *usecase.ExtractionService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		extractionService: extractionService,
		logger:            logger.Named("http"),
	}
}

// extractResponse is the gallery plus the empty-gallery hint
type extractResponse struct {
	*domain.ExtractionResult
	NoAssetsFound  bool   `json:"noAssetsFound"`
	SuggestedQuery string `json:"suggestedQuery,omitempty"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "propview-backend",
		"version": "1.0.0",
	})
}

// ExtractListing handles gallery extraction requests
func (h *Handler) ExtractListing(c *gin.Context) {
	if h.extractionService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Extraction service not configured",
		})
		return
	}

	var req domain.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.extractionService.Extract(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := extractResponse{ExtractionResult: result}
	if len(result.Property.Images) == 0 {
		resp.NoAssetsFound = true
		resp.SuggestedQuery = h.extractionService.AddressHint(req.Query)
	}
	c.JSON(http.StatusOK, resp)
}

// AddressHint returns the address-only retry query for a listing URL
func (h *Handler) AddressHint(c *gin.Context) {
	if h.extractionService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Extraction service not configured",
		})
		return
	}

	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query parameter is required",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":          query,
		"suggestedQuery": h.extractionService.AddressHint(query),
	})
}

// handleError maps domain errors to HTTP responses
func (h *Handler) handleError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status, message = http.StatusBadRequest, "Query must be a listing URL or street address"
	case errors.Is(err, domain.ErrParseFailure):
		status, message = http.StatusBadGateway, ParseFailureMessage
	case errors.Is(err, domain.ErrMissingAddress):
		status, message = http.StatusUnprocessableEntity, "The listing details did not include a property address"
	case errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, "Extraction rate limit exceeded, try again later"
	case errors.Is(err, domain.ErrProviderFailure):
		status, message = http.StatusBadGateway, "The extraction provider is unavailable"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	c.JSON(status, gin.H{
		"error":     message,
		"requestId": c.GetString(requestIDKey),
	})
}
