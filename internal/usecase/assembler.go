package usecase

import (
	"strings"

	"github.com/propview/backend/internal/domain"
)

// DefaultSourceTitle labels grounding sources reported without a title
const DefaultSourceTitle = "Search Result"

// PipelineStats counts what happened to the raw candidates of one run
type PipelineStats struct {
	Raw        int
	Skipped    int
	Duplicates int
	Upgrades   int
	Filtered   int
	Images     int
}

// Assembler turns a raw provider answer into an ExtractionResult
type Assembler struct {
	aggregator *Aggregator
	filter     *ValidityFilter
}

// NewAssembler wires the aggregation and filtering stages
func NewAssembler(aggregator *Aggregator, filter *ValidityFilter) *Assembler {
	if aggregator == nil {
		aggregator = NewAggregator(DefaultResolutionPolicy(), DefaultImageDescription)
	}
	if filter == nil {
		filter = NewValidityFilter(nil)
	}
	return &Assembler{
		aggregator: aggregator,
		filter:     filter,
	}
}

// AssemblePayload parses the provider payload and assembles it
func (a *Assembler) AssemblePayload(payload string, grounding []domain.GroundingChunk) (*domain.ExtractionResult, PipelineStats, error) {
	parsed, err := ParseListingPayload(payload)
	if err != nil {
		return nil, PipelineStats{}, err
	}
	return a.Assemble(parsed.Metadata, parsed.Images, grounding)
}

// Assemble deduplicates and filters rawImages, attaches them to metadata and
// collects the cited sources. An empty gallery is a valid result; a missing
// address is not.
func (a *Assembler) Assemble(
	metadata domain.ListingMetadata,
	rawImages []domain.ImageCandidate,
	rawSources []domain.GroundingChunk,
) (*domain.ExtractionResult, PipelineStats, error) {
	stats := PipelineStats{Raw: len(rawImages)}

	if strings.TrimSpace(metadata.Address) == "" {
		return nil, stats, domain.ErrMissingAddress
	}

	table := a.aggregator.Aggregate(rawImages)
	unique := table.Images()
	images := a.filter.Filter(unique)

	stats.Skipped = table.Skipped
	stats.Duplicates = table.Duplicates
	stats.Upgrades = table.Upgrades
	stats.Filtered = len(unique) - len(images)
	stats.Images = len(images)

	metadata.Images = images

	return &domain.ExtractionResult{
		Property: metadata,
		Sources:  MapSources(rawSources),
	}, stats, nil
}

// MapSources converts grounding chunks to citations, dropping entries
// without a URI and keeping the provider's order.
func MapSources(chunks []domain.GroundingChunk) []domain.SourceCitation {
	sources := make([]domain.SourceCitation, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = DefaultSourceTitle
		}
		sources = append(sources, domain.SourceCitation{Title: title, URI: chunk.Web.URI})
	}
	return sources
}
