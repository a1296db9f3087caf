package usecase

import (
	"strings"

	"github.com/propview/backend/internal/domain"
)

// DefaultImageDescription is used for candidates reported without a description
const DefaultImageDescription = "Property View"

// DedupTable maps canonical keys to the preferred candidate, remembering
// the order in which each key was first seen.
type DedupTable struct {
	order   []string
	entries map[string]domain.ImageCandidate

	Skipped    int // candidates without a usable http(s) URL
	Duplicates int // candidates that lost to an existing entry
	Upgrades   int // candidates that replaced an existing entry in place
}

func newDedupTable(capacity int) *DedupTable {
	return &DedupTable{
		order:   make([]string, 0, capacity),
		entries: make(map[string]domain.ImageCandidate, capacity),
	}
}

// Len returns the number of unique keys
func (t *DedupTable) Len() int {
	return len(t.order)
}

// Keys returns the canonical keys in first-seen order
func (t *DedupTable) Keys() []string {
	keys := make([]string, len(t.order))
	copy(keys, t.order)
	return keys
}

// Get returns the candidate currently stored for key
func (t *DedupTable) Get(key string) (domain.ImageCandidate, bool) {
	c, ok := t.entries[key]
	return c, ok
}

// Images returns the stored candidates in first-seen key order
func (t *DedupTable) Images() []domain.ImageCandidate {
	images := make([]domain.ImageCandidate, 0, len(t.order))
	for _, key := range t.order {
		images = append(images, t.entries[key])
	}
	return images
}

// Aggregator folds raw candidates into a DedupTable
type Aggregator struct {
	policy      *ResolutionPolicy
	placeholder string
}

// NewAggregator creates an aggregator. A nil policy keeps the first-seen
// candidate for every key.
func NewAggregator(policy *ResolutionPolicy, placeholder string) *Aggregator {
	if placeholder == "" {
		placeholder = DefaultImageDescription
	}
	return &Aggregator{
		policy:      policy,
		placeholder: placeholder,
	}
}

// Aggregate runs a single pass over raw in input order.
// Unusable URLs are dropped without error; a replaced entry keeps its position.
func (a *Aggregator) Aggregate(raw []domain.ImageCandidate) *DedupTable {
	table := newDedupTable(len(raw))

	for _, candidate := range raw {
		if !HasHTTPScheme(candidate.URL) {
			table.Skipped++
			continue
		}
		if strings.TrimSpace(candidate.Description) == "" {
			candidate.Description = a.placeholder
		}

		key := CanonicalKey(candidate.URL)
		existing, seen := table.entries[key]
		if !seen {
			table.order = append(table.order, key)
			table.entries[key] = candidate
			continue
		}

		winner := a.policy.Preferred(existing, candidate, key)
		if winner != existing {
			table.entries[key] = winner
			table.Upgrades++
		} else {
			table.Duplicates++
		}
	}

	return table
}
