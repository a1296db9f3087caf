package usecase

import (
	"strings"

	"github.com/propview/backend/internal/domain"
)

// MarkerFunc reports whether a raw image URL points at a high-resolution variant
type MarkerFunc func(rawURL string) bool

// CDNFamily describes one listing platform's image CDN
type CDNFamily struct {
	Name      string
	Hosts     []string // host or path fragments matched against the canonical key
	IsHighRes MarkerFunc
}

// matches reports whether the canonical key belongs to this family
func (f CDNFamily) matches(key string) bool {
	for _, host := range f.Hosts {
		if host != "" && strings.Contains(key, host) {
			return true
		}
	}
	return false
}

// ResolutionPolicy decides which of two same-key candidates to keep.
// Families are checked in registration order.
type ResolutionPolicy struct {
	families []CDNFamily
}

// NewResolutionPolicy creates a policy from the given families
func NewResolutionPolicy(families ...CDNFamily) *ResolutionPolicy {
	p := &ResolutionPolicy{}
	for _, f := range families {
		p.Register(f)
	}
	return p
}

// DefaultResolutionPolicy knows the Zillow CDN, whose _p_f and _p_h
// filename suffixes are the full-size renditions.
func DefaultResolutionPolicy() *ResolutionPolicy {
	return NewResolutionPolicy(CDNFamily{
		Name:      "zillow",
		Hosts:     []string{"zillowstatic"},
		IsHighRes: MarkerSuffixes("_p_f", "_p_h"),
	})
}

// MarkerSuffixes builds a MarkerFunc that matches any of the given tokens
func MarkerSuffixes(markers ...string) MarkerFunc {
	return func(rawURL string) bool {
		for _, m := range markers {
			if m != "" && strings.Contains(rawURL, m) {
				return true
			}
		}
		return false
	}
}

// Register adds a family, replacing any family with the same name in place
func (p *ResolutionPolicy) Register(family CDNFamily) {
	if family.IsHighRes == nil {
		family.IsHighRes = func(string) bool { return false }
	}
	for i, existing := range p.families {
		if existing.Name == family.Name {
			p.families[i] = family
			return
		}
	}
	p.families = append(p.families, family)
}

// Families returns the registered family names in match order
func (p *ResolutionPolicy) Families() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.families))
	for _, f := range p.families {
		names = append(names, f.Name)
	}
	return names
}

// Family returns the first family recognizing the canonical key
func (p *ResolutionPolicy) Family(key string) (CDNFamily, bool) {
	if p == nil {
		return CDNFamily{}, false
	}
	for _, f := range p.families {
		if f.matches(key) {
			return f, true
		}
	}
	return CDNFamily{}, false
}

// Preferred returns the candidate to keep for key.
// Only a recognized family can replace the existing candidate, and only with
// a high-resolution variant over one that is not. Ties keep the existing one.
func (p *ResolutionPolicy) Preferred(existing, incoming domain.ImageCandidate, key string) domain.ImageCandidate {
	family, ok := p.Family(key)
	if !ok {
		return existing
	}
	if family.IsHighRes(incoming.URL) && !family.IsHighRes(existing.URL) {
		return incoming
	}
	return existing
}
