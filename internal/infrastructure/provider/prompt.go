package provider

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ListingPlaceholder marks where the user's listing URL or address goes in the instruction
const ListingPlaceholder = "{{listing}}"

// DefaultInstruction is the extraction prompt used when no prompt file is configured
const DefaultInstruction = `You are a meticulous real estate data investigator.
Goal: find as many high-resolution photos as possible for this listing: {{listing}}

Work through these steps:
1. Work out the street address, city and state from the input.
2. Do not stop at the given page. Search for "[address] gallery", "[address] listing photos" and "[address] interior photos".
3. Check Zillow, Redfin, Realtor.com, Trulia, Compass and Estately.
4. Collect direct image file URLs served from listing CDNs, for example:
   - photos.zillowstatic.com (prefer files ending in _p_f.jpg or _p_h.jpg)
   - ssl.cdn-redfin.com/photo/
   - ar.rdcpix.com/
   - images.kw.com
   - photos.estately.net
5. Listings usually have 30 to 50 photos; return at least 20 unique links when they exist.
6. Leave out maps, street views, agent headshots and platform logos.

Many listing sites block automated visits. Use search results to find copies of the photos that are publicly indexed.

Answer with a single JSON object and nothing else:
{"address": string, "price": string, "beds": string, "baths": string, "sqft": string,
 "images": [{"url": string, "description": string}]}`

// Prompts holds the instruction templates sent to extraction providers
type Prompts struct {
	Extraction ExtractionPrompt `toml:"extraction"`
}

// ExtractionPrompt is the listing extraction instruction
type ExtractionPrompt struct {
	System      string `toml:"system"`
	Instruction string `toml:"instruction"`
}

// DefaultPrompts returns the built-in prompts
func DefaultPrompts() *Prompts {
	return &Prompts{
		Extraction: ExtractionPrompt{
			System:      "You return structured real estate listing data as strict JSON.",
			Instruction: DefaultInstruction,
		},
	}
}

// LoadPrompts reads prompt overrides from a TOML file. An empty path or an
// empty field falls back to the built-in prompt.
func LoadPrompts(path string) (*Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file '%s': %w", path, err)
	}

	var overrides Prompts
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse prompt TOML: %w", err)
	}

	if strings.TrimSpace(overrides.Extraction.System) != "" {
		prompts.Extraction.System = overrides.Extraction.System
	}
	if strings.TrimSpace(overrides.Extraction.Instruction) != "" {
		if !strings.Contains(overrides.Extraction.Instruction, ListingPlaceholder) {
			return nil, fmt.Errorf("prompt file '%s': extraction.instruction must contain %s", path, ListingPlaceholder)
		}
		prompts.Extraction.Instruction = overrides.Extraction.Instruction
	}

	return prompts, nil
}

// Render fills the listing placeholder with the query
func (p *Prompts) Render(query string) string {
	return strings.ReplaceAll(p.Extraction.Instruction, ListingPlaceholder, query)
}
