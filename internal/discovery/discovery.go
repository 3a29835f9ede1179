// Package discovery finds candidate venues for a user requirement.
//
// A discovery run needs a location: without one it short-circuits into a
// clarifying question instead of searching. With one, it runs a web search
// for the requirement and asks the oracle to render the results as a
// Markdown venue table. An empty search yields empty output, which the
// caller's classifier reads as "no venues found".
package discovery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/venued/internal/oracle"
	"github.com/fyrsmithlabs/venued/internal/websearch"
)

// locationPrompt asks the oracle to pull a location out of the requirement.
const locationPrompt = `Extract the city or location where the user wants to hold their event from the query below.

Query: %s

Respond with ONLY the location name. If no location is mentioned anywhere in the query, respond with exactly NONE.`

// renderPrompt turns raw search results into the venue table shown to users.
const renderPrompt = `You are a helpful assistant for finding event venues. Using ONLY the web search results below, present the venues that match the user's requirement.

User's requirement: %s

Web search results:
%s

IMPORTANT RULES:
- ALWAYS format your response in Markdown
- ALWAYS present venues in a proper Markdown table with headers and separators
- Use this exact table format:
| Name | Location | Type | Capacity | Price Range | Key Features |
|------|----------|------|----------|-------------|--------------|
- Provide up to 5 venues; use "N/A" for details the search results do not give
- ALWAYS include the city/location name prominently in your response for context
- Match the venue type to the event type in the requirement
- NEVER invent venues that do not appear in the search results
- If the search results contain no usable venues, respond with exactly NO_VENUES and nothing else
- Keep the response conversational and friendly around the table`

// askLocation is the clarifying question sent when no location is given.
const askLocation = "I'd love to help you find venues! Could you tell me which city or area you're planning the event in?"

// noVenuesMarker is what the renderer emits when results are unusable.
const noVenuesMarker = "NO_VENUES"

// Finder discovers venues via web search plus oracle rendering.
type Finder struct {
	oracle   oracle.Oracle
	searcher websearch.Searcher
	logger   *zap.Logger
}

// NewFinder creates a Finder.
func NewFinder(o oracle.Oracle, s websearch.Searcher, logger *zap.Logger) *Finder {
	return &Finder{oracle: o, searcher: s, logger: logger.Named("discovery")}
}

// Find runs one discovery pass for the requirement.
//
// The returned string is either a clarifying question, a Markdown venue
// table, or empty when the search found nothing usable.
func (f *Finder) Find(ctx context.Context, requirement string) (string, error) {
	location, err := f.extractLocation(ctx, requirement)
	if err != nil {
		return "", fmt.Errorf("extracting location: %w", err)
	}
	if location == "" {
		f.logger.Info("no location in requirement, asking for one")
		return askLocation, nil
	}

	digest, err := f.searcher.Search(ctx, requirement)
	if err != nil {
		return "", fmt.Errorf("searching venues: %w", err)
	}
	if strings.TrimSpace(digest) == "" {
		f.logger.Info("search returned no results", zap.String("location", location))
		return "", nil
	}

	rendered, err := f.oracle.Complete(ctx, fmt.Sprintf(renderPrompt, requirement, digest))
	if err != nil {
		return "", fmt.Errorf("rendering venues: %w", err)
	}
	if strings.TrimSpace(rendered) == noVenuesMarker {
		return "", nil
	}
	return rendered, nil
}

func (f *Finder) extractLocation(ctx context.Context, requirement string) (string, error) {
	reply, err := f.oracle.Complete(ctx, fmt.Sprintf(locationPrompt, requirement))
	if err != nil {
		return "", err
	}
	location := strings.TrimSpace(reply)
	if location == "" || strings.EqualFold(location, "NONE") {
		return "", nil
	}
	return location, nil
}
