package orchestrator

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/venued/internal/session"
)

// Pure formatting for every user-facing reply shape. No state-machine logic
// lives here.

const startOverMessage = "I don't have any venues stored from our previous conversation. Please start by asking for venue recommendations."

const cannotProcessMessage = `## Venue Information
%s

## Risk Assessment
Unable to process venue information for risk assessment. Please try rephrasing your query.`

const noVenuesMessage = `## Venue Information
%s

## Risk Assessment
Unable to identify specific venues for risk assessment. Please provide more specific details about your event requirements.`

// composeOffer renders the discovery output with a numbered venue list and
// an invitation to request risk assessment.
func composeOffer(discoveryOutput string, venues []session.Venue) string {
	var b strings.Builder

	b.WriteString("## Venue Recommendations\n")
	b.WriteString(discoveryOutput)
	b.WriteString("\n\n## Risk Assessment Option\n\n")
	fmt.Fprintf(&b, "I found %d venues that match your requirements. Would you like me to perform a detailed risk assessment for these venues?\n\n", len(venues))
	b.WriteString("**Available venues:**\n")
	for i, v := range venues {
		fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, v.Name, orUnknown(v.Location))
	}
	b.WriteString(`
**To get risk assessment, please respond with:**
- "Yes" or "Risk assessment" - to assess risks for all venues
- "Venue 1" or a venue name - to assess risks for specific venue(s)
- "No" - if you don't need risk assessment

The risk assessment will include venue-specific information about:
- Current weather alerts and warnings
- Recent security incidents in the area
- Health alerts and disease outbreaks
- Traffic and infrastructure issues
- Conflicting events or VIP movements`)

	return b.String()
}

// composeClarification lists the known venues by ordinal and re-prompts.
func composeClarification(venues []session.Venue) string {
	var b strings.Builder
	b.WriteString("I'm not sure which venues you'd like me to assess for risks.\n\n")
	for i, v := range venues {
		fmt.Fprintf(&b, "%d. %s\n", i+1, v.Name)
	}
	b.WriteString(`
Please specify which venues you'd like me to assess by responding with:
- "All venues" or "Yes" - for all venues
- "Venue 1" or a venue name - for specific venue(s)
- Venue numbers like "1 and 3" or "first and third"`)
	return b.String()
}

// composeNoVenues wraps an empty or unusable discovery result.
func composeNoVenues(discoveryOutput string) string {
	return fmt.Sprintf(noVenuesMessage, discoveryOutput)
}

// composeCannotProcess is the fallback when classification yields nothing
// actionable.
func composeCannotProcess(discoveryOutput string) string {
	return fmt.Sprintf(cannotProcessMessage, discoveryOutput)
}

// composeWithReport appends a risk report beneath a venue summary for the
// same-turn chained path.
func composeWithReport(venueSection, report string) string {
	return venueSection + "\n\n" + report
}

func apology(stage string, err error) string {
	return fmt.Sprintf("I apologize, but I encountered an error during %s: %v", stage, err)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
