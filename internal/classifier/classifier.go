// Package classifier decides the next conversational step from the venue
// finder's output.
//
// The decision comes from a single oracle call with a fixed JSON contract.
// The classifier is the only place that validates the oracle's reply: it
// never returns an error, falling back to a safe decision on any parse or
// transport failure, and it applies a deterministic evidence override so a
// model can never steer the conversation into risk assessment without venues
// to assess.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/venued/internal/oracle"
	"github.com/fyrsmithlabs/venued/internal/session"
)

// Action is the classifier's verdict on what to do next.
type Action string

const (
	// ActionAskForInfo means the venue finder needs more details first.
	ActionAskForInfo Action = "ask_for_info"
	// ActionExtractVenues means real venues were found and extracted.
	ActionExtractVenues Action = "extract_venues"
	// ActionNoVenuesFound means the search came up empty or unclear.
	ActionNoVenuesFound Action = "no_venues_found"
	// ActionRiskAssessment means the user is asking for risk assessment.
	ActionRiskAssessment Action = "risk_assessment"
	// ActionEnd means the user is done with the conversation.
	ActionEnd Action = "end"
)

func (a Action) valid() bool {
	switch a {
	case ActionAskForInfo, ActionExtractVenues, ActionNoVenuesFound, ActionRiskAssessment, ActionEnd:
		return true
	}
	return false
}

// Decision is the validated classifier output. Downstream code can rely on
// Action being one of the defined constants and Venues holding only
// concretely named venues.
type Decision struct {
	Action    Action          `json:"action"`
	Reasoning string          `json:"reasoning"`
	Venues    []session.Venue `json:"venues"`
}

// Classifier turns venue-finder output into a Decision.
type Classifier struct {
	oracle oracle.Oracle
	logger *zap.Logger
}

// New creates a classifier.
func New(o oracle.Oracle, logger *zap.Logger) *Classifier {
	return &Classifier{oracle: o, logger: logger.Named("classifier")}
}

const promptTemplate = `You are an intelligent coordinator for a venue and risk assessment system. Analyze the venue finder's response and determine the next steps.

User's original query: %s

Venue finder's response:
%s

Please analyze this response and provide a JSON response with the following structure:
{
    "action": "ask_for_info" | "extract_venues" | "no_venues_found" | "risk_assessment" | "end",
    "reasoning": "Brief explanation of your decision",
    "venues": [
        {
            "name": "Venue Name",
            "location": "Specific Location",
            "type": "Venue Type"
        }
    ]
}

Decision rules:
- If the venue finder is asking for more information (questions, clarifications), set action to "ask_for_info"
- If the venue finder provided actual venues (names, locations, details), set action to "extract_venues" and extract the venue information
- If no venues were found or the response is unclear, set action to "no_venues_found"
- If the user is explicitly asking for a risk assessment of already-known venues, set action to "risk_assessment"
- If the user is ending the conversation, set action to "end"
- Only extract venues that are actual venue names, not generic words or descriptions
- For venues, extract the most relevant information available (name, location, type)
- Only ask for more information if the venue finder output is missing location or event type, NOT capacity or price.

Respond with ONLY the JSON, no additional text.`

// Classify analyzes the venue-finder output for one user query.
//
// It never returns an error: any failure degrades to the safe fallback
// decision (extract_venues with no venues), which downstream treats as
// "nothing usable was found".
func (c *Classifier) Classify(ctx context.Context, userQuery, venueOutput string) Decision {
	prompt := fmt.Sprintf(promptTemplate, userQuery, venueOutput)

	reply, err := c.oracle.Complete(ctx, prompt)
	if err != nil {
		c.logger.Warn("classification call failed, using fallback", zap.Error(err))
		return fallbackDecision("oracle call failed")
	}

	decision, ok := parseDecision(reply)
	if !ok {
		c.logger.Warn("could not parse classification reply, using fallback",
			zap.Int("reply_len", len(reply)))
		return fallbackDecision("could not parse reply")
	}

	decision = c.applyEvidenceOverride(decision, venueOutput)
	return decision
}

// applyEvidenceOverride forces risk_assessment back to extract_venues when
// there is no evidence any venue exists: empty finder output and no
// concretely named venue in the decision itself.
func (c *Classifier) applyEvidenceOverride(d Decision, venueOutput string) Decision {
	if d.Action != ActionRiskAssessment {
		return d
	}
	if strings.TrimSpace(venueOutput) != "" || len(d.Venues) > 0 {
		return d
	}
	c.logger.Info("overriding risk_assessment: no venue evidence",
		zap.String("reasoning", d.Reasoning))
	d.Action = ActionExtractVenues
	d.Reasoning = "no venue evidence for risk assessment"
	return d
}

// parseDecision extracts and validates the first top-level JSON object in
// the reply.
func parseDecision(reply string) (Decision, bool) {
	raw, ok := extractJSONObject(reply)
	if !ok {
		return Decision{}, false
	}

	var d Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Decision{}, false
	}
	if !d.Action.valid() {
		return Decision{}, false
	}

	// Keep only concretely named venues; the contract downstream is that
	// Decision.Venues needs no further shape checks.
	kept := d.Venues[:0]
	for _, v := range d.Venues {
		if v.Concrete() {
			kept = append(kept, v)
		}
	}
	d.Venues = session.Dedupe(kept)

	return d, true
}

// extractJSONObject returns the first balanced top-level {...} in s,
// tolerating prose or code fences around it.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func fallbackDecision(reason string) Decision {
	return Decision{
		Action:    ActionExtractVenues,
		Reasoning: reason,
		Venues:    nil,
	}
}
