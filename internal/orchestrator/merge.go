package orchestrator

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/venued/internal/session"
)

// Constraint-carrying vocabulary: a prior turn qualifies for merging when it
// mentions capacity, dates, venue types, or amenities.
var requirementKeywords = []string{
	"capacity", "people", "guests", "attendees", "budget", "price",
	"wedding", "corporate", "conference", "party", "reception", "birthday",
	"concert", "festival", "sports", "cultural",
	"outdoor", "indoor", "banquet", "hall", "garden", "auditorium",
	"catering", "parking", "stage", "accommodation",
	"week", "month", "tomorrow", "today", "weekend", "date",
}

// assistantOpeners mark turns that read like assistant output even when the
// history mislabels them; such turns never qualify as prior requirements.
var assistantOpeners = []string{
	"i apologize",
	"i found",
	"i'm not sure",
	"i'd love",
	"here are",
	"sure,",
	"certainly",
	"thank",
	"##",
	"|",
}

// Digit runs of two or more read as capacities, dates, or budgets.
var numericToken = regexp.MustCompile(`\d{2,}`)

const maxMergeCandidates = 3

// MergeRequirements combines the most recent constraint-carrying prior user
// turn with the current input so discovery sees the full requirement.
//
// The current input always comes last so its constraints override earlier
// ones. At most one prior turn is ever selected, which keeps the merge
// idempotent: feeding a merged string back in as the current input cannot
// re-grow it once the selected turn is no longer the most recent qualifying
// one.
func MergeRequirements(history []session.Turn, current string) string {
	candidates := 0
	for i := len(history) - 1; i >= 0 && candidates < maxMergeCandidates; i-- {
		t := history[i]
		if t.Role != session.RoleUser || looksLikeAssistantOutput(t.Content) {
			continue
		}
		candidates++

		if !carriesRequirement(t.Content) {
			continue
		}
		prior := strings.TrimSpace(t.Content)
		// A current input that already contains the prior turn (e.g. a
		// previously merged string) must not grow again.
		if prior == "" || strings.Contains(current, prior) {
			continue
		}
		return prior + ". " + current
	}
	return current
}

func looksLikeAssistantOutput(content string) bool {
	lower := strings.ToLower(strings.TrimSpace(content))
	for _, opener := range assistantOpeners {
		if strings.HasPrefix(lower, opener) {
			return true
		}
	}
	return false
}

func carriesRequirement(content string) bool {
	if numericToken.MatchString(content) {
		return true
	}
	lower := strings.ToLower(content)
	for _, kw := range requirementKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
