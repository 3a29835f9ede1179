package orchestrator

import (
	"strings"

	"github.com/fyrsmithlabs/venued/internal/session"
)

// selectAllLexicon marks a follow-up as choosing every known venue.
var selectAllLexicon = []string{
	"yes",
	"all venues",
	"all",
	"risk assessment",
	"assess risks",
}

// ordinalCues map positional references onto venue indexes (1-indexed).
var ordinalCues = []struct {
	cues  []string
	index int
}{
	{[]string{"1", "first"}, 0},
	{[]string{"2", "second"}, 1},
	{[]string{"3", "third"}, 2},
}

// Word-level name matching needs tokens of at least this length; shorter
// tokens ("the", "inn") over-match across venue names.
const minMatchTokenLen = 4

// matchStopwords are long-enough tokens that still carry no venue identity.
var matchStopwords = map[string]bool{
	"venue": true, "venues": true, "hotel": true, "place": true,
	"please": true, "assess": true, "risks": true, "risk": true,
	"about": true, "what": true, "would": true, "like": true,
	"this": true, "that": true, "with": true, "from": true,
	"them": true, "both": true,
}

// ResolveSelection maps a free-text follow-up onto a subset of the known
// venues. An empty result means the reference was ambiguous and the caller
// should ask for clarification instead of assessing anything.
func ResolveSelection(input string, venues []session.Venue) []session.Venue {
	lower := strings.ToLower(input)

	for _, phrase := range selectAllLexicon {
		if strings.Contains(lower, phrase) {
			return append([]session.Venue(nil), venues...)
		}
	}

	var selected []session.Venue
	picked := make(map[int]bool)

	for _, oc := range ordinalCues {
		if oc.index >= len(venues) {
			continue
		}
		for _, cue := range oc.cues {
			if strings.Contains(lower, cue) && !picked[oc.index] {
				picked[oc.index] = true
				selected = append(selected, venues[oc.index])
				break
			}
		}
	}

	for i, v := range venues {
		if picked[i] {
			continue
		}
		if nameMatches(lower, v.Name) {
			picked[i] = true
			selected = append(selected, v)
		}
	}

	return selected
}

// nameMatches checks the venue name against the input in both directions:
// the full name, its first word, or any of its words appearing in the input,
// or any input word appearing inside the name. Word-level checks are bounded
// by minMatchTokenLen and the stopword list.
func nameMatches(lowerInput, name string) bool {
	lowerName := strings.ToLower(strings.TrimSpace(name))
	if lowerName == "" {
		return false
	}
	if strings.Contains(lowerInput, lowerName) {
		return true
	}

	nameWords := strings.Fields(lowerName)
	if len(nameWords) > 0 && usableToken(nameWords[0]) && strings.Contains(lowerInput, nameWords[0]) {
		return true
	}
	for _, w := range nameWords {
		if usableToken(w) && strings.Contains(lowerInput, w) {
			return true
		}
	}
	for _, w := range strings.Fields(lowerInput) {
		w = strings.Trim(w, ".,!?\"'")
		if usableToken(w) && strings.Contains(lowerName, w) {
			return true
		}
	}
	return false
}

func usableToken(w string) bool {
	return len(w) >= minMatchTokenLen && !matchStopwords[w]
}
