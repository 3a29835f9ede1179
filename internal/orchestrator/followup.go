package orchestrator

import "strings"

// followUpLexicon holds the continuation phrases that mark a turn as a
// follow-up to a prior venue offer: affirmations, explicit assessment
// requests, and ordinal venue references. Matching is a case-insensitive
// substring check, a best-effort gate rather than a guarantee; venue-name
// continuations are checked separately against the session so this stays a
// pure function of input text.
var followUpLexicon = []string{
	"yes",
	"risk assessment",
	"assess risks",
	"check risks",
	"all venues",
	"venue 1",
	"venue 2",
	"venue 3",
	"first venue",
	"second venue",
	"third venue",
}

// IsFollowUp reports whether the input continues a prior venue offer.
func IsFollowUp(input string) bool {
	lower := strings.ToLower(input)
	for _, phrase := range followUpLexicon {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
