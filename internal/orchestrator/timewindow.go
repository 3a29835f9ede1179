package orchestrator

import (
	"strings"

	"github.com/fyrsmithlabs/venued/internal/session"
)

// timePatterns are the recognized relative time windows, checked in order.
var timePatterns = []string{
	"next week",
	"this week",
	"next month",
	"tomorrow",
	"today",
}

// How far back in history the time-window scan reaches.
const timeWindowLookback = 5

// extractTimeWindow finds the event time window for a risk assessment: the
// current input wins, otherwise the most recent of the last few history
// turns that names one. Empty means unspecified/current.
func extractTimeWindow(input string, history []session.Turn) string {
	if w := matchTimePattern(input); w != "" {
		return w
	}

	start := len(history) - timeWindowLookback
	if start < 0 {
		start = 0
	}
	for i := len(history) - 1; i >= start; i-- {
		if w := matchTimePattern(history[i].Content); w != "" {
			return w
		}
	}
	return ""
}

func matchTimePattern(text string) string {
	lower := strings.ToLower(text)
	for _, p := range timePatterns {
		if strings.Contains(lower, p) {
			return p
		}
	}
	return ""
}
