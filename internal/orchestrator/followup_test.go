package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFollowUp(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Yes, assess risks for all venues", true},
		{"yes", true},
		{"Risk Assessment please", true},
		{"check risks", true},
		{"venue 1", true},
		{"the FIRST venue", true},
		{"I need a venue for a corporate event in Delhi", false},
		{"find me a banquet hall", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsFollowUp(tt.input), "input %q", tt.input)
	}
}

func TestIsFollowUp_Deterministic(t *testing.T) {
	// Pure function of the lexicon and input: repeated calls agree.
	for i := 0; i < 3; i++ {
		assert.True(t, IsFollowUp("assess risks"))
		assert.False(t, IsFollowUp("wedding venues in Mumbai"))
	}
}
