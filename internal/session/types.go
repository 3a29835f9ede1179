// Package session defines the per-conversation state envelope passed between
// the caller and the orchestrator.
//
// venued keeps no server-side conversation state: the caller receives the
// updated history after every turn and must resubmit it verbatim on the next
// one. Discovered venues ride along as a typed snapshot attached to a history
// turn, so no sentinel-string parsing is ever needed to recover them.
package session

import (
	"strings"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Venue is one candidate venue extracted during discovery.
//
// Venues are compared by case-insensitive name equality; the only stable
// identity across turns is the positional index within State.KnownVenues.
type Venue struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Type     string `json:"type,omitempty"`
	Features string `json:"features,omitempty"`
}

// placeholderNames are values oracles emit when they have no real venue.
var placeholderNames = map[string]bool{
	"":        true,
	"unknown": true,
	"n/a":     true,
	"none":    true,
	"venue":   true,
	"tbd":     true,
}

// Concrete reports whether the venue carries a real, non-placeholder name.
func (v Venue) Concrete() bool {
	return !placeholderNames[strings.ToLower(strings.TrimSpace(v.Name))]
}

// SameName reports case-insensitive name equality, the venue identity rule.
func (v Venue) SameName(other Venue) bool {
	return strings.EqualFold(strings.TrimSpace(v.Name), strings.TrimSpace(other.Name))
}

// Turn is one exchange unit in the conversation history.
//
// Venues is the snapshot of known venues as of this turn. Every assistant
// turn produced by the orchestrator is a snapshot point: the most recent
// assistant turn is authoritative, and an assistant turn without venues
// means none were known at that point.
type Turn struct {
	Role    Role    `json:"role"`
	Content string  `json:"content"`
	Venues  []Venue `json:"venues,omitempty"`
}

// State is the per-turn conversation envelope.
//
// A State is created from caller-supplied history at the start of a turn,
// mutated only by the orchestrator within that turn, and handed back to the
// caller for persistence. It must not be shared across concurrent turns.
type State struct {
	// ID identifies the session. Informational only; venued derives no
	// state from it.
	ID string `json:"id"`

	// CurrentInput is this turn's raw user message.
	CurrentInput string `json:"current_input"`

	// History holds prior turns in insertion order.
	History []Turn `json:"history"`

	// KnownVenues are the venues extracted by the most recent successful
	// discovery. Empty until discovery succeeds; replaced wholesale by the
	// next discovery.
	KnownVenues []Venue `json:"known_venues"`
}

// NewState builds a State for one turn, recovering the known-venue snapshot
// from the most recent assistant turn. The scan stops there even when that
// turn carries no venues: an empty snapshot means the venues were cleared,
// and older snapshots must not resurface.
func NewState(id, input string, history []Turn) *State {
	st := &State{
		ID:           id,
		CurrentInput: input,
		History:      history,
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != RoleAssistant {
			continue
		}
		if len(history[i].Venues) > 0 {
			st.KnownVenues = append([]Venue(nil), history[i].Venues...)
		}
		break
	}
	return st
}

// AppendExchange records the user input and the assistant reply on the
// history, attaching the current venue snapshot to the assistant turn so the
// next call can recover it.
func (s *State) AppendExchange(reply string) {
	s.History = append(s.History,
		Turn{Role: RoleUser, Content: s.CurrentInput},
		Turn{Role: RoleAssistant, Content: reply, Venues: append([]Venue(nil), s.KnownVenues...)},
	)
}

// UserTurns returns the contents of user turns in history order.
func (s *State) UserTurns() []string {
	var out []string
	for _, t := range s.History {
		if t.Role == RoleUser {
			out = append(out, t.Content)
		}
	}
	return out
}

// MentionsAnyVenue reports whether the input names one of the venues.
// Matching is a case-insensitive full-name substring check; finer-grained
// matching belongs to the selection resolver.
func MentionsAnyVenue(input string, venues []Venue) bool {
	lower := strings.ToLower(input)
	for _, v := range venues {
		name := strings.ToLower(strings.TrimSpace(v.Name))
		if name != "" && strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// Dedupe removes venues whose names repeat, keeping first occurrences.
func Dedupe(venues []Venue) []Venue {
	seen := make(map[string]bool, len(venues))
	out := make([]Venue, 0, len(venues))
	for _, v := range venues {
		key := strings.ToLower(strings.TrimSpace(v.Name))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
