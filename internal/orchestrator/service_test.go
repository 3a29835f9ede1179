package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/venued/internal/classifier"
	"github.com/fyrsmithlabs/venued/internal/session"
)

type mockFinder struct {
	output      string
	err         error
	panicWith   any
	calls       int
	requirement string
}

func (m *mockFinder) Find(ctx context.Context, requirement string) (string, error) {
	m.calls++
	m.requirement = requirement
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.output, m.err
}

type mockAssessor struct {
	report string
	err    error
	calls  int
	venues []session.Venue
	window string
}

func (m *mockAssessor) Assess(ctx context.Context, venues []session.Venue, window string) (string, error) {
	m.calls++
	m.venues = venues
	m.window = window
	return m.report, m.err
}

type mockClassifier struct {
	decision classifier.Decision
	query    string
	output   string
}

func (m *mockClassifier) Classify(ctx context.Context, userQuery, venueOutput string) classifier.Decision {
	m.query = userQuery
	m.output = venueOutput
	return m.decision
}

func newTestService(f *mockFinder, a *mockAssessor, c *mockClassifier, cfg Config) *Service {
	return NewService(f, a, c, cfg, zap.NewNop())
}

func extractDecision(venues ...session.Venue) classifier.Decision {
	return classifier.Decision{Action: classifier.ActionExtractVenues, Venues: venues}
}

// Scenario 1: fresh discovery turn stores venues and offers assessment.
func TestHandleTurn_DiscoveryOffersAssessment(t *testing.T) {
	finder := &mockFinder{output: "| The Leela Palace | Delhi |\n| Taj Palace | Delhi |"}
	assessor := &mockAssessor{}
	cls := &mockClassifier{decision: extractDecision(
		session.Venue{Name: "The Leela Palace", Location: "Delhi"},
		session.Venue{Name: "Taj Palace", Location: "Delhi"},
	)}
	svc := newTestService(finder, assessor, cls, Config{})

	st := session.NewState("s1", "I need a venue for a corporate event in Delhi next week", nil)
	reply := svc.HandleTurn(context.Background(), st)

	require.Len(t, st.KnownVenues, 2)
	assert.Contains(t, reply, "The Leela Palace")
	assert.Contains(t, reply, "Taj Palace")
	assert.Contains(t, reply, "Risk Assessment Option")
	assert.Equal(t, 0, assessor.calls)

	// The updated history carries the venue snapshot forward.
	next := session.NewState("s1", "yes", st.History)
	assert.Len(t, next.KnownVenues, 2)
}

// Scenario 2: "yes, assess all" follow-up assesses both venues in one call.
func TestHandleTurn_FollowUpAssessesAll(t *testing.T) {
	finder := &mockFinder{}
	assessor := &mockAssessor{report: "## Risk Assessment: The Leela Palace\nScore: 2/10"}
	svc := newTestService(finder, assessor, &mockClassifier{}, Config{})

	history := []session.Turn{
		{Role: session.RoleUser, Content: "venue for a corporate event in Delhi next week"},
		{Role: session.RoleAssistant, Content: "offer", Venues: []session.Venue{
			{Name: "The Leela Palace"}, {Name: "Taj Palace"},
		}},
	}
	st := session.NewState("s1", "Yes, assess risks for all venues", history)

	reply := svc.HandleTurn(context.Background(), st)

	assert.Equal(t, assessor.report, reply, "risk report passes through unchanged")
	assert.Equal(t, 1, assessor.calls)
	require.Len(t, assessor.venues, 2)
	assert.Equal(t, "next week", assessor.window)
	assert.Equal(t, 0, finder.calls)
	assert.Len(t, st.KnownVenues, 2, "assessment must not mutate known venues")
}

// Scenario 3: follow-up with no stored venues asks the user to start over.
func TestHandleTurn_FollowUpWithEmptySession(t *testing.T) {
	finder := &mockFinder{}
	assessor := &mockAssessor{}
	svc := newTestService(finder, assessor, &mockClassifier{}, Config{})

	st := session.NewState("s1", "Yes, assess risks", nil)
	reply := svc.HandleTurn(context.Background(), st)

	assert.Contains(t, reply, "don't have any venues stored")
	assert.Equal(t, 0, finder.calls)
	assert.Equal(t, 0, assessor.calls)
}

// Scenario 4: a clarifying question from discovery passes through verbatim.
func TestHandleTurn_ClarifyingQuestionPassthrough(t *testing.T) {
	question := "Could you tell me which city you're planning the event in?"
	finder := &mockFinder{output: question}
	cls := &mockClassifier{decision: classifier.Decision{Action: classifier.ActionAskForInfo}}
	svc := newTestService(finder, &mockAssessor{}, cls, Config{})

	st := session.NewState("s1", "I need a banquet hall", nil)
	reply := svc.HandleTurn(context.Background(), st)

	assert.Equal(t, question, reply)
	assert.Empty(t, st.KnownVenues)
}

func TestHandleTurn_AskForInfoWithEmptyOutput(t *testing.T) {
	// ask_for_info with a blank discovery output has no question to pass
	// through; the turn still gets a usable reply.
	finder := &mockFinder{output: "   "}
	cls := &mockClassifier{decision: classifier.Decision{Action: classifier.ActionAskForInfo}}
	svc := newTestService(finder, &mockAssessor{}, cls, Config{})

	st := session.NewState("s1", "I need a banquet hall", nil)
	reply := svc.HandleTurn(context.Background(), st)

	assert.NotEmpty(t, strings.TrimSpace(reply))
	assert.Contains(t, reply, "Unable to identify specific venues")
}

func TestHandleTurn_FallbackDecisionWithClarifyingOutput(t *testing.T) {
	// Safe fallback decision (extract_venues, no venues) with non-empty
	// output still returns the output verbatim, never a risk offer.
	question := "Which city is the event in?"
	finder := &mockFinder{output: question}
	cls := &mockClassifier{decision: extractDecision()}
	svc := newTestService(finder, &mockAssessor{}, cls, Config{})

	st := session.NewState("s1", "I need a banquet hall", nil)
	reply := svc.HandleTurn(context.Background(), st)

	assert.Equal(t, question, reply)
	assert.NotContains(t, reply, "Risk Assessment Option")
}

func TestHandleTurn_NoVenuesFoundClearsState(t *testing.T) {
	finder := &mockFinder{output: "nothing matched"}
	cls := &mockClassifier{decision: classifier.Decision{Action: classifier.ActionNoVenuesFound}}
	svc := newTestService(finder, &mockAssessor{}, cls, Config{})

	history := []session.Turn{
		{Role: session.RoleAssistant, Content: "offer", Venues: []session.Venue{{Name: "Old Venue"}}},
	}
	st := session.NewState("s1", "find conference venues in Atlantis", history)

	reply := svc.HandleTurn(context.Background(), st)

	assert.Contains(t, reply, "Unable to identify specific venues")
	assert.Empty(t, st.KnownVenues)
}

func TestHandleTurn_ClearedVenuesDoNotResurface(t *testing.T) {
	finder := &mockFinder{output: "nothing matched"}
	assessor := &mockAssessor{}
	cls := &mockClassifier{decision: classifier.Decision{Action: classifier.ActionNoVenuesFound}}
	svc := newTestService(finder, assessor, cls, Config{})

	history := []session.Turn{
		{Role: session.RoleAssistant, Content: "offer", Venues: []session.Venue{
			{Name: "The Leela Palace"}, {Name: "Taj Palace"},
		}},
	}
	st := session.NewState("s1", "find conference venues in Atlantis", history)
	svc.HandleTurn(context.Background(), st)
	require.Empty(t, st.KnownVenues)

	// The caller resubmits the updated history; the follow-up must not
	// recover and assess the venues that were just cleared.
	next := session.NewState("s1", "yes, assess risks", st.History)
	reply := svc.HandleTurn(context.Background(), next)

	assert.Contains(t, reply, "don't have any venues stored")
	assert.Equal(t, 0, assessor.calls)
}

func TestHandleTurn_AmbiguousSelectionAsksClarification(t *testing.T) {
	assessor := &mockAssessor{}
	svc := newTestService(&mockFinder{}, assessor, &mockClassifier{}, Config{})

	history := []session.Turn{
		{Role: session.RoleAssistant, Content: "offer", Venues: []session.Venue{
			{Name: "The Leela Palace"}, {Name: "Taj Palace"},
		}},
	}
	// Follow-up cue but no resolvable venue reference.
	st := session.NewState("s1", "check risks for the other one", history)

	reply := svc.HandleTurn(context.Background(), st)

	assert.Contains(t, reply, "not sure which venues")
	assert.Contains(t, reply, "1. The Leela Palace")
	assert.Contains(t, reply, "2. Taj Palace")
	assert.Equal(t, 0, assessor.calls)
}

func TestHandleTurn_VenueNameContinuation(t *testing.T) {
	// A bare venue name is a follow-up even without lexicon phrases.
	assessor := &mockAssessor{report: "report"}
	svc := newTestService(&mockFinder{}, assessor, &mockClassifier{}, Config{})

	history := []session.Turn{
		{Role: session.RoleAssistant, Content: "offer", Venues: []session.Venue{
			{Name: "The Leela Palace"}, {Name: "Taj Palace"},
		}},
	}
	st := session.NewState("s1", "the leela palace", history)

	reply := svc.HandleTurn(context.Background(), st)

	assert.Equal(t, "report", reply)
	assert.Equal(t, 1, assessor.calls)
}

func TestHandleTurn_DiscoveryFailureApologizes(t *testing.T) {
	finder := &mockFinder{err: errors.New("search quota exhausted")}
	svc := newTestService(finder, &mockAssessor{}, &mockClassifier{}, Config{})

	history := []session.Turn{
		{Role: session.RoleAssistant, Content: "offer", Venues: []session.Venue{{Name: "Old Venue"}}},
	}
	st := session.NewState("s1", "find wedding venues in Jaipur", history)

	reply := svc.HandleTurn(context.Background(), st)

	assert.Contains(t, reply, "I apologize")
	assert.Contains(t, reply, "venue finding")
	assert.Len(t, st.KnownVenues, 1, "failure must leave known venues for retry")
}

func TestHandleTurn_AssessmentFailureApologizes(t *testing.T) {
	assessor := &mockAssessor{err: errors.New("model overloaded")}
	svc := newTestService(&mockFinder{}, assessor, &mockClassifier{}, Config{})

	history := []session.Turn{
		{Role: session.RoleAssistant, Content: "offer", Venues: []session.Venue{{Name: "The Leela Palace"}}},
	}
	st := session.NewState("s1", "yes", history)

	reply := svc.HandleTurn(context.Background(), st)

	assert.Contains(t, reply, "I apologize")
	assert.Contains(t, reply, "risk assessment")
	assert.Len(t, st.KnownVenues, 1)
}

func TestHandleTurn_FinderPanicContained(t *testing.T) {
	finder := &mockFinder{panicWith: "nil map write"}
	svc := newTestService(finder, &mockAssessor{}, &mockClassifier{}, Config{})

	st := session.NewState("s1", "find venues in Delhi", nil)

	var reply string
	require.NotPanics(t, func() {
		reply = svc.HandleTurn(context.Background(), st)
	})
	assert.Contains(t, reply, "I apologize")
}

func TestHandleTurn_UnhandledActionFallsBack(t *testing.T) {
	finder := &mockFinder{output: "some output"}
	cls := &mockClassifier{decision: classifier.Decision{Action: classifier.ActionEnd}}
	svc := newTestService(finder, &mockAssessor{}, cls, Config{})

	st := session.NewState("s1", "find venues in Delhi", nil)
	reply := svc.HandleTurn(context.Background(), st)

	assert.Contains(t, reply, "Unable to process venue information")
}

func TestHandleTurn_AutoChainAppendsReport(t *testing.T) {
	finder := &mockFinder{output: "| The Leela Palace | Delhi |"}
	assessor := &mockAssessor{report: "## Risk Assessment: The Leela Palace"}
	cls := &mockClassifier{decision: extractDecision(session.Venue{Name: "The Leela Palace", Location: "Delhi"})}
	svc := newTestService(finder, assessor, cls, Config{AutoChain: true})

	st := session.NewState("s1", "find venues in Delhi and assess their risks", nil)
	reply := svc.HandleTurn(context.Background(), st)

	assert.Contains(t, reply, "Risk Assessment Option")
	assert.Contains(t, reply, "## Risk Assessment: The Leela Palace")
	assert.Equal(t, 1, assessor.calls)
	require.Len(t, assessor.venues, 1)
}

func TestHandleTurn_AutoChainOnMergedRequirement(t *testing.T) {
	// The chain keywords may live in the prior turn that merging picked up;
	// the current turn only adds the location.
	finder := &mockFinder{output: "| The Leela Palace | Jaipur |"}
	assessor := &mockAssessor{report: "## Risk Assessment: The Leela Palace"}
	cls := &mockClassifier{decision: extractDecision(session.Venue{Name: "The Leela Palace", Location: "Jaipur"})}
	svc := newTestService(finder, assessor, cls, Config{AutoChain: true})

	history := []session.Turn{
		{Role: session.RoleUser, Content: "wedding venue with risk assessment for 200 guests"},
	}
	st := session.NewState("s1", "in Jaipur", history)
	reply := svc.HandleTurn(context.Background(), st)

	assert.Contains(t, finder.requirement, "200 guests")
	assert.Contains(t, reply, "## Risk Assessment: The Leela Palace")
	assert.Equal(t, 1, assessor.calls)
}

func TestHandleTurn_AutoChainNeverRunsWithoutVenues(t *testing.T) {
	finder := &mockFinder{output: ""}
	assessor := &mockAssessor{}
	cls := &mockClassifier{decision: extractDecision()}
	svc := newTestService(finder, assessor, cls, Config{AutoChain: true})

	st := session.NewState("s1", "find venues in Delhi and assess their risks", nil)
	svc.HandleTurn(context.Background(), st)

	assert.Equal(t, 0, assessor.calls)
}

func TestHandleTurn_AutoChainDisabledByDefault(t *testing.T) {
	finder := &mockFinder{output: "| The Leela Palace | Delhi |"}
	assessor := &mockAssessor{}
	cls := &mockClassifier{decision: extractDecision(session.Venue{Name: "The Leela Palace"})}
	svc := newTestService(finder, assessor, cls, Config{})

	st := session.NewState("s1", "find venues in Delhi and assess their risks", nil)
	svc.HandleTurn(context.Background(), st)

	assert.Equal(t, 0, assessor.calls)
}

func TestHandleTurn_AlwaysAppendsExchange(t *testing.T) {
	svc := newTestService(&mockFinder{err: errors.New("down")}, &mockAssessor{}, &mockClassifier{}, Config{})

	st := session.NewState("s1", "find venues in Delhi", nil)
	reply := svc.HandleTurn(context.Background(), st)

	require.Len(t, st.History, 2)
	assert.Equal(t, "find venues in Delhi", st.History[0].Content)
	assert.Equal(t, reply, st.History[1].Content)
}
