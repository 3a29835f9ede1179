package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/venued/internal/classifier"
	"github.com/fyrsmithlabs/venued/internal/session"
)

// Lexicons for the same-turn chained path: when one message asks for both
// venues and risks, assessment runs right after a successful discovery.
var (
	riskLexicon  = []string{"risk", "risks", "assessment", "assess", "safety", "hazard"}
	venueLexicon = []string{"venue", "venues", "hall", "hotel", "place", "location", "space"}
)

// Service runs the per-turn state machine.
type Service struct {
	finder     VenueFinder
	assessor   RiskAssessor
	classifier IntentClassifier
	cfg        Config
	logger     *zap.Logger
}

// NewService creates the orchestrator.
func NewService(finder VenueFinder, assessor RiskAssessor, cls IntentClassifier, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		finder:     finder,
		assessor:   assessor,
		classifier: cls,
		cfg:        cfg,
		logger:     logger.Named("orchestrator"),
	}
}

// HandleTurn processes one user turn. It mutates the session (known venues
// and history) and always returns response text; collaborator failures
// surface as apology replies, never as errors.
func (s *Service) HandleTurn(ctx context.Context, st *session.State) string {
	reply := s.route(ctx, st)
	st.AppendExchange(reply)
	return reply
}

func (s *Service) route(ctx context.Context, st *session.State) string {
	input := st.CurrentInput

	followUp := IsFollowUp(input) || session.MentionsAnyVenue(input, st.KnownVenues)
	s.logger.Info("routing turn",
		zap.String("session_id", st.ID),
		zap.Bool("follow_up", followUp),
		zap.Int("known_venues", len(st.KnownVenues)))

	if followUp {
		if len(st.KnownVenues) == 0 {
			return startOverMessage
		}
		return s.handleAssessmentRequest(ctx, st)
	}
	return s.handleDiscovery(ctx, st)
}

// handleAssessmentRequest resolves the venue reference and runs one batched
// risk assessment. Known venues are never mutated on this path.
func (s *Service) handleAssessmentRequest(ctx context.Context, st *session.State) string {
	selected := ResolveSelection(st.CurrentInput, st.KnownVenues)
	if len(selected) == 0 {
		return composeClarification(st.KnownVenues)
	}

	window := extractTimeWindow(st.CurrentInput, st.History)
	s.logger.Info("running risk assessment",
		zap.Int("selected", len(selected)),
		zap.String("time_window", window))

	report, err := s.assess(ctx, selected, window)
	if err != nil {
		s.logger.Error("risk assessment failed", zap.Error(err))
		return apology("risk assessment", err)
	}
	return report
}

// handleDiscovery merges the requirement, runs discovery, classifies the
// output, and composes the reply.
func (s *Service) handleDiscovery(ctx context.Context, st *session.State) string {
	merged := MergeRequirements(st.History, st.CurrentInput)
	if merged != st.CurrentInput {
		s.logger.Info("merged prior requirement", zap.Int("merged_len", len(merged)))
	}

	output, err := s.discover(ctx, merged)
	if err != nil {
		s.logger.Error("venue discovery failed", zap.Error(err))
		return apology("venue finding", err)
	}

	decision := s.classify(ctx, st.CurrentInput, output)
	s.logger.Info("classified discovery output",
		zap.String("action", string(decision.Action)),
		zap.Int("venues", len(decision.Venues)),
		zap.String("reasoning", decision.Reasoning))

	switch decision.Action {
	case classifier.ActionAskForInfo:
		// The discovery output already is the clarifying question. A blank
		// output has no question to pass through; a turn never ends with an
		// empty reply.
		if strings.TrimSpace(output) == "" {
			return composeNoVenues(output)
		}
		return output

	case classifier.ActionNoVenuesFound:
		st.KnownVenues = nil
		return composeNoVenues(output)

	case classifier.ActionExtractVenues:
		if len(decision.Venues) == 0 {
			// Nothing extracted: a non-empty output is a clarification to
			// pass through; an empty one reads as no venues found.
			if strings.TrimSpace(output) != "" {
				return output
			}
			return composeNoVenues(output)
		}
		st.KnownVenues = session.Dedupe(decision.Venues)
		offer := composeOffer(output, st.KnownVenues)

		if s.cfg.AutoChain && wantsVenuesAndRisks(merged) {
			return s.chainAssessment(ctx, st, offer)
		}
		return offer

	default:
		// risk_assessment and end have no transition on the discovery
		// path; treat like any unprocessable decision.
		return composeCannotProcess(output)
	}
}

// chainAssessment appends a full-set risk report beneath the venue summary
// in the same turn. It only ever runs after venues exist.
func (s *Service) chainAssessment(ctx context.Context, st *session.State, offer string) string {
	window := extractTimeWindow(st.CurrentInput, st.History)
	s.logger.Info("auto-chaining risk assessment", zap.Int("venues", len(st.KnownVenues)))

	report, err := s.assess(ctx, st.KnownVenues, window)
	if err != nil {
		s.logger.Error("chained risk assessment failed", zap.Error(err))
		return composeWithReport(offer, apology("risk assessment", err))
	}
	return composeWithReport(offer, report)
}

// wantsVenuesAndRisks reports whether the requirement asks for both stages.
// It runs on the merged requirement, so "and assess risks" from the prior
// turn still chains when the current turn only adds detail.
func wantsVenuesAndRisks(requirement string) bool {
	lower := strings.ToLower(requirement)
	return containsAny(lower, riskLexicon) && containsAny(lower, venueLexicon)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// discover calls the venue finder with a deadline and panic containment.
func (s *Service) discover(ctx context.Context, requirement string) (out string, err error) {
	ctx, cancel := s.withTimeout(ctx, s.cfg.DiscoveryTimeout)
	defer cancel()
	defer recoverToError(&err, "venue finder")
	return s.finder.Find(ctx, requirement)
}

// assess calls the risk assessor with a deadline and panic containment.
func (s *Service) assess(ctx context.Context, venues []session.Venue, window string) (out string, err error) {
	ctx, cancel := s.withTimeout(ctx, s.cfg.AssessmentTimeout)
	defer cancel()
	defer recoverToError(&err, "risk assessor")
	return s.assessor.Assess(ctx, venues, window)
}

func (s *Service) classify(ctx context.Context, userQuery, output string) classifier.Decision {
	ctx, cancel := s.withTimeout(ctx, s.cfg.ClassifyTimeout)
	defer cancel()
	return s.classifier.Classify(ctx, userQuery, output)
}

func (s *Service) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// recoverToError converts a collaborator panic into an error so a bad
// provider can never take down the turn.
func recoverToError(err *error, stage string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s panicked: %v", stage, r)
	}
}
