package orchestrator

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/venued/internal/classifier"
	"github.com/fyrsmithlabs/venued/internal/session"
)

// VenueFinder turns a natural-language requirement into venue-recommendation
// text. Empty output means nothing was found; non-empty output without
// concrete venue names is read as a clarifying question.
type VenueFinder interface {
	Find(ctx context.Context, requirement string) (string, error)
}

// RiskAssessor turns a venue list plus an optional time window into a
// narrative risk report. An empty window means "unspecified/current".
type RiskAssessor interface {
	Assess(ctx context.Context, venues []session.Venue, timeWindow string) (string, error)
}

// IntentClassifier decides the next step from the venue finder's output. It
// never fails; bad oracle replies degrade to a safe decision.
type IntentClassifier interface {
	Classify(ctx context.Context, userQuery, venueOutput string) classifier.Decision
}

// Config holds per-turn orchestration settings.
type Config struct {
	// AutoChain runs risk assessment in the same turn when one message
	// asks for both venues and risks.
	AutoChain bool
	// DiscoveryTimeout bounds one venue-discovery run. Zero means no
	// deadline beyond the caller's.
	DiscoveryTimeout time.Duration
	// AssessmentTimeout bounds one batched risk-assessment run.
	AssessmentTimeout time.Duration
	// ClassifyTimeout bounds one classification call.
	ClassifyTimeout time.Duration
}
