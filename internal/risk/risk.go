// Package risk produces venue-specific risk assessment reports.
//
// An assessment runs five targeted category searches per venue (weather,
// security, health, logistics, event conflicts) and then makes ONE oracle
// call covering every selected venue, keeping model usage flat in the number
// of venues.
package risk

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/venued/internal/oracle"
	"github.com/fyrsmithlabs/venued/internal/session"
	"github.com/fyrsmithlabs/venued/internal/websearch"
)

// riskCategory pairs a report label with its search query template. The
// template receives venue name, location, and time window.
type riskCategory struct {
	label string
	query string
}

var riskCategories = []riskCategory{
	{"Weather", "current weather alerts warnings %s %s %s monsoon rain flood heat wave"},
	{"Security", "recent incidents protests security issues crime %s %s last week month"},
	{"Health", "health alerts disease outbreak COVID dengue health issues %s %s current"},
	{"Logistics", "traffic construction road closure infrastructure issues parking %s %s current"},
	{"Events", "upcoming events VIP movement rally concert festival %s %s %s"},
}

// Assessor assesses venue risks via targeted searches and a batched oracle
// call.
type Assessor struct {
	oracle   oracle.Oracle
	searcher websearch.Searcher
	logger   *zap.Logger
}

// NewAssessor creates an Assessor.
func NewAssessor(o oracle.Oracle, s websearch.Searcher, logger *zap.Logger) *Assessor {
	return &Assessor{oracle: o, searcher: s, logger: logger.Named("risk")}
}

// Assess builds a combined risk report for the venues. timeWindow may be
// empty, meaning the assessment covers the unspecified/current period.
func (a *Assessor) Assess(ctx context.Context, venues []session.Venue, timeWindow string) (string, error) {
	if len(venues) == 0 {
		return "", fmt.Errorf("no venues to assess")
	}

	var prompt strings.Builder
	prompt.WriteString("You are an Event Risk Assessment AI. For each venue below, analyze the search results and provide a risk assessment and risk score (1-10) per category:\n\n")

	for i, v := range venues {
		a.logger.Info("gathering risk evidence",
			zap.String("venue", v.Name),
			zap.String("time_window", timeWindow))

		fmt.Fprintf(&prompt, "Venue %d: %s (%s)\n", i+1, v.Name, v.Location)
		for _, cat := range riskCategories {
			query := categoryQuery(cat, v, timeWindow)
			results, err := a.searcher.Search(ctx, query)
			if err != nil {
				return "", fmt.Errorf("searching %s risks for %s: %w", strings.ToLower(cat.label), v.Name, err)
			}
			if strings.TrimSpace(results) == "" {
				results = "No search results found."
			}
			fmt.Fprintf(&prompt, "%s: %s\n", cat.label, results)
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString(`For each venue, provide:
- A risk assessment by category, each with a risk score in the exact form "Score: X/10"
- An overall summary and recommendations
- If no specific risks are found for a category, state that explicitly and assign score 1

Format the response in clear Markdown with a "## Risk Assessment: <venue name>" heading per venue.`)

	report, err := a.oracle.Complete(ctx, prompt.String())
	if err != nil {
		return "", fmt.Errorf("generating risk report: %w", err)
	}

	score := CalculateScore(report)
	a.logger.Info("risk report generated",
		zap.Float64("average_score", score.Average),
		zap.String("level", score.Level))
	return fmt.Sprintf("%s\n\n**Overall Risk Level: %s** (average score %.1f/10)", report, score.Level, score.Average), nil
}

// categoryQuery renders the search query for one category and venue. Only
// time-sensitive categories take the window.
func categoryQuery(cat riskCategory, v session.Venue, timeWindow string) string {
	if strings.Count(cat.query, "%s") == 3 {
		return strings.Join(strings.Fields(fmt.Sprintf(cat.query, v.Name, v.Location, timeWindow)), " ")
	}
	return strings.Join(strings.Fields(fmt.Sprintf(cat.query, v.Name, v.Location)), " ")
}
