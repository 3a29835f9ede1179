package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedOracle replies per prompt using matchers.
type scriptedOracle struct {
	replies []string
	errs    []error
	prompts []string
}

func (s *scriptedOracle) Complete(ctx context.Context, prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	reply := ""
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	return reply, err
}

type scriptedSearcher struct {
	digest string
	err    error
	query  string
}

func (s *scriptedSearcher) Search(ctx context.Context, query string) (string, error) {
	s.query = query
	return s.digest, s.err
}

func TestFind_RendersVenueTable(t *testing.T) {
	o := &scriptedOracle{replies: []string{
		"Delhi",
		"| Name | Location |\n|---|---|\n| The Leela | Delhi |",
	}}
	s := &scriptedSearcher{digest: "The Leela: luxury hotel in Delhi"}
	f := NewFinder(o, s, zap.NewNop())

	out, err := f.Find(context.Background(), "wedding venues in Delhi next week")
	require.NoError(t, err)
	assert.Contains(t, out, "The Leela")
	assert.Equal(t, "wedding venues in Delhi next week", s.query)
	require.Len(t, o.prompts, 2)
	assert.True(t, strings.Contains(o.prompts[1], "The Leela: luxury hotel in Delhi"))
}

func TestFind_NoLocationAsksForOne(t *testing.T) {
	o := &scriptedOracle{replies: []string{"NONE"}}
	s := &scriptedSearcher{digest: "should not be used"}
	f := NewFinder(o, s, zap.NewNop())

	out, err := f.Find(context.Background(), "I need a venue for a birthday party")
	require.NoError(t, err)
	assert.Contains(t, out, "which city")
	assert.Empty(t, s.query, "search must not run without a location")
	assert.Len(t, o.prompts, 1)
}

func TestFind_EmptySearchReturnsEmpty(t *testing.T) {
	o := &scriptedOracle{replies: []string{"Delhi"}}
	f := NewFinder(o, &scriptedSearcher{digest: "  "}, zap.NewNop())

	out, err := f.Find(context.Background(), "venues in Delhi")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Len(t, o.prompts, 1, "renderer must not run on empty results")
}

func TestFind_RendererNoVenuesMarker(t *testing.T) {
	o := &scriptedOracle{replies: []string{"Delhi", " NO_VENUES "}}
	f := NewFinder(o, &scriptedSearcher{digest: "unrelated results"}, zap.NewNop())

	out, err := f.Find(context.Background(), "venues in Delhi")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFind_SearchErrorPropagates(t *testing.T) {
	o := &scriptedOracle{replies: []string{"Delhi"}}
	f := NewFinder(o, &scriptedSearcher{err: errors.New("api down")}, zap.NewNop())

	_, err := f.Find(context.Background(), "venues in Delhi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "searching venues")
}

func TestFind_LocationOracleErrorPropagates(t *testing.T) {
	o := &scriptedOracle{errs: []error{errors.New("timeout")}}
	f := NewFinder(o, &scriptedSearcher{}, zap.NewNop())

	_, err := f.Find(context.Background(), "venues in Delhi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extracting location")
}
