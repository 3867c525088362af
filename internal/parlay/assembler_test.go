package parlay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-parlay/internal/candidates"
	"github.com/yourusername/clever-parlay/internal/models"
)

func newTestAssembler(provider CandidateProvider) *Assembler {
	return NewAssembler(provider, DefaultConfig(), fixedClock{now: testNow}, testLogger())
}

// TestBuildExactLegCount tests that a bundle carries exactly the requested legs
func TestBuildExactLegCount(t *testing.T) {
	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, forSport(models.SportNFL)).
		Return(resolution(boards(models.SportNFL, 5, 75)), nil)

	a := newTestAssembler(provider)
	bundle, err := a.Build(context.Background(), Request{
		LegCount:    6,
		Sports:      []models.Sport{models.SportNFL},
		RiskProfile: models.RiskConservative,
	})
	require.NoError(t, err)

	require.Len(t, bundle.Legs, 6)
	assert.Equal(t, models.RiskConservative, bundle.RiskProfile)
	assert.Equal(t, models.StatusPending, bundle.Status)
	assert.Equal(t, testNow, bundle.CreatedAt)
	assert.Equal(t, []models.Sport{models.SportNFL}, bundle.Sports)

	prob := 1.0
	matchups := make(map[string]int)
	for i, leg := range bundle.Legs {
		assert.Equal(t, i+1, leg.Position)
		assert.Equal(t, bundle.ID, leg.BundleID)
		assert.Equal(t, models.StatusPending, leg.Status)
		assert.GreaterOrEqual(t, leg.Confidence, 70.0)
		prob *= leg.ModelProb
		matchups[leg.MatchupID.String()]++
	}
	for _, n := range matchups {
		assert.LessOrEqual(t, n, 2)
	}
	assert.InDelta(t, prob, bundle.CombinedProbability, 1e-12)
	assert.InDelta(t, bundle.CombinedDecimalOdds*prob-1, bundle.CombinedEV, 1e-9)
	provider.AssertExpectations(t)
}

func TestBuildRejectsBadRequests(t *testing.T) {
	provider := new(MockCandidateProvider)
	a := newTestAssembler(provider)
	ctx := context.Background()
	nfl := []models.Sport{models.SportNFL}

	_, err := a.Build(ctx, Request{LegCount: 0, Sports: nfl, RiskProfile: models.RiskDegen})
	assert.ErrorIs(t, err, ErrInvalidLegCount)

	_, err = a.Build(ctx, Request{LegCount: 21, Sports: nfl, RiskProfile: models.RiskDegen})
	assert.ErrorIs(t, err, ErrInvalidLegCount)

	_, err = a.Build(ctx, Request{LegCount: 3, Sports: nfl, RiskProfile: "yolo"})
	assert.ErrorIs(t, err, ErrUnknownRiskProfile)

	_, err = a.Build(ctx, Request{LegCount: 3, RiskProfile: models.RiskDegen})
	assert.ErrorIs(t, err, ErrNoSports)

	provider.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

// TestBuildRelaxesPolicy tests that a conservative request below the floor
// relaxes until it fills
func TestBuildRelaxesPolicy(t *testing.T) {
	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, forSport(models.SportNFL)).
		Return(resolution(boards(models.SportNFL, 3, 62)), nil)

	a := newTestAssembler(provider)
	bundle, err := a.Build(context.Background(), Request{
		LegCount:    4,
		Sports:      []models.Sport{models.SportNFL},
		RiskProfile: models.RiskConservative,
	})
	require.NoError(t, err)
	assert.Len(t, bundle.Legs, 4)
	assert.Equal(t, models.RiskConservative, bundle.RiskProfile)
}

func TestBuildInsufficientCandidates(t *testing.T) {
	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, forSport(models.SportNFL)).
		Return(resolution(boards(models.SportNFL, 2, 75)), nil)

	a := newTestAssembler(provider)
	bundle, err := a.Build(context.Background(), Request{
		LegCount:    5,
		Sports:      []models.Sport{models.SportNFL},
		RiskProfile: models.RiskConservative,
	})
	assert.Nil(t, bundle)
	require.ErrorIs(t, err, ErrInsufficientCandidates)
	assert.False(t, IsRetryable(err))

	var short *InsufficientCandidatesError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 5, short.Requested)
	assert.Equal(t, 4, short.Found)
	assert.Equal(t, 8, short.PoolSize)
	assert.Equal(t, models.RiskConservative, short.Profile)
	assert.Equal(t, ReasonInsufficientAfterFiltering, short.Reason)
}

func TestBuildNoCandidates(t *testing.T) {
	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, forSport(models.SportNHL)).
		Return(resolution(nil), nil)

	a := newTestAssembler(provider)
	_, err := a.Build(context.Background(), Request{
		LegCount:    3,
		Sports:      []models.Sport{models.SportNHL},
		RiskProfile: models.RiskDegen,
	})

	var short *InsufficientCandidatesError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, ReasonNoCandidates, short.Reason)
	assert.Zero(t, short.Found)
	assert.Zero(t, short.PoolSize)
}

// TestBuildTimeout tests that a stalled candidate fetch surfaces as a timeout
func TestBuildTimeout(t *testing.T) {
	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	a := NewAssembler(provider, cfg, fixedClock{now: testNow}, testLogger())

	_, err := a.Build(context.Background(), Request{
		LegCount:    3,
		Sports:      []models.Sport{models.SportMLB},
		RiskProfile: models.RiskBalanced,
	})
	assert.ErrorIs(t, err, ErrAssemblyTimeout)
	assert.True(t, IsRetryable(err))
}

func TestBuildPropagatesProviderErrors(t *testing.T) {
	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	a := newTestAssembler(provider)
	_, err := a.Build(context.Background(), Request{
		LegCount:    3,
		Sports:      []models.Sport{models.SportNBA},
		RiskProfile: models.RiskBalanced,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, errors.Is(err, ErrInsufficientCandidates))
}

func countSport(legs []models.BundleLeg, s models.Sport) int {
	n := 0
	for _, l := range legs {
		if l.Sport == s {
			n++
		}
	}
	return n
}

// TestBuildBalancesAcrossSports tests the even split between two sports
func TestBuildBalancesAcrossSports(t *testing.T) {
	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, forSport(models.SportNFL)).
		Return(resolution(boards(models.SportNFL, 3, 75)), nil)
	provider.On("Resolve", mock.Anything, forSport(models.SportNBA)).
		Return(resolution(boards(models.SportNBA, 3, 75)), nil)

	a := newTestAssembler(provider)
	bundle, err := a.Build(context.Background(), Request{
		LegCount:            4,
		Sports:              []models.Sport{models.SportNFL, models.SportNBA},
		RiskProfile:         models.RiskConservative,
		BalanceAcrossSports: true,
	})
	require.NoError(t, err)
	require.Len(t, bundle.Legs, 4)
	assert.Equal(t, 2, countSport(bundle.Legs, models.SportNFL))
	assert.Equal(t, 2, countSport(bundle.Legs, models.SportNBA))
	assert.ElementsMatch(t, []models.Sport{models.SportNFL, models.SportNBA}, bundle.Sports)
}

// TestBuildBalancerWidensStarvedSport tests that a thin sport walks the
// fallback ladder before the other sport backfills
func TestBuildBalancerWidensStarvedSport(t *testing.T) {
	natural := boards(models.SportNFL, 1, 75)
	wider := boards(models.SportNFL, 2, 75)

	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, mock.MatchedBy(func(q candidates.Query) bool {
		return q.Sport == models.SportNFL && !q.AnyPeriod
	})).Return(resolution(natural), nil)
	provider.On("Resolve", mock.Anything, mock.MatchedBy(func(q candidates.Query) bool {
		return q.Sport == models.SportNFL && q.AnyPeriod
	})).Return(resolution(wider), nil)
	provider.On("Resolve", mock.Anything, forSport(models.SportNBA)).
		Return(resolution(boards(models.SportNBA, 4, 75)), nil)

	a := newTestAssembler(provider)
	bundle, err := a.Build(context.Background(), Request{
		LegCount:            6,
		Sports:              []models.Sport{models.SportNFL, models.SportNBA},
		RiskProfile:         models.RiskConservative,
		BalanceAcrossSports: true,
	})
	require.NoError(t, err)
	require.Len(t, bundle.Legs, 6)
	assert.Equal(t, 3, countSport(bundle.Legs, models.SportNFL))
	assert.Equal(t, 3, countSport(bundle.Legs, models.SportNBA))

	provider.AssertCalled(t, "Resolve", mock.Anything, mock.MatchedBy(func(q candidates.Query) bool {
		return q.Sport == models.SportNFL && q.AnyPeriod
	}))
}

// TestBuildBalancerBackfills tests that a sport with no pool leaves its share
// to the others
func TestBuildBalancerBackfills(t *testing.T) {
	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, forSport(models.SportMLB)).Return(resolution(nil), nil)
	provider.On("Resolve", mock.Anything, forSport(models.SportNHL)).
		Return(resolution(boards(models.SportNHL, 3, 75)), nil)

	a := newTestAssembler(provider)
	bundle, err := a.Build(context.Background(), Request{
		LegCount:            4,
		Sports:              []models.Sport{models.SportMLB, models.SportNHL},
		RiskProfile:         models.RiskBalanced,
		BalanceAcrossSports: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, countSport(bundle.Legs, models.SportNHL))
	assert.Equal(t, []models.Sport{models.SportNHL}, bundle.Sports)
}

func TestTargets(t *testing.T) {
	sports := []models.Sport{models.SportNFL, models.SportNBA, models.SportNHL}
	depth := map[models.Sport]int{models.SportNFL: 4, models.SportNBA: 10, models.SportNHL: 7}

	targets := Targets(sports, depth, 8)
	assert.Equal(t, 3, targets[models.SportNBA])
	assert.Equal(t, 3, targets[models.SportNHL])
	assert.Equal(t, 2, targets[models.SportNFL])

	assert.Empty(t, Targets(nil, depth, 8))
}

// TestBuildTiers tests that every tier is built from a single fetch and that
// an unfillable tier reports its own error
func TestBuildTiers(t *testing.T) {
	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, forSport(models.SportNFL)).
		Return(resolution(boards(models.SportNFL, 6, 75)), nil)

	a := newTestAssembler(provider)
	set, err := a.BuildTiers(context.Background(), []models.Sport{models.SportNFL}, false)
	require.NoError(t, err)
	require.Len(t, set.Tiers, 3)
	provider.AssertNumberOfCalls(t, "Resolve", 1)

	safe, ok := set.Get(TierSafe)
	require.True(t, ok)
	require.NoError(t, safe.Err)
	assert.Len(t, safe.Bundle.Legs, 4)
	assert.Equal(t, models.RiskSafe, safe.Bundle.RiskProfile)

	balanced, ok := set.Get(TierBalanced)
	require.True(t, ok)
	require.NoError(t, balanced.Err)
	assert.Len(t, balanced.Bundle.Legs, 8)

	degen, ok := set.Get(TierDegen)
	require.True(t, ok)
	assert.Nil(t, degen.Bundle)
	var short *InsufficientCandidatesError
	require.True(t, errors.As(degen.Err, &short))
	assert.Equal(t, 14, short.Requested)
	assert.Equal(t, 12, short.Found)

	_, ok = set.Get("moonshot")
	assert.False(t, ok)
}

func TestBuildTiersRequiresSports(t *testing.T) {
	a := newTestAssembler(new(MockCandidateProvider))
	_, err := a.BuildTiers(context.Background(), nil, false)
	assert.ErrorIs(t, err, ErrNoSports)
}

// TestBuildConservativeFromThinBar tests a 40 candidate pool where only three
// legs clear the conservative bar
func TestBuildConservativeFromThinBar(t *testing.T) {
	pool := boards(models.SportNFL, 10, 62)
	strong := []int{0, 4, 10}
	for _, i := range strong {
		pool[i].Confidence = 75
	}

	policy := DefaultPolicies().Conservative
	qualifying := 0
	for i := range pool {
		if policy.Admits(&pool[i]) {
			qualifying++
		}
	}
	require.Len(t, pool, 40)
	require.Equal(t, 3, qualifying)

	provider := new(MockCandidateProvider)
	provider.On("Resolve", mock.Anything, forSport(models.SportNFL)).Return(resolution(pool), nil)

	a := newTestAssembler(provider)
	bundle, err := a.Build(context.Background(), Request{
		LegCount:    5,
		Sports:      []models.Sport{models.SportNFL},
		RiskProfile: models.RiskConservative,
	})
	require.NoError(t, err)
	require.Len(t, bundle.Legs, 5)

	high := 0
	for _, leg := range bundle.Legs {
		if leg.Confidence == 75 {
			high++
		}
	}
	assert.Equal(t, 3, high)
}
