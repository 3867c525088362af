package candidates

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-parlay/internal/cache"
	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/probability"
)

// MockMatchupSource is a mock implementation of MatchupSource
type MockMatchupSource struct {
	mock.Mock
}

func (m *MockMatchupSource) GetMatchups(ctx context.Context, sport models.Sport, window Window, period *int) ([]*models.Matchup, error) {
	args := m.Called(ctx, sport, window, period)
	return args.Get(0).([]*models.Matchup), args.Error(1)
}

// MockMarketSource is a mock implementation of MarketSource
type MockMarketSource struct {
	mock.Mock
}

func (m *MockMarketSource) GetQuotedMarkets(ctx context.Context, ids []uuid.UUID, limits MarketLimits) ([]*models.QuotedMarket, error) {
	args := m.Called(ctx, ids, limits)
	return args.Get(0).([]*models.QuotedMarket), args.Error(1)
}

// MockContextSource is a mock implementation of ContextSource
type MockContextSource struct {
	mock.Mock
}

func (m *MockContextSource) GetMatchupContext(ctx context.Context, matchup *models.Matchup) (*probability.MatchupContext, error) {
	args := m.Called(ctx, matchup)
	mctx, _ := args.Get(0).(*probability.MatchupContext)
	return mctx, args.Error(1)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var testNow = time.Date(2024, 9, 10, 12, 0, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func pt(v float64) *float64 { return &v }

func matchup(sport models.Sport, home, away string, in time.Duration) *models.Matchup {
	return &models.Matchup{
		ID:          uuid.New(),
		Sport:       sport,
		HomeTeam:    home,
		AwayTeam:    away,
		ScheduledAt: testNow.Add(in),
		Status:      models.MatchupScheduled,
	}
}

func quote(m *models.Matchup, source string, mt models.MarketType, o models.Outcome, point *float64, price string, age time.Duration) *models.QuotedMarket {
	return &models.QuotedMarket{
		ID:         uuid.New(),
		MatchupID:  m.ID,
		Source:     source,
		MarketType: mt,
		Outcome:    o,
		Point:      point,
		Price:      price,
		CapturedAt: testNow.Add(-age),
	}
}

func fullBoard(m *models.Matchup) []*models.QuotedMarket {
	return []*models.QuotedMarket{
		quote(m, "book_a", models.MarketMoneyline, models.OutcomeHome, nil, "-150", time.Hour),
		quote(m, "book_a", models.MarketMoneyline, models.OutcomeAway, nil, "+130", time.Hour),
		quote(m, "book_a", models.MarketSpread, models.OutcomeHome, pt(-3.5), "-110", time.Hour),
		quote(m, "book_a", models.MarketSpread, models.OutcomeAway, pt(3.5), "-110", time.Hour),
		quote(m, "book_a", models.MarketTotal, models.OutcomeOver, pt(45.5), "-110", time.Hour),
		quote(m, "book_a", models.MarketTotal, models.OutcomeUnder, pt(45.5), "-110", time.Hour),
		quote(m, "book_b", models.MarketMoneyline, models.OutcomeHome, nil, "abc", time.Hour),
	}
}

type fixture struct {
	matchups *MockMatchupSource
	markets  *MockMarketSource
	contexts *MockContextSource
	clock    *fakeClock
	resolver *Resolver
}

func newFixture(cfg Config, store cache.Store) *fixture {
	f := &fixture{
		matchups: new(MockMatchupSource),
		markets:  new(MockMarketSource),
		contexts: new(MockContextSource),
		clock:    &fakeClock{now: testNow},
	}
	model := probability.NewModel(probability.DefaultWeights())
	f.resolver = NewResolver(f.matchups, f.markets, f.contexts, model, store, f.clock, cfg, testLogger())
	return f
}

// TestResolveRanksAndFilters tests ordering, edge and malformed price handling
func TestResolveRanksAndFilters(t *testing.T) {
	f := newFixture(DefaultConfig(), nil)
	m := matchup(models.SportNFL, "KC", "BUF", 48*time.Hour)

	f.matchups.On("GetMatchups", mock.Anything, models.SportNFL, mock.Anything, mock.Anything).Return([]*models.Matchup{m}, nil)
	f.markets.On("GetQuotedMarkets", mock.Anything, []uuid.UUID{m.ID}, mock.Anything).Return(fullBoard(m), nil)
	f.contexts.On("GetMatchupContext", mock.Anything, m).Return(nil, nil)

	res, err := f.resolver.Resolve(context.Background(), Query{Sport: models.SportNFL})
	require.NoError(t, err)

	require.Len(t, res.Legs, 6)
	assert.Equal(t, 1, res.Malformed)
	assert.Equal(t, StepRequested, res.Step)

	for i, leg := range res.Legs {
		assert.InDelta(t, leg.ModelProb-leg.ImpliedProb, leg.Edge, 1e-12)
		assert.GreaterOrEqual(t, leg.ModelProb, probability.MinProbability)
		assert.LessOrEqual(t, leg.ModelProb, probability.MaxProbability)
		if i > 0 {
			prev := res.Legs[i-1]
			assert.GreaterOrEqual(t, prev.Confidence, leg.Confidence)
			if prev.Confidence == leg.Confidence {
				assert.GreaterOrEqual(t, prev.Edge, leg.Edge)
			}
		}
	}
	assert.Equal(t, models.MarketMoneyline, res.Legs[0].MarketType)
	assert.Equal(t, models.OutcomeAway, res.Legs[0].Outcome)
	assert.Equal(t, 130, res.Legs[0].Price)
}

func TestResolveMinConfidenceAndMaxLegs(t *testing.T) {
	f := newFixture(DefaultConfig(), nil)
	m := matchup(models.SportNFL, "KC", "BUF", 48*time.Hour)

	f.matchups.On("GetMatchups", mock.Anything, models.SportNFL, mock.Anything, mock.Anything).Return([]*models.Matchup{m}, nil)
	f.markets.On("GetQuotedMarkets", mock.Anything, mock.Anything, mock.Anything).Return(fullBoard(m), nil)
	f.contexts.On("GetMatchupContext", mock.Anything, m).Return(nil, nil)

	all, err := f.resolver.GetCandidateLegs(context.Background(), Query{Sport: models.SportNFL})
	require.NoError(t, err)
	floor := all[len(all)-1].Confidence + 0.5

	filtered, err := f.resolver.GetCandidateLegs(context.Background(), Query{Sport: models.SportNFL, MinConfidence: floor})
	require.NoError(t, err)
	for _, leg := range filtered {
		assert.GreaterOrEqual(t, leg.Confidence, floor)
		assert.NotEqual(t, models.MarketTotal, leg.MarketType)
	}
	assert.Len(t, filtered, 4)

	capped, err := f.resolver.GetCandidateLegs(context.Background(), Query{Sport: models.SportNFL, MaxLegs: 2})
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestResolveExcludesPropsUnlessRequested(t *testing.T) {
	f := newFixture(DefaultConfig(), nil)
	m := matchup(models.SportNBA, "BOS", "NYK", 24*time.Hour)
	prop := quote(m, "book_a", models.MarketPlayerProp, models.OutcomeOver, pt(27.5), "-115", time.Hour)
	prop.PlayerName, prop.PropKind = "J. Tatum", "points"
	board := append(fullBoard(m), prop)

	f.matchups.On("GetMatchups", mock.Anything, models.SportNBA, mock.Anything, mock.Anything).Return([]*models.Matchup{m}, nil)
	f.markets.On("GetQuotedMarkets", mock.Anything, mock.Anything, mock.Anything).Return(board, nil)
	f.contexts.On("GetMatchupContext", mock.Anything, m).Return(nil, nil)

	legs, err := f.resolver.GetCandidateLegs(context.Background(), Query{Sport: models.SportNBA})
	require.NoError(t, err)
	for _, leg := range legs {
		assert.NotEqual(t, models.MarketPlayerProp, leg.MarketType)
	}

	legs, err = f.resolver.GetCandidateLegs(context.Background(), Query{Sport: models.SportNBA, IncludeProps: true})
	require.NoError(t, err)
	found := false
	for _, leg := range legs {
		if leg.MarketType == models.MarketPlayerProp {
			found = true
			assert.Equal(t, "J. Tatum", leg.PlayerName)
		}
	}
	assert.True(t, found)
}

// TestResolveWidensByDroppingPeriod tests the first widening step for week-based sports
func TestResolveWidensByDroppingPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SeasonStarts = map[models.Sport]time.Time{models.SportNFL: time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC)}
	f := newFixture(cfg, nil)
	m := matchup(models.SportNFL, "KC", "BUF", 72*time.Hour)

	withPeriod := mock.MatchedBy(func(p *int) bool { return p != nil && *p == 1 })
	noPeriod := mock.MatchedBy(func(p *int) bool { return p == nil })
	f.matchups.On("GetMatchups", mock.Anything, models.SportNFL, mock.Anything, withPeriod).Return([]*models.Matchup{}, nil).Once()
	f.matchups.On("GetMatchups", mock.Anything, models.SportNFL, mock.Anything, noPeriod).Return([]*models.Matchup{m}, nil).Once()
	f.markets.On("GetQuotedMarkets", mock.Anything, mock.Anything, mock.Anything).Return(fullBoard(m), nil)
	f.contexts.On("GetMatchupContext", mock.Anything, m).Return(nil, nil)

	res, err := f.resolver.Resolve(context.Background(), Query{Sport: models.SportNFL})
	require.NoError(t, err)
	assert.Equal(t, StepDropPeriod, res.Step)
	assert.Nil(t, res.Period)
	assert.NotEmpty(t, res.Legs)
	f.matchups.AssertExpectations(t)
}

func TestResolveExhaustedReturnsEmpty(t *testing.T) {
	f := newFixture(DefaultConfig(), nil)
	f.matchups.On("GetMatchups", mock.Anything, models.SportNHL, mock.Anything, mock.Anything).Return([]*models.Matchup{}, nil)

	res, err := f.resolver.Resolve(context.Background(), Query{Sport: models.SportNHL})
	require.NoError(t, err)
	assert.Empty(t, res.Legs)
	assert.Equal(t, StepExhausted, res.Step)
	f.matchups.AssertNumberOfCalls(t, "GetMatchups", 3)
}

func TestResolveSourceError(t *testing.T) {
	f := newFixture(DefaultConfig(), nil)
	f.matchups.On("GetMatchups", mock.Anything, models.SportMLB, mock.Anything, mock.Anything).Return([]*models.Matchup{}, errors.New("connection refused"))

	_, err := f.resolver.Resolve(context.Background(), Query{Sport: models.SportMLB})
	assert.Error(t, err)
}

func TestResolveToleratesContextFailure(t *testing.T) {
	f := newFixture(DefaultConfig(), nil)
	m := matchup(models.SportNFL, "KC", "BUF", 48*time.Hour)

	f.matchups.On("GetMatchups", mock.Anything, models.SportNFL, mock.Anything, mock.Anything).Return([]*models.Matchup{m}, nil)
	f.markets.On("GetQuotedMarkets", mock.Anything, mock.Anything, mock.Anything).Return(fullBoard(m), nil)
	f.contexts.On("GetMatchupContext", mock.Anything, m).Return(nil, errors.New("stats api down"))

	legs, err := f.resolver.GetCandidateLegs(context.Background(), Query{Sport: models.SportNFL})
	require.NoError(t, err)
	assert.Len(t, legs, 6)
}

// TestResolveUsesCache tests that the evaluated pool is reused until the TTL passes
func TestResolveUsesCache(t *testing.T) {
	cfg := DefaultConfig()
	clock := &fakeClock{now: testNow}
	store := cache.NewMemoryStore(clock, 100, time.Minute)
	f := newFixture(cfg, store)
	f.resolver.clock = clock
	m := matchup(models.SportNFL, "KC", "BUF", 48*time.Hour)

	f.matchups.On("GetMatchups", mock.Anything, models.SportNFL, mock.Anything, mock.Anything).Return([]*models.Matchup{m}, nil)
	f.markets.On("GetQuotedMarkets", mock.Anything, mock.Anything, mock.Anything).Return(fullBoard(m), nil)
	f.contexts.On("GetMatchupContext", mock.Anything, m).Return(nil, nil)

	ctx := context.Background()
	first, err := f.resolver.Resolve(ctx, Query{Sport: models.SportNFL})
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.resolver.Resolve(ctx, Query{Sport: models.SportNFL, MinConfidence: 1})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, len(first.Legs), len(second.Legs))
	f.markets.AssertNumberOfCalls(t, "GetQuotedMarkets", 1)

	clock.Advance(46 * time.Second)
	_, err = f.resolver.Resolve(ctx, Query{Sport: models.SportNFL})
	require.NoError(t, err)
	f.markets.AssertNumberOfCalls(t, "GetQuotedMarkets", 2)
}

func TestResolveMaxCollected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCollected = 3
	f := newFixture(cfg, nil)
	m := matchup(models.SportNFL, "KC", "BUF", 48*time.Hour)

	f.matchups.On("GetMatchups", mock.Anything, models.SportNFL, mock.Anything, mock.Anything).Return([]*models.Matchup{m}, nil)
	f.markets.On("GetQuotedMarkets", mock.Anything, mock.Anything, mock.Anything).Return(fullBoard(m), nil)
	f.contexts.On("GetMatchupContext", mock.Anything, m).Return(nil, nil)

	res, err := f.resolver.Resolve(context.Background(), Query{Sport: models.SportNFL})
	require.NoError(t, err)
	assert.Equal(t, 3, res.PoolSize)
	assert.Len(t, res.Legs, 3)
}

func TestResolveSkipsStartedMatchups(t *testing.T) {
	f := newFixture(DefaultConfig(), nil)
	live := matchup(models.SportNBA, "LAL", "GSW", time.Hour)
	live.Status = models.MatchupInProgress

	f.matchups.On("GetMatchups", mock.Anything, models.SportNBA, mock.Anything, mock.Anything).Return([]*models.Matchup{live}, nil)

	res, err := f.resolver.Resolve(context.Background(), Query{Sport: models.SportNBA})
	require.NoError(t, err)
	assert.Empty(t, res.Legs)
	f.markets.AssertNotCalled(t, "GetQuotedMarkets", mock.Anything, mock.Anything, mock.Anything)
}

func TestMovementScore(t *testing.T) {
	m := matchup(models.SportNFL, "KC", "BUF", 48*time.Hour)
	quotes := []*models.QuotedMarket{
		quote(m, "book_a", models.MarketMoneyline, models.OutcomeHome, nil, "-110", 3*time.Hour),
		quote(m, "book_a", models.MarketMoneyline, models.OutcomeHome, nil, "-150", time.Hour),
		quote(m, "book_a", models.MarketMoneyline, models.OutcomeAway, nil, "+300", 3*time.Hour),
		quote(m, "book_a", models.MarketMoneyline, models.OutcomeAway, nil, "-300", time.Hour),
	}
	sels, malformed := groupSelections(quotes, testLogger())
	require.Len(t, sels, 2)
	assert.Equal(t, 0, malformed)

	assert.InDelta(t, 7.62, sels[0].movement(), 0.01)
	assert.Equal(t, maxMovement, sels[1].movement())
	assert.Equal(t, -150, sels[0].best().price)
}

func TestLadder(t *testing.T) {
	r := &Resolver{cfg: Config{WindowDays: 7, MaxWindowDays: 20}}
	week := 3

	steps := r.ladder(&week)
	require.Len(t, steps, 4)
	assert.Equal(t, StepRequested, steps[0].name)
	assert.Equal(t, &week, steps[0].period)
	assert.Equal(t, StepDropPeriod, steps[1].name)
	assert.Nil(t, steps[1].period)
	assert.Equal(t, 14, steps[2].days)
	assert.Equal(t, 20, steps[3].days)

	r.cfg.MaxWindowDays = 7
	steps = r.ladder(nil)
	assert.Len(t, steps, 1)
}

func TestCurrentPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SeasonStarts[models.SportNFL] = time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC)

	week, ok := cfg.CurrentPeriod(models.SportNFL, time.Date(2024, 9, 5, 20, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 1, week)

	week, ok = cfg.CurrentPeriod(models.SportNFL, time.Date(2024, 9, 19, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 3, week)

	_, ok = cfg.CurrentPeriod(models.SportNFL, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)

	_, ok = cfg.CurrentPeriod(models.SportNBA, testNow)
	assert.False(t, ok)
}
