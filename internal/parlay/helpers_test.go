package parlay

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/clever-parlay/internal/candidates"
	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/oddsmath"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func pt(v float64) *float64 { return &v }

type legOpt func(*models.CandidateLeg)

func withPoint(p float64) legOpt {
	return func(l *models.CandidateLeg) { l.Point = pt(p) }
}

func withPlayer(name, kind string) legOpt {
	return func(l *models.CandidateLeg) { l.PlayerName, l.PropKind = name, kind }
}

func withSport(s models.Sport) legOpt {
	return func(l *models.CandidateLeg) { l.Sport = s }
}

func mkLeg(matchup uuid.UUID, mt models.MarketType, o models.Outcome, price int, prob, conf float64, opts ...legOpt) models.CandidateLeg {
	dec, _ := oddsmath.AmericanToDecimal(price)
	l := models.CandidateLeg{
		MatchupID:   matchup,
		Sport:       models.SportNFL,
		HomeTeam:    "HOME",
		AwayTeam:    "AWAY",
		MarketType:  mt,
		Outcome:     o,
		Price:       price,
		DecimalOdds: dec,
		ModelProb:   prob,
		ImpliedProb: 1 / dec,
		Edge:        prob - 1/dec,
		Confidence:  conf,
		Method:      models.MethodOddsAndStats,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// board returns four legs on one matchup: home ML, away ML, over and under.
// The home ML and the over are the stronger sides.
func board(sport models.Sport, conf float64) []models.CandidateLeg {
	id := uuid.New()
	return []models.CandidateLeg{
		mkLeg(id, models.MarketMoneyline, models.OutcomeHome, -110, 0.58, conf, withSport(sport)),
		mkLeg(id, models.MarketMoneyline, models.OutcomeAway, -110, 0.42, conf, withSport(sport)),
		mkLeg(id, models.MarketTotal, models.OutcomeOver, -110, 0.57, conf, withSport(sport), withPoint(45.5)),
		mkLeg(id, models.MarketTotal, models.OutcomeUnder, -110, 0.43, conf, withSport(sport), withPoint(45.5)),
	}
}

func boards(sport models.Sport, matchups int, conf float64) []models.CandidateLeg {
	var legs []models.CandidateLeg
	for i := 0; i < matchups; i++ {
		legs = append(legs, board(sport, conf)...)
	}
	return legs
}

// MockCandidateProvider is a mock implementation of CandidateProvider
type MockCandidateProvider struct {
	mock.Mock
}

func (m *MockCandidateProvider) Resolve(ctx context.Context, q candidates.Query) (*candidates.Resolution, error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(*candidates.Resolution)
	return res, args.Error(1)
}

func forSport(s models.Sport) interface{} {
	return mock.MatchedBy(func(q candidates.Query) bool { return q.Sport == s })
}

func resolution(legs []models.CandidateLeg) *candidates.Resolution {
	return &candidates.Resolution{Legs: legs, PoolSize: len(legs), Step: candidates.StepRequested}
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2024, 10, 6, 17, 0, 0, 0, time.UTC)

func assertNoConflicts(legs []models.CandidateLeg) (int, int, bool) {
	for i := range legs {
		for j := i + 1; j < len(legs); j++ {
			if Conflicts(&legs[i], &legs[j]) {
				return i, j, false
			}
		}
	}
	return 0, 0, true
}

func maxPerMatchup(legs []models.CandidateLeg) int {
	counts := make(map[uuid.UUID]int)
	max := 0
	for i := range legs {
		counts[legs[i].MatchupID]++
		if counts[legs[i].MatchupID] > max {
			max = counts[legs[i].MatchupID]
		}
	}
	return max
}
