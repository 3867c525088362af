package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/clever-parlay/internal/models"
)

func ip(v int) *int { return &v }
func fp(v float64) *float64 { return &v }

func final(home, away int) *models.Matchup {
	return &models.Matchup{Status: models.MatchupFinal, HomeScore: ip(home), AwayScore: ip(away)}
}

// TestGradeLeg tests grading each market against a final score
func TestGradeLeg(t *testing.T) {
	tests := []struct {
		name    string
		leg     models.BundleLeg
		matchup *models.Matchup
		want    models.LegStatus
		reason  string
	}{
		{"home moneyline wins", models.BundleLeg{MarketType: models.MarketMoneyline, Outcome: models.OutcomeHome}, final(27, 24), models.StatusWon, ""},
		{"away moneyline loses", models.BundleLeg{MarketType: models.MarketMoneyline, Outcome: models.OutcomeAway}, final(27, 24), models.StatusLost, ""},
		{"moneyline tie pushes", models.BundleLeg{MarketType: models.MarketMoneyline, Outcome: models.OutcomeHome}, final(20, 20), models.StatusPush, ""},
		{"home -3.5 loses by three", models.BundleLeg{MarketType: models.MarketSpread, Outcome: models.OutcomeHome, Point: fp(-3.5)}, final(27, 24), models.StatusLost, ""},
		{"home -2.5 covers", models.BundleLeg{MarketType: models.MarketSpread, Outcome: models.OutcomeHome, Point: fp(-2.5)}, final(27, 24), models.StatusWon, ""},
		{"away +3 pushes", models.BundleLeg{MarketType: models.MarketSpread, Outcome: models.OutcomeAway, Point: fp(3)}, final(27, 24), models.StatusPush, ""},
		{"away +3.5 covers", models.BundleLeg{MarketType: models.MarketSpread, Outcome: models.OutcomeAway, Point: fp(3.5)}, final(27, 24), models.StatusWon, ""},
		{"under 45.5 loses at 51", models.BundleLeg{MarketType: models.MarketTotal, Outcome: models.OutcomeUnder, Point: fp(45.5)}, final(27, 24), models.StatusLost, ""},
		{"over 45.5 wins at 51", models.BundleLeg{MarketType: models.MarketTotal, Outcome: models.OutcomeOver, Point: fp(45.5)}, final(27, 24), models.StatusWon, ""},
		{"total on the number pushes", models.BundleLeg{MarketType: models.MarketTotal, Outcome: models.OutcomeOver, Point: fp(51)}, final(27, 24), models.StatusPush, ""},
		{"spread without line voids", models.BundleLeg{MarketType: models.MarketSpread, Outcome: models.OutcomeHome}, final(27, 24), models.StatusVoid, models.VoidReasonMissingPoint},
		{"total without line voids", models.BundleLeg{MarketType: models.MarketTotal, Outcome: models.OutcomeOver}, final(27, 24), models.StatusVoid, models.VoidReasonMissingPoint},
		{"prop voids", models.BundleLeg{MarketType: models.MarketPlayerProp, Outcome: models.OutcomeOver, Point: fp(24.5), PlayerName: "J. Doe", PropKind: "points"}, final(27, 24), models.StatusVoid, models.VoidReasonPropUnscoreable},
		{"unknown market voids", models.BundleLeg{MarketType: "first_scorer", Outcome: models.OutcomeHome}, final(27, 24), models.StatusVoid, models.VoidReasonUnknownMarket},
		{"missing scores void", models.BundleLeg{MarketType: models.MarketMoneyline, Outcome: models.OutcomeHome}, &models.Matchup{Status: models.MatchupFinal}, models.StatusVoid, models.VoidReasonMissingScores},
		{"moneyline on over voids", models.BundleLeg{MarketType: models.MarketMoneyline, Outcome: models.OutcomeOver}, final(27, 24), models.StatusVoid, models.VoidReasonUnknownOutcome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GradeLeg(&tt.leg, tt.matchup)
			assert.Equal(t, tt.want, g.Status)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, g.Reason)
			}
			assert.NotEmpty(t, g.Reason)
		})
	}
}

func TestGradeLegNilMatchup(t *testing.T) {
	leg := models.BundleLeg{MarketType: models.MarketMoneyline, Outcome: models.OutcomeHome}
	assert.Equal(t, models.StatusVoid, GradeLeg(&leg, nil).Status)
}

// TestDeriveBundleStatus tests bundle status derivation from leg statuses
func TestDeriveBundleStatus(t *testing.T) {
	const (
		P = models.StatusPending
		L = models.StatusLive
		W = models.StatusWon
		X = models.StatusLost
		U = models.StatusPush
		V = models.StatusVoid
	)
	tests := []struct {
		name string
		legs []models.LegStatus
		want models.BundleStatus
	}{
		{"empty", nil, P},
		{"all pending", []models.LegStatus{P, P, P}, P},
		{"one live", []models.LegStatus{P, L, P}, L},
		{"won and pending", []models.LegStatus{W, P}, L},
		{"won push lost", []models.LegStatus{W, U, X}, X},
		{"lost beats pending", []models.LegStatus{X, P, P}, X},
		{"all won", []models.LegStatus{W, W, W}, W},
		{"won with push and void", []models.LegStatus{W, U, V}, W},
		{"all push", []models.LegStatus{U, U}, U},
		{"all void", []models.LegStatus{V, V}, V},
		{"push and void", []models.LegStatus{U, V, V}, U},
		{"void and live", []models.LegStatus{V, L}, L},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := DeriveBundleStatus(tt.legs)
			assert.Equal(t, tt.want, first)
			for i := 0; i < 3; i++ {
				assert.Equal(t, first, DeriveBundleStatus(tt.legs))
			}
		})
	}
}
