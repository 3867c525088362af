package settlement

import (
	"fmt"
	"strconv"

	"github.com/yourusername/clever-parlay/internal/models"
)

// Grade is the result of grading one leg against a final score.
type Grade struct {
	Status models.LegStatus
	Reason string
}

func void(reason string) Grade {
	return Grade{Status: models.StatusVoid, Reason: reason}
}

// GradeLeg resolves a leg against the matchup's final score. It has no side
// effects. Legs that cannot be scored are VOID with a recorded reason.
func GradeLeg(leg *models.BundleLeg, m *models.Matchup) Grade {
	if m == nil || !m.HasScores() {
		return void(models.VoidReasonMissingScores)
	}
	home, away := *m.HomeScore, *m.AwayScore

	switch leg.MarketType {
	case models.MarketMoneyline:
		return gradeMoneyline(leg.Outcome, home, away)
	case models.MarketSpread:
		if leg.Point == nil {
			return void(models.VoidReasonMissingPoint)
		}
		return gradeSpread(leg.Outcome, *leg.Point, home, away)
	case models.MarketTotal:
		if leg.Point == nil {
			return void(models.VoidReasonMissingPoint)
		}
		return gradeTotal(leg.Outcome, *leg.Point, home, away)
	case models.MarketPlayerProp:
		return void(models.VoidReasonPropUnscoreable)
	}
	return void(models.VoidReasonUnknownMarket)
}

func gradeMoneyline(outcome models.Outcome, home, away int) Grade {
	picked, other, ok := sides(outcome, home, away)
	if !ok {
		return void(models.VoidReasonUnknownOutcome)
	}
	reason := fmt.Sprintf("final %d-%d", home, away)
	switch {
	case picked > other:
		return Grade{Status: models.StatusWon, Reason: reason}
	case picked < other:
		return Grade{Status: models.StatusLost, Reason: reason}
	}
	return Grade{Status: models.StatusPush, Reason: reason + ", tie"}
}

func gradeSpread(outcome models.Outcome, point float64, home, away int) Grade {
	picked, other, ok := sides(outcome, home, away)
	if !ok {
		return void(models.VoidReasonUnknownOutcome)
	}
	margin := picked - other
	adjusted := float64(picked) + point
	reason := fmt.Sprintf("final %d-%d, margin %d against line %s", home, away, margin, signed(point))
	switch {
	case adjusted > float64(other):
		return Grade{Status: models.StatusWon, Reason: reason}
	case adjusted < float64(other):
		return Grade{Status: models.StatusLost, Reason: reason}
	}
	return Grade{Status: models.StatusPush, Reason: reason}
}

func gradeTotal(outcome models.Outcome, line float64, home, away int) Grade {
	total := float64(home + away)
	reason := fmt.Sprintf("combined %d against total %s", home+away, strconv.FormatFloat(line, 'f', -1, 64))
	if total == line {
		return Grade{Status: models.StatusPush, Reason: reason}
	}
	switch outcome {
	case models.OutcomeOver:
		if total > line {
			return Grade{Status: models.StatusWon, Reason: reason}
		}
		return Grade{Status: models.StatusLost, Reason: reason}
	case models.OutcomeUnder:
		if total < line {
			return Grade{Status: models.StatusWon, Reason: reason}
		}
		return Grade{Status: models.StatusLost, Reason: reason}
	}
	return void(models.VoidReasonUnknownOutcome)
}

// sides returns the picked side's score followed by the opponent's.
func sides(outcome models.Outcome, home, away int) (int, int, bool) {
	switch outcome {
	case models.OutcomeHome:
		return home, away, true
	case models.OutcomeAway:
		return away, home, true
	}
	return 0, 0, false
}

func signed(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v > 0 {
		return "+" + s
	}
	return s
}
