package settlement

import "github.com/yourusername/clever-parlay/internal/models"

// DeriveBundleStatus computes a bundle's status from its legs. It is pure:
// the same statuses always give the same answer.
//
// Any LOST leg loses the bundle. Once every leg is terminal the bundle is WON
// if any leg won, VOID if every leg voided and PUSH otherwise. Until then it is
// LIVE if any leg has moved past PENDING.
func DeriveBundleStatus(legs []models.LegStatus) models.BundleStatus {
	if len(legs) == 0 {
		return models.StatusPending
	}

	var won, pushed, voided, started int
	terminal := true
	for _, s := range legs {
		switch s {
		case models.StatusLost:
			return models.StatusLost
		case models.StatusWon:
			won++
		case models.StatusPush:
			pushed++
		case models.StatusVoid:
			voided++
		}
		if !s.IsTerminal() {
			terminal = false
		}
		if s != models.StatusPending {
			started++
		}
	}

	if terminal {
		switch {
		case won > 0:
			return models.StatusWon
		case voided == len(legs):
			return models.StatusVoid
		default:
			return models.StatusPush
		}
	}
	if started > 0 {
		return models.StatusLive
	}
	return models.StatusPending
}
