package parlay

import (
	"fmt"
	"math"

	"github.com/yourusername/clever-parlay/internal/models"
)

const (
	MinLegs = 1
	MaxLegs = 20
)

// Policy is the admission floor for one risk profile.
type Policy struct {
	MinConfidence float64 `mapstructure:"min_confidence" validate:"gte=0,lte=100"`
	MinEdgePoints float64 `mapstructure:"min_edge_points" validate:"gte=0"`
}

// Admits reports whether a leg clears the policy floor.
func (p Policy) Admits(leg *models.CandidateLeg) bool {
	return leg.Confidence >= p.MinConfidence && leg.EdgePoints() >= p.MinEdgePoints
}

// Policies holds every risk profile and the relaxation step sizes.
type Policies struct {
	Conservative   Policy  `mapstructure:"conservative"`
	Balanced       Policy  `mapstructure:"balanced"`
	Degen          Policy  `mapstructure:"degen"`
	ConfidenceStep float64 `mapstructure:"confidence_step" validate:"gt=0"`
	EdgeStep       float64 `mapstructure:"edge_step" validate:"gt=0"`
}

// DefaultPolicies returns the production policy table.
func DefaultPolicies() Policies {
	return Policies{
		Conservative:   Policy{MinConfidence: 70, MinEdgePoints: 2},
		Balanced:       Policy{MinConfidence: 55, MinEdgePoints: 1},
		Degen:          Policy{MinConfidence: 40, MinEdgePoints: 0},
		ConfidenceStep: 5,
		EdgeStep:       0.5,
	}
}

// For returns the policy for a profile. RiskSafe shares the conservative floor.
func (p Policies) For(profile models.RiskProfile) (Policy, error) {
	switch profile {
	case models.RiskConservative, models.RiskSafe:
		return p.Conservative, nil
	case models.RiskBalanced:
		return p.Balanced, nil
	case models.RiskDegen:
		return p.Degen, nil
	}
	return Policy{}, fmt.Errorf("%w: %q", ErrUnknownRiskProfile, profile)
}

// Relaxations returns the policy followed by each relaxed step down to a zero floor.
func (p Policies) Relaxations(start Policy) []Policy {
	confStep, edgeStep := p.ConfidenceStep, p.EdgeStep
	if confStep <= 0 {
		confStep = 5
	}
	if edgeStep <= 0 {
		edgeStep = 0.5
	}

	steps := []Policy{start}
	cur := start
	for cur.MinConfidence > 0 || cur.MinEdgePoints > 0 {
		cur = Policy{
			MinConfidence: math.Max(0, cur.MinConfidence-confStep),
			MinEdgePoints: math.Max(0, cur.MinEdgePoints-edgeStep),
		}
		steps = append(steps, cur)
	}
	return steps
}

// ValidateLegCount checks the requested bundle size.
func ValidateLegCount(n int) error {
	if n < MinLegs || n > MaxLegs {
		return fmt.Errorf("%w: got %d", ErrInvalidLegCount, n)
	}
	return nil
}
