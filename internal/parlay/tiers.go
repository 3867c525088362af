package parlay

import (
	"context"
	"fmt"

	"github.com/yourusername/clever-parlay/internal/models"
)

// Tier names
const (
	TierSafe     = "safe"
	TierBalanced = "balanced"
	TierDegen    = "degen"
)

// TierSpec is one rung of the tiered offering.
type TierSpec struct {
	Name        string             `mapstructure:"name" validate:"required"`
	Profile     models.RiskProfile `mapstructure:"profile" validate:"required,riskprofile"`
	MinLegs     int                `mapstructure:"min_legs" validate:"gte=1,lte=20"`
	MaxLegs     int                `mapstructure:"max_legs" validate:"gte=1,lte=20"`
	DefaultLegs int                `mapstructure:"default_legs" validate:"gte=1,lte=20"`
}

// DefaultTiers returns the standard safe/balanced/degen offering.
func DefaultTiers() []TierSpec {
	return []TierSpec{
		{Name: TierSafe, Profile: models.RiskSafe, MinLegs: 3, MaxLegs: 6, DefaultLegs: 4},
		{Name: TierBalanced, Profile: models.RiskBalanced, MinLegs: 7, MaxLegs: 12, DefaultLegs: 8},
		{Name: TierDegen, Profile: models.RiskDegen, MinLegs: 13, MaxLegs: 20, DefaultLegs: 14},
	}
}

// Tier is the outcome of building one tier. Exactly one of Bundle and Err is set.
type Tier struct {
	Spec   TierSpec            `json:"spec"`
	Bundle *models.WagerBundle `json:"bundle,omitempty"`
	Err    error               `json:"-"`
}

// TierSet holds every tier built from one set of candidate pools.
type TierSet struct {
	Sports []models.Sport `json:"sports"`
	Tiers  []Tier         `json:"tiers"`
}

// Get returns the named tier.
func (t *TierSet) Get(name string) (*Tier, bool) {
	for i := range t.Tiers {
		if t.Tiers[i].Spec.Name == name {
			return &t.Tiers[i], true
		}
	}
	return nil, false
}

// BuildTiers fetches each sport's pool once and builds every configured tier
// from it. A tier that cannot be filled carries its error; the call only fails
// when the pools cannot be fetched.
func (a *Assembler) BuildTiers(ctx context.Context, sports []models.Sport, includeProps bool) (*TierSet, error) {
	sports = uniqueSports(sports)
	if len(sports) == 0 {
		return nil, ErrNoSports
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	pools, err := a.fetchPools(ctx, sports, includeProps, nil)
	if err != nil {
		return nil, a.timeoutErr(ctx, err)
	}
	total := poolSize(pools)

	set := &TierSet{Sports: sports, Tiers: make([]Tier, 0, len(a.cfg.Tiers))}
	for _, spec := range a.cfg.Tiers {
		tier := Tier{Spec: spec}
		bundle, err := a.buildTier(ctx, spec, sports, pools, includeProps, total)
		if err != nil {
			tier.Err = a.fail(spec.Profile, spec.DefaultLegs, err)
		} else {
			tier.Bundle = bundle
		}
		set.Tiers = append(set.Tiers, tier)
	}
	return set, nil
}

// buildTier tries the tier's default size first, then smaller sizes down to
// its minimum. The error reported is the one for the default size.
func (a *Assembler) buildTier(ctx context.Context, spec TierSpec, sports []models.Sport, pools map[models.Sport][]models.CandidateLeg, includeProps bool, total int) (*models.WagerBundle, error) {
	policy, err := a.cfg.Policies.For(spec.Profile)
	if err != nil {
		return nil, err
	}
	if spec.MinLegs > spec.DefaultLegs || spec.DefaultLegs > spec.MaxLegs {
		return nil, fmt.Errorf("tier %s: default legs %d outside range %d-%d", spec.Name, spec.DefaultLegs, spec.MinLegs, spec.MaxLegs)
	}

	req := Request{Sports: sports, RiskProfile: spec.Profile, BalanceAcrossSports: len(sports) > 1, IncludeProps: includeProps}
	var firstErr error
	for n := spec.DefaultLegs; n >= spec.MinLegs; n-- {
		if err := ValidateLegCount(n); err != nil {
			return nil, err
		}
		legs, err := a.relax(ctx, a.filler(sports, pools, req), policy, spec.Profile, n, total)
		if err == nil {
			return a.newBundle(spec.Profile, sports, legs)
		}
		if firstErr == nil {
			firstErr = err
		}
		if IsRetryable(err) {
			return nil, err
		}
	}
	return nil, firstErr
}
