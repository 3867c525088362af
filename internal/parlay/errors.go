package parlay

import (
	"errors"
	"fmt"

	"github.com/yourusername/clever-parlay/internal/models"
)

var (
	ErrInvalidLegCount        = errors.New("leg count must be between 1 and 20")
	ErrUnknownRiskProfile     = errors.New("unknown risk profile")
	ErrNoSports               = errors.New("at least one sport is required")
	ErrAssemblyTimeout        = errors.New("bundle assembly timed out")
	ErrInsufficientCandidates = errors.New("insufficient candidates")
)

// Reasons carried by InsufficientCandidatesError
const (
	ReasonNoCandidates               = "no_candidates"
	ReasonInsufficientAfterFiltering = "insufficient_after_filtering"
)

// InsufficientCandidatesError reports that a bundle could not be filled.
type InsufficientCandidatesError struct {
	Requested int
	Found     int
	PoolSize  int
	Profile   models.RiskProfile
	Reason    string
}

func (e *InsufficientCandidatesError) Error() string {
	return fmt.Sprintf("insufficient candidates for %s bundle: found %d of %d legs (pool %d, %s)",
		e.Profile, e.Found, e.Requested, e.PoolSize, e.Reason)
}

// Is matches ErrInsufficientCandidates.
func (e *InsufficientCandidatesError) Is(target error) bool {
	return target == ErrInsufficientCandidates
}

// NewInsufficientCandidatesError creates a new insufficient candidates error
func NewInsufficientCandidatesError(requested, found, poolSize int, profile models.RiskProfile) *InsufficientCandidatesError {
	reason := ReasonInsufficientAfterFiltering
	if poolSize == 0 {
		reason = ReasonNoCandidates
	}
	return &InsufficientCandidatesError{
		Requested: requested,
		Found:     found,
		PoolSize:  poolSize,
		Profile:   profile,
		Reason:    reason,
	}
}

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAssemblyTimeout)
}
