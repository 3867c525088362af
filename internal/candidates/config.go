package candidates

import (
	"time"

	"github.com/yourusername/clever-parlay/internal/models"
)

// Config bounds the work done per resolution.
type Config struct {
	WindowDays           int
	MaxWindowDays        int
	MaxRows              int
	MaxMarketsPerMatchup int
	MaxPropsPerMatchup   int
	MaxCollected         int
	ContextConcurrency   int
	CacheTTL             time.Duration
	// SeasonStarts anchors week numbering for week-based sports.
	SeasonStarts map[models.Sport]time.Time
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		WindowDays:           7,
		MaxWindowDays:        28,
		MaxRows:              5000,
		MaxMarketsPerMatchup: 24,
		MaxPropsPerMatchup:   40,
		MaxCollected:         400,
		ContextConcurrency:   8,
		CacheTTL:             45 * time.Second,
		SeasonStarts:         map[models.Sport]time.Time{},
	}
}

// CurrentPeriod returns the week number containing now for week-based sports.
// The second return is false outside the season or for other sports.
func (c Config) CurrentPeriod(sport models.Sport, now time.Time) (int, bool) {
	if !sport.IsWeekBased() {
		return 0, false
	}
	start, ok := c.SeasonStarts[sport]
	if !ok || now.Before(start) {
		return 0, false
	}
	return int(now.Sub(start).Hours()/24)/7 + 1, true
}
