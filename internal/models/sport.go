package models

import "strings"

// Sport is a league code such as "nfl" or "nba".
type Sport string

const (
	SportNFL   Sport = "nfl"
	SportNCAAF Sport = "ncaaf"
	SportNBA   Sport = "nba"
	SportNCAAB Sport = "ncaab"
	SportWNBA  Sport = "wnba"
	SportNHL   Sport = "nhl"
	SportMLB   Sport = "mlb"
	SportEPL   Sport = "epl"
	SportMLS   Sport = "mls"
)

// SportFamily groups leagues that share scoring characteristics.
type SportFamily string

const (
	FamilyFootball   SportFamily = "football"
	FamilyBasketball SportFamily = "basketball"
	FamilyHockey     SportFamily = "hockey"
	FamilyBaseball   SportFamily = "baseball"
	FamilySoccer     SportFamily = "soccer"
	FamilyUnknown    SportFamily = "unknown"
)

var sportFamilies = map[Sport]SportFamily{
	SportNFL:   FamilyFootball,
	SportNCAAF: FamilyFootball,
	SportNBA:   FamilyBasketball,
	SportNCAAB: FamilyBasketball,
	SportWNBA:  FamilyBasketball,
	SportNHL:   FamilyHockey,
	SportMLB:   FamilyBaseball,
	SportEPL:   FamilySoccer,
	SportMLS:   FamilySoccer,
}

// ParseSport normalizes a sport code. The second return is false for unknown codes.
func ParseSport(code string) (Sport, bool) {
	s := Sport(strings.ToLower(strings.TrimSpace(code)))
	_, ok := sportFamilies[s]
	return s, ok
}

// Family returns the sport family, or FamilyUnknown.
func (s Sport) Family() SportFamily {
	if f, ok := sportFamilies[s]; ok {
		return f
	}
	return FamilyUnknown
}

// IsWeekBased reports whether the league schedules games in numbered weeks.
func (s Sport) IsWeekBased() bool {
	return s == SportNFL || s == SportNCAAF
}

// AllSports returns every supported sport code.
func AllSports() []Sport {
	return []Sport{SportNFL, SportNCAAF, SportNBA, SportNCAAB, SportWNBA, SportNHL, SportMLB, SportEPL, SportMLS}
}

func (s Sport) String() string {
	return string(s)
}
