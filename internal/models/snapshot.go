// Package models defines the core domain entities: match snapshots, signal sets, and alert keys.
package models

import (
	"strconv"
	"strings"
)

// Statistic names as reported by API-Football.
const (
	StatShotsOnGoal    = "Shots on Goal"
	StatBallPossession = "Ball Possession"
	StatCornerKicks    = "Corner Kicks"
)

// MatchSnapshot is the normalized state of one live fixture at one poll.
type MatchSnapshot struct {
	FixtureID  int64            `json:"fixture_id"`
	LeagueID   int64            `json:"league_id,omitempty"`
	League     string           `json:"league,omitempty"`
	HomeTeam   string           `json:"home_team"`
	AwayTeam   string           `json:"away_team"`
	Elapsed    *int             `json:"elapsed,omitempty"` // nil when not started or unknown
	HomeGoals  int              `json:"home_goals"`
	AwayGoals  int              `json:"away_goals"`
	Statistics *MatchStatistics `json:"statistics,omitempty"`
}

// Minute returns the elapsed minute, or 0 when unknown.
func (s MatchSnapshot) Minute() int {
	if s.Elapsed == nil {
		return 0
	}
	return *s.Elapsed
}

// Key returns the dedup key for the snapshot's current score.
func (s MatchSnapshot) Key() AlertKey {
	return AlertKey{FixtureID: s.FixtureID, HomeGoals: s.HomeGoals, AwayGoals: s.AwayGoals}
}

// GoalDiff is home goals minus away goals.
func (s MatchSnapshot) GoalDiff() int {
	return s.HomeGoals - s.AwayGoals
}

// TotalGoals is the combined score.
func (s MatchSnapshot) TotalGoals() int {
	return s.HomeGoals + s.AwayGoals
}

// MatchStatistics holds per-side in-match metrics.
type MatchStatistics struct {
	Home TeamStats `json:"home"`
	Away TeamStats `json:"away"`
}

// TeamStats maps a metric name to its raw textual value ("5", "65%").
type TeamStats map[string]string

// Number parses the named metric, treating a trailing '%' as part of the value.
// Absent or unparsable metrics read as 0.
func (ts TeamStats) Number(name string) float64 {
	raw, ok := ts[name]
	if !ok {
		return 0
	}
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// Percent is an alias of Number for readability at percentage call sites.
func (ts TeamStats) Percent(name string) float64 {
	return ts.Number(name)
}

// AlertKey identifies a (fixture, scoreline) pair. It changes only when the score changes.
type AlertKey struct {
	FixtureID int64
	HomeGoals int
	AwayGoals int
}

func (k AlertKey) String() string {
	return strconv.FormatInt(k.FixtureID, 10) + "_" + strconv.Itoa(k.HomeGoals) + "_" + strconv.Itoa(k.AwayGoals)
}
