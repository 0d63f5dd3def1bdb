// Package snapshot normalizes raw API-Football fixture records into match snapshots.
package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/L1bertine/football-statbot/internal/apifootball"
	"github.com/L1bertine/football-statbot/internal/models"
)

var validate = validator.New()

type rawFixture struct {
	Fixture *rawFixtureInfo `json:"fixture" validate:"required"`
	League  rawLeague       `json:"league"`
	Teams   *rawTeams       `json:"teams" validate:"required"`
	Goals   *rawGoals       `json:"goals" validate:"required"`
}

type rawFixtureInfo struct {
	ID     *int64    `json:"id" validate:"required,gt=0"`
	Status rawStatus `json:"status"`
}

type rawStatus struct {
	Elapsed *int   `json:"elapsed"`
	Short   string `json:"short"`
}

type rawLeague struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type rawTeams struct {
	Home *rawTeam `json:"home" validate:"required"`
	Away *rawTeam `json:"away" validate:"required"`
}

type rawTeam struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

type rawGoals struct {
	Home *int `json:"home" validate:"required,gte=0"`
	Away *int `json:"away" validate:"required,gte=0"`
}

// Build decodes one fixture record and attaches optional statistics.
// Records missing the fixture id, a team name or a goal count are rejected
// with an error marked models.ErrInvalidRecord. A missing or negative elapsed
// minute is kept as nil.
func Build(raw apifootball.Record, stats []apifootball.TeamStatistics) (models.MatchSnapshot, error) {
	var rec rawFixture
	if err := sonic.Unmarshal(raw, &rec); err != nil {
		return models.MatchSnapshot{}, errors.Mark(errors.Wrap(err, "decode fixture record"), models.ErrInvalidRecord)
	}
	if err := validate.Struct(&rec); err != nil {
		return models.MatchSnapshot{}, errors.Mark(errors.Wrap(err, "validate fixture record"), models.ErrInvalidRecord)
	}

	home := strings.TrimSpace(rec.Teams.Home.Name)
	away := strings.TrimSpace(rec.Teams.Away.Name)
	if home == "" || away == "" {
		return models.MatchSnapshot{}, errors.Mark(errors.Newf("fixture %d: blank team name", *rec.Fixture.ID), models.ErrInvalidRecord)
	}

	snap := models.MatchSnapshot{
		FixtureID: *rec.Fixture.ID,
		LeagueID:  rec.League.ID,
		League:    rec.League.Name,
		HomeTeam:  home,
		AwayTeam:  away,
		HomeGoals: *rec.Goals.Home,
		AwayGoals: *rec.Goals.Away,
	}
	if e := rec.Fixture.Status.Elapsed; e != nil && *e >= 0 {
		minute := *e
		snap.Elapsed = &minute
	}
	snap.Statistics = joinStatistics(rec.Teams.Home.ID, rec.Teams.Away.ID, stats)

	return snap, nil
}

// joinStatistics assigns statistics to sides by team id, falling back to
// response order (home first) when ids do not match.
func joinStatistics(homeID, awayID int64, stats []apifootball.TeamStatistics) *models.MatchStatistics {
	if len(stats) == 0 {
		return nil
	}

	var homeStats, awayStats *apifootball.TeamStatistics
	for i := range stats {
		switch {
		case homeID != 0 && stats[i].Team.ID == homeID:
			homeStats = &stats[i]
		case awayID != 0 && stats[i].Team.ID == awayID:
			awayStats = &stats[i]
		}
	}
	if homeStats == nil && awayStats == nil {
		homeStats = &stats[0]
		if len(stats) > 1 {
			awayStats = &stats[1]
		}
	}

	out := &models.MatchStatistics{Home: models.TeamStats{}, Away: models.TeamStats{}}
	if homeStats != nil {
		out.Home = toTeamStats(homeStats.Statistics)
	}
	if awayStats != nil {
		out.Away = toTeamStats(awayStats.Statistics)
	}
	return out
}

func toTeamStats(entries []apifootball.StatEntry) models.TeamStats {
	ts := make(models.TeamStats, len(entries))
	for _, e := range entries {
		if e.Type == "" {
			continue
		}
		if v, ok := statValue(e.Value); ok {
			ts[e.Type] = v
		}
	}
	return ts
}

// statValue renders a provider value as text. Null values are dropped.
func statValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int:
		return strconv.Itoa(val), true
	default:
		return fmt.Sprint(val), true
	}
}
