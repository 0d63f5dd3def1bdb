// Package composer renders signal sets into outbound alert messages.
package composer

import (
	"fmt"
	"strconv"

	"github.com/L1bertine/football-statbot/internal/models"
)

// Mode selects how many messages a snapshot may produce.
type Mode string

const (
	// ModeIndependent emits one message per true signal.
	ModeIndependent Mode = "independent"
	// ModeNarrative emits only the highest-priority message.
	ModeNarrative Mode = "narrative"
)

// Composer is a pure function of (snapshot, signals) to messages.
type Composer struct {
	mode Mode
}

// New creates a composer. Unknown modes fall back to independent.
func New(mode Mode) *Composer {
	if mode != ModeNarrative {
		mode = ModeIndependent
	}
	return &Composer{mode: mode}
}

// Mode returns the active mode.
func (c *Composer) Mode() Mode { return c.mode }

// Compose returns messages in a fixed order: narrative, Over 2.5, BTTS, home
// win, draw, next goal, then the fallback scoreline when a rule-based set
// produced no narrative. An empty result means nothing to alert.
func (c *Composer) Compose(snap models.MatchSnapshot, set models.SignalSet) []string {
	var msgs []string

	if set.Narrative != models.NarrativeNone {
		msgs = append(msgs, narrativeMessage(snap, set.Narrative))
	}

	for _, sig := range models.FlagOrder {
		if set.True(sig) {
			msgs = append(msgs, flagMessage(snap, sig))
		}
	}

	if set.HasNextGoal {
		switch set.NextScorer {
		case models.ScorerHome:
			msgs = append(msgs, fmt.Sprintf("🔮 Next Goal Prediction: %s likely to score next!", snap.HomeTeam))
		case models.ScorerAway:
			msgs = append(msgs, fmt.Sprintf("🔮 Next Goal Prediction: %s likely to score next!", snap.AwayTeam))
		}
	}

	if set.RuleBased && set.Narrative == models.NarrativeNone {
		msgs = append(msgs, scoreline(snap))
	}

	if c.mode == ModeNarrative && len(msgs) > 1 {
		msgs = msgs[:1]
	}
	return msgs
}

func flagMessage(snap models.MatchSnapshot, sig models.Signal) string {
	switch sig {
	case models.SignalOver25:
		return fmt.Sprintf("🔥 %s vs %s: Expected Over 2.5 Goals!", snap.HomeTeam, snap.AwayTeam)
	case models.SignalBTTS:
		return fmt.Sprintf("⚔️ %s vs %s: BTTS Likely!", snap.HomeTeam, snap.AwayTeam)
	case models.SignalHomeWin:
		return fmt.Sprintf("🏠 %s vs %s: Home Win Expected!", snap.HomeTeam, snap.AwayTeam)
	case models.SignalDraw:
		return fmt.Sprintf("⚖️ %s vs %s: Draw is on the cards!", snap.HomeTeam, snap.AwayTeam)
	default:
		return fmt.Sprintf("%s vs %s: %s", snap.HomeTeam, snap.AwayTeam, sig)
	}
}

func narrativeMessage(snap models.MatchSnapshot, n models.Narrative) string {
	var home, away models.TeamStats
	if snap.Statistics != nil {
		home, away = snap.Statistics.Home, snap.Statistics.Away
	}

	switch n {
	case models.NarrativeIntenseTie:
		shots := home.Number(models.StatShotsOnGoal) + away.Number(models.StatShotsOnGoal)
		return fmt.Sprintf("⚡ %s vs %s: High intensity despite the %d-%d tie%s! %s shots on goal combined.",
			snap.HomeTeam, snap.AwayTeam, snap.HomeGoals, snap.AwayGoals, minuteSuffix(snap), num(shots))
	case models.NarrativeHomeDominance:
		return dominance(snap, snap.HomeTeam, home)
	case models.NarrativeAwayDominance:
		return dominance(snap, snap.AwayTeam, away)
	case models.NarrativeHomePressure:
		return pressure(snap, snap.HomeTeam, home)
	case models.NarrativeAwayPressure:
		return pressure(snap, snap.AwayTeam, away)
	default:
		return scoreline(snap)
	}
}

func dominance(snap models.MatchSnapshot, team string, ts models.TeamStats) string {
	return fmt.Sprintf("💪 %s dominating (%s %d-%d %s%s): %s%% possession, %s shots on goal.",
		team, snap.HomeTeam, snap.HomeGoals, snap.AwayGoals, snap.AwayTeam, minuteSuffix(snap),
		num(ts.Percent(models.StatBallPossession)), num(ts.Number(models.StatShotsOnGoal)))
}

func pressure(snap models.MatchSnapshot, team string, ts models.TeamStats) string {
	return fmt.Sprintf("🚩 %s piling on pressure (%s %d-%d %s%s): %s corners.",
		team, snap.HomeTeam, snap.HomeGoals, snap.AwayGoals, snap.AwayTeam, minuteSuffix(snap),
		num(ts.Number(models.StatCornerKicks)))
}

func scoreline(snap models.MatchSnapshot) string {
	switch {
	case snap.HomeGoals > snap.AwayGoals:
		return fmt.Sprintf("📊 %s lead %s %d-%d%s.", snap.HomeTeam, snap.AwayTeam, snap.HomeGoals, snap.AwayGoals, minuteSuffix(snap))
	case snap.AwayGoals > snap.HomeGoals:
		return fmt.Sprintf("📊 %s lead %s %d-%d away from home%s.", snap.AwayTeam, snap.HomeTeam, snap.AwayGoals, snap.HomeGoals, minuteSuffix(snap))
	default:
		return fmt.Sprintf("📊 %s and %s level at %d-%d%s.", snap.HomeTeam, snap.AwayTeam, snap.HomeGoals, snap.AwayGoals, minuteSuffix(snap))
	}
}

func minuteSuffix(snap models.MatchSnapshot) string {
	if snap.Elapsed == nil {
		return ""
	}
	return ", " + strconv.Itoa(*snap.Elapsed) + "'"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
