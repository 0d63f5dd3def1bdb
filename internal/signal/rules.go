package signal

import (
	"context"

	"github.com/L1bertine/football-statbot/internal/models"
)

// Thresholds configures the rule-based strategy.
type Thresholds struct {
	TieShotsOnGoal      float64 // combined shots on goal for a high-intensity tie
	DominancePossession float64 // possession %, strictly exceeded
	DominanceShots      float64 // shots on goal, strictly exceeded
	PressureCorners     float64
	OverShotsOnGoal     float64
	BTTSShotsOnGoal     float64 // per side
	HomeWinPossession   float64
	DrawMinMinute       int
	DrawMaxShotsOnGoal  float64 // combined, strictly below
}

// DefaultThresholds returns the stock rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TieShotsOnGoal:      8,
		DominancePossession: 65,
		DominanceShots:      6,
		PressureCorners:     6,
		OverShotsOnGoal:     10,
		BTTSShotsOnGoal:     4,
		HomeWinPossession:   55,
		DrawMinMinute:       80,
		DrawMaxShotsOnGoal:  4,
	}
}

// Rules is the statistics-threshold strategy.
type Rules struct {
	th Thresholds
}

// NewRules creates a rule-based evaluator.
func NewRules(th Thresholds) *Rules {
	return &Rules{th: th}
}

func (r *Rules) NeedsStatistics() bool { return true }

// Evaluate picks at most one narrative by priority and sets the independent
// flags. Without statistics only the fallback scoreline is eligible.
func (r *Rules) Evaluate(_ context.Context, snap models.MatchSnapshot) models.SignalSet {
	set := models.NewSignalSet()
	set.RuleBased = true

	stats := snap.Statistics
	if stats == nil {
		return set
	}

	homeSOG := stats.Home.Number(models.StatShotsOnGoal)
	awaySOG := stats.Away.Number(models.StatShotsOnGoal)
	homePoss := stats.Home.Percent(models.StatBallPossession)
	awayPoss := stats.Away.Percent(models.StatBallPossession)
	tied := snap.HomeGoals == snap.AwayGoals

	set.Narrative = r.narrative(tied, homeSOG, awaySOG, homePoss, awayPoss,
		stats.Home.Number(models.StatCornerKicks), stats.Away.Number(models.StatCornerKicks))

	set.Set(models.SignalOver25, snap.TotalGoals() < 3 && homeSOG+awaySOG >= r.th.OverShotsOnGoal)
	set.Set(models.SignalBTTS, (snap.HomeGoals == 0 || snap.AwayGoals == 0) &&
		homeSOG >= r.th.BTTSShotsOnGoal && awaySOG >= r.th.BTTSShotsOnGoal)
	set.Set(models.SignalHomeWin, snap.HomeGoals > snap.AwayGoals && homePoss >= r.th.HomeWinPossession)
	set.Set(models.SignalDraw, tied && snap.Minute() >= r.th.DrawMinMinute && homeSOG+awaySOG < r.th.DrawMaxShotsOnGoal)

	return set
}

func (r *Rules) narrative(tied bool, homeSOG, awaySOG, homePoss, awayPoss, homeCorners, awayCorners float64) models.Narrative {
	switch {
	case tied && homeSOG+awaySOG >= r.th.TieShotsOnGoal:
		return models.NarrativeIntenseTie
	case homePoss > r.th.DominancePossession && homeSOG > r.th.DominanceShots:
		return models.NarrativeHomeDominance
	case awayPoss > r.th.DominancePossession && awaySOG > r.th.DominanceShots:
		return models.NarrativeAwayDominance
	case homeCorners >= r.th.PressureCorners:
		return models.NarrativeHomePressure
	case awayCorners >= r.th.PressureCorners:
		return models.NarrativeAwayPressure
	default:
		return models.NarrativeNone
	}
}
