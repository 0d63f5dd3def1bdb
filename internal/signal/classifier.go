package signal

import (
	"context"

	"github.com/L1bertine/football-statbot/internal/classifier"
	"github.com/L1bertine/football-statbot/internal/logger"
	"github.com/L1bertine/football-statbot/internal/models"
)

// Classifier is the predictive-model strategy.
type Classifier struct {
	models classifier.Set
}

// NewClassifier creates a classifier-based evaluator.
func NewClassifier(set classifier.Set) *Classifier {
	return &Classifier{models: set}
}

func (c *Classifier) NeedsStatistics() bool { return false }

// Evaluate runs each predictor independently. A predictor that errors or
// panics only drops its own signal.
func (c *Classifier) Evaluate(ctx context.Context, snap models.MatchSnapshot) models.SignalSet {
	set := models.NewSignalSet()

	outcome := []float64{float64(snap.HomeGoals), float64(snap.AwayGoals)}
	flags := []struct {
		signal models.Signal
		name   string
		model  classifier.Predictor
	}{
		{models.SignalOver25, classifier.ModelOver25, c.models.Over25},
		{models.SignalBTTS, classifier.ModelBTTS, c.models.BTTS},
		{models.SignalHomeWin, classifier.ModelHomeWin, c.models.HomeWin},
		{models.SignalDraw, classifier.ModelDraw, c.models.Draw},
	}
	for _, f := range flags {
		if label, ok := c.predict(ctx, snap.FixtureID, f.name, f.model, outcome); ok {
			set.Set(f.signal, label != 0)
		}
	}

	nextGoal := []float64{float64(snap.Minute()), float64(snap.GoalDiff())}
	if label, ok := c.predict(ctx, snap.FixtureID, classifier.ModelNextGoal, c.models.NextGoal, nextGoal); ok {
		switch label {
		case 1:
			set.SetNextScorer(models.ScorerHome)
		case 2:
			set.SetNextScorer(models.ScorerAway)
		default:
			set.SetNextScorer(models.ScorerNone)
		}
	}

	return set
}

func (c *Classifier) predict(ctx context.Context, fixtureID int64, name string, p classifier.Predictor, features []float64) (label int, ok bool) {
	if p == nil {
		return 0, false
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Predictor %s panicked on fixture %d: %v", name, fixtureID, r)
			label, ok = 0, false
		}
	}()

	label, err := p.Predict(ctx, features)
	if err != nil {
		logger.Warn("Predictor %s failed on fixture %d: %v", name, fixtureID, err)
		return 0, false
	}
	return label, true
}
