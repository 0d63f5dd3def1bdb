// Package classifier implements predict(features) -> label backends for the
// classifier-based evaluation strategy.
package classifier

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/L1bertine/football-statbot/internal/config"
)

// Model names.
const (
	ModelBTTS     = "btts"
	ModelHomeWin  = "home_win"
	ModelDraw     = "draw"
	ModelOver25   = "over25"
	ModelNextGoal = "next_goal"
)

// Predictor maps one feature vector to a class label.
type Predictor interface {
	Predict(ctx context.Context, features []float64) (int, error)
}

// Func adapts a plain function to Predictor.
type Func func(ctx context.Context, features []float64) (int, error)

func (f Func) Predict(ctx context.Context, features []float64) (int, error) {
	return f(ctx, features)
}

// Set holds the five predictors used by the classifier strategy.
type Set struct {
	BTTS     Predictor
	HomeWin  Predictor
	Draw     Predictor
	Over25   Predictor
	NextGoal Predictor
}

// Logistic is a binary linear model: label 1 when sigmoid(w·x + b) >= Threshold.
type Logistic struct {
	Weights   []float64
	Bias      float64
	Threshold float64
}

func (m Logistic) Predict(_ context.Context, features []float64) (int, error) {
	z, err := dot(m.Weights, m.Bias, features)
	if err != nil {
		return 0, err
	}
	threshold := m.Threshold
	if threshold <= 0 {
		threshold = 0.5
	}
	if sigmoid(z) >= threshold {
		return 1, nil
	}
	return 0, nil
}

// Class is one row of a multiclass linear model.
type Class struct {
	Label   int
	Weights []float64
	Bias    float64
}

// Softmax is a multiclass linear model returning the label with the highest score.
type Softmax struct {
	Classes []Class
}

func (m Softmax) Predict(_ context.Context, features []float64) (int, error) {
	if len(m.Classes) == 0 {
		return 0, errors.New("softmax model has no classes")
	}
	best, bestScore := 0, math.Inf(-1)
	for _, c := range m.Classes {
		z, err := dot(c.Weights, c.Bias, features)
		if err != nil {
			return 0, errors.Wrapf(err, "class %d", c.Label)
		}
		if z > bestScore {
			best, bestScore = c.Label, z
		}
	}
	return best, nil
}

func dot(weights []float64, bias float64, features []float64) (float64, error) {
	if len(weights) != len(features) {
		return 0, errors.Newf("feature length %d does not match %d weights", len(features), len(weights))
	}
	z := bias
	for i, w := range weights {
		z += w * features[i]
	}
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, errors.New("non-finite model score")
	}
	return z, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Build constructs the predictor set from configuration.
func Build(cfg config.ClassifierConfig) (Set, error) {
	if cfg.Backend == config.BackendRemote {
		r := NewRemote(cfg.RemoteURL, cfg.Timeout)
		return Set{
			BTTS:     r.Model(ModelBTTS),
			HomeWin:  r.Model(ModelHomeWin),
			Draw:     r.Model(ModelDraw),
			Over25:   r.Model(ModelOver25),
			NextGoal: r.Model(ModelNextGoal),
		}, nil
	}

	binary := func(name string) (Predictor, error) {
		m, ok := cfg.Models[name]
		if !ok {
			return nil, errors.Newf("model %q not configured", name)
		}
		return Logistic{Weights: m.Weights, Bias: m.Bias, Threshold: m.Threshold}, nil
	}

	var set Set
	var err error
	if set.BTTS, err = binary(ModelBTTS); err != nil {
		return Set{}, err
	}
	if set.HomeWin, err = binary(ModelHomeWin); err != nil {
		return Set{}, err
	}
	if set.Draw, err = binary(ModelDraw); err != nil {
		return Set{}, err
	}
	if set.Over25, err = binary(ModelOver25); err != nil {
		return Set{}, err
	}

	ng, ok := cfg.Models[ModelNextGoal]
	if !ok {
		return Set{}, errors.Newf("model %q not configured", ModelNextGoal)
	}
	classes := make([]Class, len(ng.Classes))
	for i, c := range ng.Classes {
		classes[i] = Class{Label: c.Label, Weights: c.Weights, Bias: c.Bias}
	}
	set.NextGoal = Softmax{Classes: classes}

	return set, nil
}
