// Package signal evaluates match snapshots into signal sets.
package signal

import (
	"context"

	"github.com/L1bertine/football-statbot/internal/models"
)

// Evaluator turns one snapshot into a signal set. Implementations never fail
// as a whole: a signal that cannot be evaluated is left out of the set.
type Evaluator interface {
	Evaluate(ctx context.Context, snap models.MatchSnapshot) models.SignalSet
	// NeedsStatistics reports whether Evaluate reads snap.Statistics.
	NeedsStatistics() bool
}
