package monitor

import "github.com/L1bertine/football-statbot/internal/models"

// AlertState remembers every (fixture, score) pair already alerted on during
// this process lifetime. It only grows. It is owned by the poll loop goroutine
// and is not safe for concurrent use.
type AlertState struct {
	seen map[models.AlertKey]struct{}
}

// NewAlertState returns an empty state.
func NewAlertState() *AlertState {
	return &AlertState{seen: make(map[models.AlertKey]struct{})}
}

// ShouldAlert reports whether key has not been recorded yet.
func (s *AlertState) ShouldAlert(key models.AlertKey) bool {
	_, ok := s.seen[key]
	return !ok
}

// Record marks key as alerted.
func (s *AlertState) Record(key models.AlertKey) {
	s.seen[key] = struct{}{}
}

// Len returns the number of recorded keys.
func (s *AlertState) Len() int {
	return len(s.seen)
}
