package models

import "time"

// Signal names a boolean predictive flag.
type Signal string

const (
	SignalOver25  Signal = "over25"
	SignalBTTS    Signal = "btts"
	SignalHomeWin Signal = "home_win"
	SignalDraw    Signal = "draw"
)

// FlagOrder is the order in which flag alerts are composed.
var FlagOrder = []Signal{SignalOver25, SignalBTTS, SignalHomeWin, SignalDraw}

// NextScorer is the predicted side to score next.
type NextScorer int

const (
	ScorerNone NextScorer = iota
	ScorerHome
	ScorerAway
)

func (n NextScorer) String() string {
	switch n {
	case ScorerHome:
		return "home"
	case ScorerAway:
		return "away"
	default:
		return "none"
	}
}

// Narrative is the single rule-based headline for a fixture.
type Narrative int

const (
	NarrativeNone Narrative = iota
	NarrativeIntenseTie
	NarrativeHomeDominance
	NarrativeAwayDominance
	NarrativeHomePressure
	NarrativeAwayPressure
)

// SignalSet is the outcome of evaluating one snapshot.
// A flag missing from Flags was not evaluated (its predictor failed) and must not alert.
type SignalSet struct {
	Flags       map[Signal]bool
	NextScorer  NextScorer
	HasNextGoal bool
	Narrative   Narrative
	RuleBased   bool
}

// NewSignalSet returns an empty set ready for Set calls.
func NewSignalSet() SignalSet {
	return SignalSet{Flags: make(map[Signal]bool, len(FlagOrder))}
}

// Set records an evaluated flag.
func (s *SignalSet) Set(sig Signal, v bool) {
	if s.Flags == nil {
		s.Flags = make(map[Signal]bool, len(FlagOrder))
	}
	s.Flags[sig] = v
}

// True reports whether the flag was evaluated and is true.
func (s SignalSet) True(sig Signal) bool {
	return s.Flags[sig]
}

// Evaluated reports whether the flag is present.
func (s SignalSet) Evaluated(sig Signal) bool {
	_, ok := s.Flags[sig]
	return ok
}

// SetNextScorer records an evaluated next goal prediction.
func (s *SignalSet) SetNextScorer(n NextScorer) {
	s.NextScorer = n
	s.HasNextGoal = true
}

// JournalEntry is one dispatched (or attempted) alert message.
type JournalEntry struct {
	ID        string    `json:"id"`
	FixtureID int64     `json:"fixture_id"`
	HomeGoals int       `json:"home_goals"`
	AwayGoals int       `json:"away_goals"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Message   string    `json:"message"`
	Sent      bool      `json:"sent"`
	CreatedAt time.Time `json:"created_at"`
}
