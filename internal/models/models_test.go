package models

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func intPtr(v int) *int { return &v }

func TestMatchSnapshotMinute(t *testing.T) {
	tests := []struct {
		name    string
		elapsed *int
		want    int
	}{
		{name: "not started", elapsed: nil, want: 0},
		{name: "first half", elapsed: intPtr(23), want: 23},
		{name: "stoppage", elapsed: intPtr(90), want: 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MatchSnapshot{Elapsed: tt.elapsed}
			if got := s.Minute(); got != tt.want {
				t.Errorf("Minute() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMatchSnapshotKey(t *testing.T) {
	s := MatchSnapshot{FixtureID: 1035, HomeTeam: "A", AwayTeam: "B", HomeGoals: 2, AwayGoals: 1}
	want := AlertKey{FixtureID: 1035, HomeGoals: 2, AwayGoals: 1}
	if got := s.Key(); got != want {
		t.Errorf("Key() = %+v, want %+v", got, want)
	}
	if got := s.Key().String(); got != "1035_2_1" {
		t.Errorf("Key().String() = %q, want %q", got, "1035_2_1")
	}

	s.AwayGoals = 2
	if s.Key() == want {
		t.Error("key should change when the score changes")
	}
}

func TestTeamStatsNumber(t *testing.T) {
	ts := TeamStats{
		StatShotsOnGoal:    "7",
		StatBallPossession: "65%",
		StatCornerKicks:    "",
		"Passes %":         " 81% ",
		"Fouls":            "n/a",
	}
	tests := []struct {
		name string
		key  string
		want float64
	}{
		{name: "plain integer", key: StatShotsOnGoal, want: 7},
		{name: "percentage", key: StatBallPossession, want: 65},
		{name: "empty value", key: StatCornerKicks, want: 0},
		{name: "padded percentage", key: "Passes %", want: 81},
		{name: "unparsable", key: "Fouls", want: 0},
		{name: "absent", key: "Offsides", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ts.Number(tt.key); got != tt.want {
				t.Errorf("Number(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}

	var nilStats TeamStats
	if got := nilStats.Percent(StatBallPossession); got != 0 {
		t.Errorf("nil stats Percent = %v, want 0", got)
	}
}

func TestSignalSet(t *testing.T) {
	var s SignalSet
	if s.Evaluated(SignalBTTS) {
		t.Error("zero set should have no evaluated flags")
	}
	s.Set(SignalBTTS, false)
	s.Set(SignalDraw, true)
	if !s.Evaluated(SignalBTTS) || s.True(SignalBTTS) {
		t.Error("BTTS should be evaluated and false")
	}
	if !s.True(SignalDraw) {
		t.Error("Draw should be true")
	}
	if s.HasNextGoal {
		t.Error("next goal should be absent until set")
	}
	s.SetNextScorer(ScorerAway)
	if !s.HasNextGoal || s.NextScorer != ScorerAway {
		t.Errorf("next scorer = %v (present %v), want away", s.NextScorer, s.HasNextGoal)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "invalid record", err: errors.Mark(errors.New("x"), ErrInvalidRecord), want: false},
		{name: "suspended", err: errors.Wrap(ErrSuspended, "fetch"), want: true},
		{name: "budget marked", err: errors.Mark(errors.New("limit"), ErrBudgetExhausted), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
