// Package monitor runs the poll loop: fetch live fixtures, evaluate, dedup,
// compose, and dispatch alerts within a time window and an API call budget.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/L1bertine/football-statbot/internal/apifootball"
	"github.com/L1bertine/football-statbot/internal/composer"
	"github.com/L1bertine/football-statbot/internal/logger"
	"github.com/L1bertine/football-statbot/internal/models"
	"github.com/L1bertine/football-statbot/internal/signal"
	"github.com/L1bertine/football-statbot/internal/snapshot"
)

const noticeTimeout = 15 * time.Second

// Fetcher retrieves live fixtures and per-fixture statistics.
type Fetcher interface {
	LiveFixtures(ctx context.Context, leagues []int) ([]apifootball.Record, error)
	Statistics(ctx context.Context, fixtureID int64) ([]apifootball.TeamStatistics, error)
}

// Dispatcher delivers one alert message.
type Dispatcher interface {
	Send(ctx context.Context, text string) error
}

// Notifier delivers operator notices about the loop itself.
type Notifier interface {
	SendError(ctx context.Context, cycleErr error) error
	SendRecovery(ctx context.Context, failureCount int) error
	SendShutdown(ctx context.Context, reason error) error
}

// Journal records dispatched alerts for audit.
type Journal interface {
	AddAlert(entry *models.JournalEntry) error
}

type Config struct {
	PollInterval    time.Duration
	IdleInterval    time.Duration
	Leagues         []int
	FetchStatistics bool
	StatsWorkers    int
}

func DefaultConfig() Config {
	return Config{
		PollInterval:    60 * time.Second,
		IdleInterval:    30 * time.Second,
		FetchStatistics: true,
		StatsWorkers:    4,
	}
}

// Deps are the collaborators of a Monitor. Dispatcher, Notifier and Journal
// are optional.
type Deps struct {
	Fetcher    Fetcher
	Evaluator  signal.Evaluator
	Composer   *composer.Composer
	Gate       *Gate
	Budget     *Budget
	Dispatcher Dispatcher
	Notifier   Notifier
	Journal    Journal
}

// Stats is a point-in-time view of loop counters.
type Stats struct {
	Active              bool          `json:"active"`
	Cycles              int           `json:"cycles"`
	IdleChecks          int           `json:"idle_checks"`
	LiveFixtures        int           `json:"live_fixtures"`
	InvalidRecords      int           `json:"invalid_records"`
	AlertsSent          int           `json:"alerts_sent"`
	SendFailures        int           `json:"send_failures"`
	AlertsLogged        int           `json:"alerts_logged"`
	TrackedKeys         int           `json:"tracked_keys"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	CallsUsed           int           `json:"calls_used"`
	CallsMax            int           `json:"calls_max"`
	LastCycleAt         time.Time     `json:"last_cycle_at"`
	LastCycleDuration   time.Duration `json:"last_cycle_duration"`
}

type Monitor struct {
	config Config
	deps   Deps
	state  *AlertState

	consecutiveFailures int
	fatalOnce           sync.Once

	mu    sync.RWMutex
	stats Stats

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

func New(config Config, deps Deps) *Monitor {
	if config.StatsWorkers < 1 {
		config.StatsWorkers = 1
	}
	return &Monitor{
		config: config,
		deps:   deps,
		state:  NewAlertState(),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Run polls until ctx is cancelled (returning nil) or a fatal condition is
// hit, in which case one shutdown notice is sent and the error is returned.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		if !m.deps.Gate.IsActive(m.now()) {
			m.markIdle()
			logger.Debug("Outside runtime window %s, sleeping %v", m.deps.Gate, m.config.IdleInterval)
			if !m.sleep(ctx, m.config.IdleInterval) {
				return nil
			}
			continue
		}

		if err := m.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return m.fail(ctx, err)
		}

		if !m.sleep(ctx, m.config.PollInterval) {
			return nil
		}
	}
}

type errorClass int

const (
	classTransient errorClass = iota
	classInvalidRecord
	classFatal
)

// classify maps any loop error to how the loop reacts to it.
func classify(err error) errorClass {
	switch {
	case models.IsFatal(err):
		return classFatal
	case errors.Is(err, models.ErrInvalidRecord):
		return classInvalidRecord
	default:
		return classTransient
	}
}

type candidate struct {
	raw  apifootball.Record
	snap models.MatchSnapshot
}

// RunCycle performs one active poll. Only fatal errors are returned; transient
// failures are logged and reported to the operator.
func (m *Monitor) RunCycle(ctx context.Context) error {
	start := m.now()
	logger.Info("Checking for live matches")

	if !m.deps.Budget.Allow() {
		return errors.Mark(
			errors.Newf("used %d of %d API calls", m.deps.Budget.Used(), m.deps.Budget.Max()),
			models.ErrBudgetExhausted)
	}

	records, err := m.deps.Fetcher.LiveFixtures(ctx, m.config.Leagues)
	if err != nil {
		if classify(err) == classFatal {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		m.onFetchFailure(ctx, err)
		m.finishCycle(start, 0, 0)
		return nil
	}
	m.onFetchSuccess(ctx)

	invalid := 0
	var pending []candidate
	for _, raw := range records {
		snap, err := snapshot.Build(raw, nil)
		if err != nil {
			if classify(err) == classInvalidRecord {
				invalid++
			}
			logger.Warn("Skipping fixture record: %v", err)
			continue
		}
		if !m.state.ShouldAlert(snap.Key()) {
			continue
		}
		pending = append(pending, candidate{raw: raw, snap: snap})
	}
	logger.Info("Fetched %d live fixtures, %d new score states", len(records), len(pending))

	var fatal error
	if m.config.FetchStatistics && m.deps.Evaluator.NeedsStatistics() && len(pending) > 0 {
		pending, fatal = m.attachStatistics(ctx, pending)
	}

	for _, c := range pending {
		if ctx.Err() != nil {
			return nil
		}
		m.processFixture(ctx, c.snap)
	}

	m.finishCycle(start, len(records), invalid)
	return fatal
}

type statsResult struct {
	index int
	stats []apifootball.TeamStatistics
	err   error
}

// attachStatistics fetches statistics for candidates in a bounded pool. Each
// call is charged to the budget. Candidates whose fetch failed are dropped
// for this cycle; the first fatal error is returned alongside the rest.
func (m *Monitor) attachStatistics(ctx context.Context, pending []candidate) ([]candidate, error) {
	p := pool.NewWithResults[statsResult]().WithMaxGoroutines(m.config.StatsWorkers)
	for i, c := range pending {
		p.Go(func() statsResult {
			if !m.deps.Budget.Allow() {
				return statsResult{index: i, err: errors.Mark(
					errors.Newf("statistics for fixture %d: used %d of %d API calls", c.snap.FixtureID, m.deps.Budget.Used(), m.deps.Budget.Max()),
					models.ErrBudgetExhausted)}
			}
			stats, err := m.deps.Fetcher.Statistics(ctx, c.snap.FixtureID)
			return statsResult{index: i, stats: stats, err: err}
		})
	}

	var fatal error
	kept := make([]candidate, 0, len(pending))
	byIndex := make(map[int]statsResult, len(pending))
	for _, r := range p.Wait() {
		byIndex[r.index] = r
	}
	for i, c := range pending {
		r := byIndex[i]
		if r.err != nil {
			if classify(r.err) == classFatal && fatal == nil {
				fatal = r.err
			}
			logger.Warn("Failed to fetch statistics for fixture %d: %v", c.snap.FixtureID, r.err)
			continue
		}
		snap, err := snapshot.Build(c.raw, r.stats)
		if err != nil {
			logger.Warn("Skipping fixture %d after statistics: %v", c.snap.FixtureID, err)
			continue
		}
		kept = append(kept, candidate{raw: c.raw, snap: snap})
	}
	return kept, fatal
}

// processFixture evaluates and alerts on one snapshot. A panic is contained
// to the fixture.
func (m *Monitor) processFixture(ctx context.Context, snap models.MatchSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while processing fixture %d: %v", snap.FixtureID, r)
		}
	}()

	set := m.deps.Evaluator.Evaluate(ctx, snap)
	msgs := m.deps.Composer.Compose(snap, set)
	if len(msgs) == 0 {
		return
	}

	// Recorded once dispatch ends, even after a failed send or a panic.
	defer m.recordKey(snap.Key())

	var sent, failed, logged int
	for _, msg := range msgs {
		outcome := m.dispatch(ctx, msg)
		m.mu.Lock()
		switch outcome {
		case outcomeSent:
			sent++
			m.stats.AlertsSent++
		case outcomeFailed:
			failed++
			m.stats.SendFailures++
		case outcomeLogged:
			logged++
			m.stats.AlertsLogged++
		}
		m.mu.Unlock()
		m.journal(snap, msg, outcome == outcomeSent)
	}

	logger.Info("Fixture %d (%s vs %s, %d-%d): %d alert(s) sent, %d failed, %d logged only",
		snap.FixtureID, snap.HomeTeam, snap.AwayTeam, snap.HomeGoals, snap.AwayGoals, sent, failed, logged)
}

func (m *Monitor) recordKey(key models.AlertKey) {
	m.state.Record(key)
	m.mu.Lock()
	m.stats.TrackedKeys = m.state.Len()
	m.mu.Unlock()
}

type dispatchOutcome int

const (
	outcomeSent dispatchOutcome = iota
	outcomeFailed
	// outcomeLogged means no dispatcher is configured.
	outcomeLogged
)

func (m *Monitor) dispatch(ctx context.Context, msg string) dispatchOutcome {
	if m.deps.Dispatcher == nil {
		logger.Info("Alert (dispatch disabled): %s", msg)
		return outcomeLogged
	}
	if err := m.deps.Dispatcher.Send(ctx, msg); err != nil {
		logger.Error("Failed to send alert: %v", err)
		return outcomeFailed
	}
	logger.Info("Sent alert: %s", msg)
	return outcomeSent
}

func (m *Monitor) journal(snap models.MatchSnapshot, msg string, sent bool) {
	if m.deps.Journal == nil {
		return
	}
	entry := &models.JournalEntry{
		ID:        uuid.New().String(),
		FixtureID: snap.FixtureID,
		HomeGoals: snap.HomeGoals,
		AwayGoals: snap.AwayGoals,
		HomeTeam:  snap.HomeTeam,
		AwayTeam:  snap.AwayTeam,
		Message:   msg,
		Sent:      sent,
		CreatedAt: m.now(),
	}
	if err := m.deps.Journal.AddAlert(entry); err != nil {
		logger.Warn("Failed to journal alert for fixture %d: %v", snap.FixtureID, err)
	}
}

// onFetchFailure notifies on the first failure of a consecutive run.
func (m *Monitor) onFetchFailure(ctx context.Context, err error) {
	m.consecutiveFailures++
	logger.Error("Fetching live fixtures failed: %v", err)
	if m.consecutiveFailures == 1 && m.deps.Notifier != nil {
		if sendErr := m.deps.Notifier.SendError(ctx, err); sendErr != nil {
			logger.Warn("Failed to send error notification: %v", sendErr)
		}
	}
	m.mu.Lock()
	m.stats.ConsecutiveFailures = m.consecutiveFailures
	m.mu.Unlock()
}

func (m *Monitor) onFetchSuccess(ctx context.Context) {
	if m.consecutiveFailures > 0 && m.deps.Notifier != nil {
		if sendErr := m.deps.Notifier.SendRecovery(ctx, m.consecutiveFailures); sendErr != nil {
			logger.Warn("Failed to send recovery notification: %v", sendErr)
		}
	}
	m.consecutiveFailures = 0
	m.mu.Lock()
	m.stats.ConsecutiveFailures = 0
	m.mu.Unlock()
}

// fail sends the one-time shutdown notice and returns err.
func (m *Monitor) fail(ctx context.Context, err error) error {
	m.fatalOnce.Do(func() {
		logger.Error("Stopping monitor: %v", err)
		if m.deps.Notifier == nil {
			return
		}
		noticeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), noticeTimeout)
		defer cancel()
		if sendErr := m.deps.Notifier.SendShutdown(noticeCtx, err); sendErr != nil {
			logger.Warn("Failed to send shutdown notification: %v", sendErr)
		}
	})
	return err
}

func (m *Monitor) markIdle() {
	m.mu.Lock()
	m.stats.Active = false
	m.stats.IdleChecks++
	m.mu.Unlock()
}

func (m *Monitor) finishCycle(start time.Time, live, invalid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Active = true
	m.stats.Cycles++
	m.stats.LiveFixtures = live
	m.stats.InvalidRecords += invalid
	m.stats.LastCycleAt = start
	m.stats.LastCycleDuration = m.now().Sub(start)
	logger.Debug("Monitoring cycle completed in %v", m.stats.LastCycleDuration)
}

// Stats returns a copy of the loop counters. Safe for concurrent use.
func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	s := m.stats
	m.mu.RUnlock()
	s.CallsUsed = m.deps.Budget.Used()
	s.CallsMax = m.deps.Budget.Max()
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Summary renders the counters as a short plain-text report.
func (s Stats) Summary() string {
	state := "idle (outside window)"
	if s.Active {
		state = "active"
	}
	last := "never"
	if !s.LastCycleAt.IsZero() {
		last = s.LastCycleAt.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("Statbot is %s\nCycles: %d, last at %s\nLive fixtures: %d\nAlerts sent: %d (%d failed, %d logged only)\nAPI calls: %d/%d",
		state, s.Cycles, last, s.LiveFixtures, s.AlertsSent, s.SendFailures, s.AlertsLogged, s.CallsUsed, s.CallsMax)
}
