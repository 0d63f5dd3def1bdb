package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/L1bertine/football-statbot/internal/apifootball"
	"github.com/L1bertine/football-statbot/internal/classifier"
	"github.com/L1bertine/football-statbot/internal/composer"
	"github.com/L1bertine/football-statbot/internal/config"
	"github.com/L1bertine/football-statbot/internal/logger"
	"github.com/L1bertine/football-statbot/internal/monitor"
	"github.com/L1bertine/football-statbot/internal/signal"
	"github.com/L1bertine/football-statbot/internal/telegram"
)

func newFootballClient(cfg *config.Config) *apifootball.Client {
	return apifootball.NewClient(
		cfg.Football.APIBaseURL,
		cfg.Football.APIKey,
		cfg.Football.Timeout,
		apifootball.ClientConfig{
			MaxRetries:        cfg.Football.MaxRetries,
			RetryDelayBase:    cfg.Football.RetryDelayBase,
			RequestsPerMinute: cfg.Football.RequestsPerMinute,
		},
	)
}

func newTelegramClient(cfg *config.Config) (*telegram.Client, error) {
	return telegram.NewClient(
		cfg.Telegram.BotToken,
		cfg.Telegram.ChatID,
		cfg.Telegram.MaxRetries,
		cfg.Telegram.RetryDelayBase,
		cfg.Telegram.SendInterval,
	)
}

// buildEvaluator selects the evaluation strategy.
func buildEvaluator(cfg *config.Config) (signal.Evaluator, error) {
	switch cfg.Monitor.Strategy {
	case config.StrategyClassifier:
		set, err := classifier.Build(cfg.Classifier)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build classifier models")
		}
		return signal.NewClassifier(set), nil
	default:
		return signal.NewRules(thresholds(cfg.Rules)), nil
	}
}

func thresholds(r config.RulesConfig) signal.Thresholds {
	return signal.Thresholds{
		TieShotsOnGoal:      r.TieShotsOnGoal,
		DominancePossession: r.DominancePossession,
		DominanceShots:      r.DominanceShots,
		PressureCorners:     r.PressureCorners,
		OverShotsOnGoal:     r.OverShotsOnGoal,
		BTTSShotsOnGoal:     r.BTTSShotsOnGoal,
		HomeWinPossession:   r.HomeWinPossession,
		DrawMinMinute:       r.DrawMinMinute,
		DrawMaxShotsOnGoal:  r.DrawMaxShotsOnGoal,
	}
}

func buildComposer(cfg *config.Config) *composer.Composer {
	return composer.New(composer.Mode(cfg.Monitor.Mode))
}

func monitorConfig(cfg *config.Config) monitor.Config {
	return monitor.Config{
		PollInterval:    cfg.Monitor.PollInterval,
		IdleInterval:    cfg.Monitor.IdleInterval,
		Leagues:         cfg.Football.Leagues,
		FetchStatistics: cfg.Football.FetchStatistics,
		StatsWorkers:    cfg.Monitor.StatsWorkers,
	}
}

func leaguesLabel(leagues []int) string {
	if len(leagues) == 0 {
		return "all"
	}
	ids := make([]string, len(leagues))
	for i, id := range leagues {
		ids[i] = strconv.Itoa(id)
	}
	return strings.Join(ids, ", ")
}

type startupSender interface {
	SendStartup(ctx context.Context, text string) error
}

// announceStartup sends the startup message only while the runtime window is
// open; outside it nothing is posted to the chat.
func announceStartup(ctx context.Context, tg startupSender, gate *monitor.Gate, now time.Time, text string) bool {
	if text == "" {
		return false
	}
	if !gate.IsActive(now) {
		logger.Info("Outside runtime window %s, skipping startup message", gate)
		return false
	}
	if err := tg.SendStartup(ctx, text); err != nil {
		logger.Warn("Failed to send startup message: %v", err)
		return false
	}
	return true
}
