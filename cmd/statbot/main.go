// Command statbot watches live football fixtures and posts statistical alerts
// to Telegram.
//
// Usage:
//
//	statbot run --config configs/config.yaml
//	statbot check
//	statbot ping
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/L1bertine/football-statbot/internal/config"
	"github.com/L1bertine/football-statbot/internal/logger"
	"github.com/L1bertine/football-statbot/internal/monitor"
	"github.com/L1bertine/football-statbot/internal/status"
	"github.com/L1bertine/football-statbot/internal/storage"
	"github.com/L1bertine/football-statbot/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load(".env")

	var configPath string
	root := &cobra.Command{
		Use:           "statbot",
		Short:         "Live football statistics alert bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to configuration file")

	root.AddCommand(runCmd(&configPath))
	root.AddCommand(checkCmd(&configPath))
	root.AddCommand(pingCmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	_ = logger.Sync()
}

// loadConfig reads, validates, and applies the logging section.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		// Fall back to defaults and environment when no file is present.
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll live fixtures and dispatch alerts until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger.Info("Configuration loaded from %s", *configPath)
			return run(cfg)
		},
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	evaluator, err := buildEvaluator(cfg)
	if err != nil {
		return err
	}
	gate, err := monitor.NewGate(cfg.Monitor.WindowStart, cfg.Monitor.WindowEnd, cfg.Monitor.Timezone)
	if err != nil {
		return err
	}

	deps := monitor.Deps{
		Fetcher:   newFootballClient(cfg),
		Evaluator: evaluator,
		Composer:  buildComposer(cfg),
		Gate:      gate,
		Budget:    monitor.NewBudget(cfg.Monitor.MaxCalls),
	}

	var store *storage.Storage
	if cfg.Storage.Enabled {
		store, err = storage.New(cfg.Storage.MaxAlerts, cfg.Storage.DBPath)
		if err != nil {
			return errors.Wrap(err, "failed to initialize storage")
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close storage: %v", err)
			}
		}()
		if err := store.RotateAlerts(); err != nil {
			logger.Warn("Failed to rotate alerts: %v", err)
		}
		deps.Journal = store
	}

	var tg *telegram.Client
	if cfg.Telegram.Enabled {
		tg, err = newTelegramClient(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to initialize Telegram client")
		}
		deps.Dispatcher = tg
		deps.Notifier = tg
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Info("Telegram notifications disabled; alerts will only be logged")
	}

	mon := monitor.New(monitorConfig(cfg), deps)

	if cfg.Status.Enabled {
		var alerts status.AlertReader
		if store != nil {
			alerts = store
		}
		srv := status.New(cfg.Status.Addr, mon, alerts)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to stop status server: %v", err)
			}
		}()
	}

	if tg != nil {
		tg.ListenForCommands(ctx, func() string { return mon.Stats().Summary() })
		announceStartup(ctx, tg, gate, time.Now(), cfg.Telegram.StartupMessage)
	}

	logger.Info("Starting monitoring service (strategy: %s, mode: %s, interval: %v, window: %s, max_calls: %d)",
		cfg.Monitor.Strategy, cfg.Monitor.Mode, cfg.Monitor.PollInterval, gate, cfg.Monitor.MaxCalls)

	if err := mon.Run(ctx); err != nil {
		return errors.Wrap(err, "monitor stopped")
	}
	logger.Info("Service stopped")
	return nil
}

func checkCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if _, err := buildEvaluator(cfg); err != nil {
				return err
			}
			gate, err := monitor.NewGate(cfg.Monitor.WindowStart, cfg.Monitor.WindowEnd, cfg.Monitor.Timezone)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK\n")
			fmt.Fprintf(out, "  strategy:      %s\n", cfg.Monitor.Strategy)
			fmt.Fprintf(out, "  mode:          %s\n", cfg.Monitor.Mode)
			fmt.Fprintf(out, "  window:        %s (active now: %t)\n", gate, gate.IsActive(time.Now()))
			fmt.Fprintf(out, "  poll interval: %v\n", cfg.Monitor.PollInterval)
			fmt.Fprintf(out, "  max calls:     %d\n", cfg.Monitor.MaxCalls)
			fmt.Fprintf(out, "  leagues:       %s\n", leaguesLabel(cfg.Football.Leagues))
			fmt.Fprintf(out, "  telegram:      %t\n", cfg.Telegram.Enabled)
			fmt.Fprintf(out, "  journal:       %t\n", cfg.Storage.Enabled)
			return nil
		},
	}
}

func pingCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Send a test message to the configured Telegram chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			tg, err := newTelegramClient(cfg)
			if err != nil {
				return errors.Wrap(err, "failed to initialize Telegram client")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := tg.Send(ctx, "🏓 Statbot test message"); err != nil {
				return errors.Wrap(err, "failed to send test message")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test message sent")
			return nil
		},
	}
}
