package config

import (
	"os"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func clearLegacyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"API_KEY", "TELEGRAM_BOT_TOKEN", "CHAT_ID",
		"STATBOT_FOOTBALL_API_KEY", "STATBOT_TELEGRAM_BOT_TOKEN", "STATBOT_TELEGRAM_CHAT_ID"} {
		t.Setenv(name, "")
	}
}

func TestLoadAndValidate(t *testing.T) {
	clearLegacyEnv(t)
	path := writeTempConfig(t, `
football:
  api_key: "test_key"
  leagues: [39, 140]

monitor:
  poll_interval: 60s
  idle_interval: 30s
  max_calls: 90
  window_start: "12:00"
  window_end: "23:30"
  timezone: "Europe/London"
  strategy: classifier
  mode: narrative

classifier:
  backend: linear
  models:
    btts:
      weights: [0.8, 0.8]
      bias: -1.2
    home_win:
      weights: [1.1, -1.1]
      bias: 0.1
    draw:
      weights: [-0.5, -0.5]
      bias: 0.4
    over25:
      weights: [0.9, 0.9]
      bias: -1.5
      threshold: 0.6
    next_goal:
      classes:
        - label: 0
          weights: [0.02, 0.0]
          bias: 0.0
        - label: 1
          weights: [0.0, -0.4]
          bias: 0.2
        - label: 2
          weights: [0.0, 0.4]
          bias: 0.2

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

storage:
  db_path: "./data/test.db"

logging:
  level: "info"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Football.APIKey != "test_key" {
		t.Errorf("Unexpected api key: %q", cfg.Football.APIKey)
	}
	if len(cfg.Football.Leagues) != 2 || cfg.Football.Leagues[0] != 39 {
		t.Errorf("Unexpected leagues: %v", cfg.Football.Leagues)
	}
	if cfg.Monitor.PollInterval != time.Minute {
		t.Errorf("Unexpected poll interval: %v", cfg.Monitor.PollInterval)
	}
	if cfg.Monitor.IdleInterval != 30*time.Second {
		t.Errorf("Unexpected idle interval: %v", cfg.Monitor.IdleInterval)
	}
	if cfg.Monitor.Mode != ModeNarrative {
		t.Errorf("Unexpected mode: %s", cfg.Monitor.Mode)
	}
	if got := cfg.Classifier.Models["over25"].Threshold; got != 0.6 {
		t.Errorf("Unexpected over25 threshold: %v", got)
	}
	if got := len(cfg.Classifier.Models["next_goal"].Classes); got != 3 {
		t.Errorf("Expected 3 next_goal classes, got %d", got)
	}

	// Defaults
	if cfg.Football.APIBaseURL != "https://v3.football.api-sports.io" {
		t.Errorf("Unexpected base URL default: %s", cfg.Football.APIBaseURL)
	}
	if cfg.Rules.TieShotsOnGoal != 8 || cfg.Rules.DominancePossession != 65 {
		t.Errorf("Unexpected rule defaults: %+v", cfg.Rules)
	}
	if cfg.Storage.MaxAlerts != 5000 {
		t.Errorf("Unexpected max alerts default: %d", cfg.Storage.MaxAlerts)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	clearLegacyEnv(t)
	t.Setenv("API_KEY", "env_key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env_token")
	t.Setenv("CHAT_ID", "-100200")
	t.Setenv("STATBOT_MONITOR_MAX_CALLS", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Football.APIKey != "env_key" {
		t.Errorf("api key = %q, want env_key", cfg.Football.APIKey)
	}
	if cfg.Telegram.BotToken != "env_token" || cfg.Telegram.ChatID != "-100200" {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
	if cfg.Monitor.MaxCalls != 7 {
		t.Errorf("max calls = %d, want 7", cfg.Monitor.MaxCalls)
	}
	if cfg.Monitor.IdleInterval >= cfg.Monitor.PollInterval {
		t.Errorf("default idle interval %v should be shorter than poll interval %v",
			cfg.Monitor.IdleInterval, cfg.Monitor.PollInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadExampleConfig(t *testing.T) {
	clearLegacyEnv(t)
	t.Setenv("API_KEY", "env_key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env_token")
	t.Setenv("CHAT_ID", "42")

	cfg, err := Load("../../configs/config.example.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Football.RetryDelayBase != 2*time.Second {
		t.Errorf("retry delay = %v, want 2s", cfg.Football.RetryDelayBase)
	}
	if len(cfg.Classifier.Models["next_goal"].Classes) != 3 {
		t.Errorf("next_goal classes = %+v", cfg.Classifier.Models["next_goal"])
	}

	cfg.Monitor.Strategy = StrategyClassifier
	if err := cfg.Validate(); err != nil {
		t.Errorf("example classifier models should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/statbot.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func validConfig() *Config {
	return &Config{
		Football: FootballConfig{
			APIBaseURL:        "https://example.com",
			APIKey:            "key",
			Timeout:           10 * time.Second,
			MaxRetries:        2,
			RequestsPerMinute: 30,
		},
		Monitor: MonitorConfig{
			PollInterval: time.Minute,
			IdleInterval: 30 * time.Second,
			MaxCalls:     100,
			WindowStart:  "00:00",
			WindowEnd:    "23:59",
			Timezone:     "UTC",
			Strategy:     StrategyRules,
			Mode:         ModeIndependent,
			StatsWorkers: 4,
		},
		Rules: RulesConfig{
			DominancePossession: 65,
			HomeWinPossession:   55,
		},
		Telegram: TelegramConfig{
			Enabled:    true,
			BotToken:   "token",
			ChatID:     "1",
			MaxRetries: 1,
		},
		Storage: StorageConfig{
			Enabled:   true,
			DBPath:    "./data/test.db",
			MaxAlerts: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.Football.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "missing telegram token when enabled",
			mutate:  func(c *Config) { c.Telegram.BotToken = "" },
			wantErr: true,
		},
		{
			name:    "telegram disabled without token",
			mutate:  func(c *Config) { c.Telegram.Enabled = false; c.Telegram.BotToken = "" },
			wantErr: false,
		},
		{
			name:    "idle interval longer than poll interval",
			mutate:  func(c *Config) { c.Monitor.IdleInterval = 2 * time.Minute },
			wantErr: true,
		},
		{
			name:    "idle interval equal to poll interval",
			mutate:  func(c *Config) { c.Monitor.IdleInterval = c.Monitor.PollInterval },
			wantErr: true,
		},
		{
			name:    "zero budget",
			mutate:  func(c *Config) { c.Monitor.MaxCalls = 0 },
			wantErr: true,
		},
		{
			name:    "malformed window start",
			mutate:  func(c *Config) { c.Monitor.WindowStart = "25:00" },
			wantErr: true,
		},
		{
			name:    "wrapping window",
			mutate:  func(c *Config) { c.Monitor.WindowStart = "22:00"; c.Monitor.WindowEnd = "02:00" },
			wantErr: false,
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Monitor.Timezone = "Mars/Olympus" },
			wantErr: true,
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Monitor.Strategy = "vibes" },
			wantErr: true,
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Monitor.Mode = "all" },
			wantErr: true,
		},
		{
			name:    "classifier strategy without models",
			mutate:  func(c *Config) { c.Monitor.Strategy = StrategyClassifier; c.Classifier.Backend = BackendLinear },
			wantErr: true,
		},
		{
			name: "remote classifier without url",
			mutate: func(c *Config) {
				c.Monitor.Strategy = StrategyClassifier
				c.Classifier.Backend = BackendRemote
				c.Classifier.Timeout = time.Second
			},
			wantErr: true,
		},
		{
			name: "remote classifier",
			mutate: func(c *Config) {
				c.Monitor.Strategy = StrategyClassifier
				c.Classifier.Backend = BackendRemote
				c.Classifier.RemoteURL = "http://localhost:8000"
				c.Classifier.Timeout = time.Second
			},
			wantErr: false,
		},
		{
			name:    "storage enabled without path",
			mutate:  func(c *Config) { c.Storage.DBPath = "" },
			wantErr: true,
		},
		{
			name:    "status enabled without addr",
			mutate:  func(c *Config) { c.Status.Enabled = true },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "23:59", want: 1439},
		{in: " 18:05 ", want: 1085},
		{in: "24:00", wantErr: true},
		{in: "9pm", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
