package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Evaluation strategies.
const (
	StrategyRules      = "rules"
	StrategyClassifier = "classifier"
)

// Alert modes.
const (
	ModeIndependent = "independent"
	ModeNarrative   = "narrative"
)

// Classifier backends.
const (
	BackendLinear = "linear"
	BackendRemote = "remote"
)

// ModelNames lists the predictors required by the classifier strategy.
var ModelNames = []string{"btts", "home_win", "draw", "over25", "next_goal"}

// Config represents the complete application configuration
type Config struct {
	Football   FootballConfig   `mapstructure:"football"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Status     StatusConfig     `mapstructure:"status"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// FootballConfig holds API-Football configuration
type FootballConfig struct {
	APIBaseURL        string        `mapstructure:"api_base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Leagues           []int         `mapstructure:"leagues"` // empty = all live fixtures
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelayBase    time.Duration `mapstructure:"retry_delay_base"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	FetchStatistics   bool          `mapstructure:"fetch_statistics"`
}

// MonitorConfig holds poll loop configuration
type MonitorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	IdleInterval time.Duration `mapstructure:"idle_interval"`
	MaxCalls     int           `mapstructure:"max_calls"`
	WindowStart  string        `mapstructure:"window_start"` // HH:MM
	WindowEnd    string        `mapstructure:"window_end"`   // HH:MM, inclusive
	Timezone     string        `mapstructure:"timezone"`
	Strategy     string        `mapstructure:"strategy"`
	Mode         string        `mapstructure:"mode"`
	StatsWorkers int           `mapstructure:"stats_workers"`
}

// RulesConfig holds thresholds for the rule-based strategy
type RulesConfig struct {
	TieShotsOnGoal      float64 `mapstructure:"tie_shots_on_goal"`
	DominancePossession float64 `mapstructure:"dominance_possession"`
	DominanceShots      float64 `mapstructure:"dominance_shots"`
	PressureCorners     float64 `mapstructure:"pressure_corners"`
	OverShotsOnGoal     float64 `mapstructure:"over_shots_on_goal"`
	BTTSShotsOnGoal     float64 `mapstructure:"btts_shots_on_goal"`
	HomeWinPossession   float64 `mapstructure:"home_win_possession"`
	DrawMinMinute       int     `mapstructure:"draw_min_minute"`
	DrawMaxShotsOnGoal  float64 `mapstructure:"draw_max_shots_on_goal"`
}

// ClassifierConfig holds classifier backend configuration
type ClassifierConfig struct {
	Backend   string                 `mapstructure:"backend"`
	RemoteURL string                 `mapstructure:"remote_url"`
	Timeout   time.Duration          `mapstructure:"timeout"`
	Models    map[string]ModelConfig `mapstructure:"models"`
}

// ModelConfig holds exported linear model coefficients.
// Binary models use Weights/Bias/Threshold; multiclass models use Classes.
type ModelConfig struct {
	Weights   []float64     `mapstructure:"weights"`
	Bias      float64       `mapstructure:"bias"`
	Threshold float64       `mapstructure:"threshold"`
	Classes   []ClassConfig `mapstructure:"classes"`
}

// ClassConfig is one row of a multiclass linear model.
type ClassConfig struct {
	Label   int       `mapstructure:"label"`
	Weights []float64 `mapstructure:"weights"`
	Bias    float64   `mapstructure:"bias"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	SendInterval   time.Duration `mapstructure:"send_interval"`
	StartupMessage string        `mapstructure:"startup_message"`
}

// StorageConfig holds alert journal configuration
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	DBPath    string `mapstructure:"db_path"`
	MaxAlerts int    `mapstructure:"max_alerts"`
}

// StatusConfig holds the status HTTP server configuration
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path skips the file and relies on defaults and environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("STATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}

// bindLegacyEnv keeps the bare variable names used by existing deployments.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("football.api_key", "STATBOT_FOOTBALL_API_KEY", "API_KEY")
	_ = v.BindEnv("telegram.bot_token", "STATBOT_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.chat_id", "STATBOT_TELEGRAM_CHAT_ID", "CHAT_ID")
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Football defaults
	v.SetDefault("football.api_base_url", "https://v3.football.api-sports.io")
	v.SetDefault("football.api_key", "")
	v.SetDefault("football.leagues", []int{})
	v.SetDefault("football.timeout", "15s")
	v.SetDefault("football.max_retries", 2)
	v.SetDefault("football.retry_delay_base", "2s")
	v.SetDefault("football.requests_per_minute", 30)
	v.SetDefault("football.fetch_statistics", true)

	// Monitor defaults
	v.SetDefault("monitor.poll_interval", "60s")
	v.SetDefault("monitor.idle_interval", "30s")
	v.SetDefault("monitor.max_calls", 100)
	v.SetDefault("monitor.window_start", "00:00")
	v.SetDefault("monitor.window_end", "23:59")
	v.SetDefault("monitor.timezone", "UTC")
	v.SetDefault("monitor.strategy", StrategyRules)
	v.SetDefault("monitor.mode", ModeIndependent)
	v.SetDefault("monitor.stats_workers", 4)

	// Rules defaults
	v.SetDefault("rules.tie_shots_on_goal", 8)
	v.SetDefault("rules.dominance_possession", 65)
	v.SetDefault("rules.dominance_shots", 6)
	v.SetDefault("rules.pressure_corners", 6)
	v.SetDefault("rules.over_shots_on_goal", 10)
	v.SetDefault("rules.btts_shots_on_goal", 4)
	v.SetDefault("rules.home_win_possession", 55)
	v.SetDefault("rules.draw_min_minute", 80)
	v.SetDefault("rules.draw_max_shots_on_goal", 4)

	// Classifier defaults
	v.SetDefault("classifier.backend", BackendLinear)
	v.SetDefault("classifier.remote_url", "")
	v.SetDefault("classifier.timeout", "5s")

	// Telegram defaults
	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 1)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.send_interval", "1s")
	v.SetDefault("telegram.startup_message", "✅ Statbot is live and connected to Telegram!")

	// Storage defaults
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.db_path", "./data/statbot.db")
	v.SetDefault("storage.max_alerts", 5000)

	// Status defaults
	v.SetDefault("status.enabled", false)
	v.SetDefault("status.addr", "127.0.0.1:8089")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Football config
	if c.Football.APIBaseURL == "" {
		return errors.New("football.api_base_url is required")
	}
	if c.Football.APIKey == "" {
		return errors.New("football.api_key is required")
	}
	if c.Football.Timeout <= 0 {
		return errors.New("football.timeout must be positive")
	}
	if c.Football.MaxRetries < 0 {
		return errors.New("football.max_retries must not be negative")
	}
	if c.Football.RequestsPerMinute < 1 {
		return errors.New("football.requests_per_minute must be at least 1")
	}
	for _, id := range c.Football.Leagues {
		if id <= 0 {
			return errors.New("football.leagues must contain positive league ids")
		}
	}

	// Validate Monitor config
	if c.Monitor.PollInterval < 10*time.Second {
		return errors.New("monitor.poll_interval must be at least 10 seconds")
	}
	if c.Monitor.IdleInterval <= 0 || c.Monitor.IdleInterval >= c.Monitor.PollInterval {
		return errors.New("monitor.idle_interval must be positive and shorter than monitor.poll_interval")
	}
	if c.Monitor.MaxCalls < 1 {
		return errors.New("monitor.max_calls must be at least 1")
	}
	if _, err := ParseClock(c.Monitor.WindowStart); err != nil {
		return errors.Wrap(err, "monitor.window_start")
	}
	if _, err := ParseClock(c.Monitor.WindowEnd); err != nil {
		return errors.Wrap(err, "monitor.window_end")
	}
	if _, err := time.LoadLocation(c.Monitor.Timezone); err != nil {
		return errors.Wrap(err, "monitor.timezone")
	}
	switch c.Monitor.Strategy {
	case StrategyRules, StrategyClassifier:
	default:
		return errors.New("monitor.strategy must be one of: rules, classifier")
	}
	switch c.Monitor.Mode {
	case ModeIndependent, ModeNarrative:
	default:
		return errors.New("monitor.mode must be one of: independent, narrative")
	}
	if c.Monitor.StatsWorkers < 1 {
		return errors.New("monitor.stats_workers must be at least 1")
	}

	// Validate Rules config
	if c.Rules.DominancePossession < 0 || c.Rules.DominancePossession > 100 {
		return errors.New("rules.dominance_possession must be between 0 and 100")
	}
	if c.Rules.HomeWinPossession < 0 || c.Rules.HomeWinPossession > 100 {
		return errors.New("rules.home_win_possession must be between 0 and 100")
	}

	// Validate Classifier config
	if c.Monitor.Strategy == StrategyClassifier {
		if err := c.Classifier.validate(); err != nil {
			return err
		}
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return errors.New("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return errors.New("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Telegram.MaxRetries < 1 {
		return errors.New("telegram.max_retries must be at least 1")
	}
	if c.Telegram.SendInterval < 0 {
		return errors.New("telegram.send_interval must not be negative")
	}

	// Validate Storage config
	if c.Storage.Enabled {
		if c.Storage.DBPath == "" {
			return errors.New("storage.db_path is required when storage is enabled")
		}
		if c.Storage.MaxAlerts < 1 {
			return errors.New("storage.max_alerts must be at least 1")
		}
	}

	// Validate Status config
	if c.Status.Enabled && c.Status.Addr == "" {
		return errors.New("status.addr is required when status is enabled")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return errors.New("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return errors.New("logging.format must be one of: json, text")
	}

	return nil
}

func (c ClassifierConfig) validate() error {
	switch c.Backend {
	case BackendRemote:
		if c.RemoteURL == "" {
			return errors.New("classifier.remote_url is required for the remote backend")
		}
		if c.Timeout <= 0 {
			return errors.New("classifier.timeout must be positive")
		}
		return nil
	case BackendLinear:
	default:
		return errors.New("classifier.backend must be one of: linear, remote")
	}

	for _, name := range ModelNames {
		m, ok := c.Models[name]
		if !ok {
			return errors.Newf("classifier.models.%s is required for the classifier strategy", name)
		}
		if name == "next_goal" {
			if len(m.Classes) < 2 {
				return errors.New("classifier.models.next_goal needs at least 2 classes")
			}
			for _, cl := range m.Classes {
				if len(cl.Weights) != 2 {
					return errors.Newf("classifier.models.next_goal class %d needs 2 weights", cl.Label)
				}
			}
			continue
		}
		if len(m.Weights) != 2 {
			return errors.Newf("classifier.models.%s needs 2 weights", name)
		}
		if m.Threshold < 0 || m.Threshold >= 1 {
			return errors.Newf("classifier.models.%s.threshold must be in [0, 1)", name)
		}
	}
	return nil
}

// ParseClock parses an "HH:MM" time of day into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Newf("invalid time of day %q, want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
