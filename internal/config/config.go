package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"credit-risk-monitor/internal/scoring"
	"credit-risk-monitor/pkg/config"

	"github.com/spf13/viper"
)

// Scoring holds the composite score configuration.
type Scoring struct {
	FinancialWeight  float64 `mapstructure:"financial_weight"`
	MarketWeight     float64 `mapstructure:"market_weight"`
	NewsWeight       float64 `mapstructure:"news_weight"`
	NewsLookbackDays int     `mapstructure:"news_lookback_days"`
	HistoryLimit     int     `mapstructure:"history_limit"`
	ScoreValidity    string  `mapstructure:"score_validity"`
	ConfidenceLevel  float64 `mapstructure:"confidence_level"`
	ModelVersion     string  `mapstructure:"model_version"`
}

// Weights returns the scoring weights.
func (s Scoring) Weights() scoring.Weights {
	return scoring.Weights{Financial: s.FinancialWeight, Market: s.MarketWeight, News: s.NewsWeight}
}

// Alert holds alert derivation and delivery configuration.
type Alert struct {
	ScoreChangeThreshold float64 `mapstructure:"score_change_threshold"`
	TimeWindow           string  `mapstructure:"time_window"`
	Retention            string  `mapstructure:"retention"`
	NotifyMinSeverity    string  `mapstructure:"notify_min_severity"`
}

// Scheduler holds refresh orchestration configuration.
type Scheduler struct {
	AutoStart              bool   `mapstructure:"auto_start"`
	PollingInterval        string `mapstructure:"polling_interval"`
	RefreshInterval        string `mapstructure:"refresh_interval"`
	ScoreInterval          string `mapstructure:"score_interval"`
	AlertCleanupInterval   string `mapstructure:"alert_cleanup_interval"`
	MaintenanceTime        string `mapstructure:"maintenance_time"`
	MaxConcurrentRefreshes int    `mapstructure:"max_concurrent_refreshes"`
	ProviderTimeout        string `mapstructure:"provider_timeout"`
	CycleTimeout           string `mapstructure:"cycle_timeout"`
	FeatureRetentionDays   int    `mapstructure:"feature_retention_days"`
	ScoreRetentionDays     int    `mapstructure:"score_retention_days"`
	ConsumerBlock          string `mapstructure:"consumer_block"`
}

// FinancialProvider configures the market data connector.
type FinancialProvider struct {
	Source              string `mapstructure:"source"`
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// NewsProvider configures the news connector.
type NewsProvider struct {
	Source              string `mapstructure:"source"`
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxArticles         int    `mapstructure:"max_articles"`
	Language            string `mapstructure:"language"`
	FetchContent        bool   `mapstructure:"fetch_content"`
}

// SentimentProvider configures the sentiment classifier.
type SentimentProvider struct {
	Source              string `mapstructure:"source"`
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Providers holds the external data connectors configuration.
type Providers struct {
	MaxRetries int               `mapstructure:"max_retries"`
	RetryDelay string            `mapstructure:"retry_delay"`
	Financial  FinancialProvider `mapstructure:"financial"`
	News       NewsProvider      `mapstructure:"news"`
	Sentiment  SentimentProvider `mapstructure:"sentiment"`
}

// Config holds the full configuration for the monitor service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Telegram  config.Telegram `mapstructure:"telegram"`
	Scoring   Scoring         `mapstructure:"scoring"`
	Alert     Alert           `mapstructure:"alert"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
	Providers Providers       `mapstructure:"providers"`
}

// envBindings maps config keys to the flat environment names operators use.
var envBindings = map[string]string{
	"scoring.financial_weight":     "FINANCIAL_WEIGHT",
	"scoring.market_weight":        "MARKET_WEIGHT",
	"scoring.news_weight":          "NEWS_WEIGHT",
	"alert.score_change_threshold": "SCORE_CHANGE_THRESHOLD",
	"alert.time_window":            "ALERT_TIME_WINDOW",
	"providers.max_retries":        "MAX_RETRIES",
	"providers.retry_delay":        "RETRY_DELAY",
	"scheduler.refresh_interval":   "DATA_REFRESH_INTERVAL",
	"providers.news.api_key":       "NEWS_API_KEY",
	"providers.sentiment.api_key":  "GEMINI_API_KEY",
	"telegram.bot_token":           "TELEGRAM_BOT_TOKEN",
}

func setDefaults() {
	viper.SetDefault("app.name", "credit-risk-monitor")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("redis.stream_max_len", 10000)

	viper.SetDefault("scoring.financial_weight", 0.4)
	viper.SetDefault("scoring.market_weight", 0.3)
	viper.SetDefault("scoring.news_weight", 0.3)
	viper.SetDefault("scoring.news_lookback_days", 7)
	viper.SetDefault("scoring.history_limit", 10)
	viper.SetDefault("scoring.score_validity", "24h")
	viper.SetDefault("scoring.confidence_level", 0.85)
	viper.SetDefault("scoring.model_version", "1.0")

	viper.SetDefault("alert.score_change_threshold", 20.0)
	viper.SetDefault("alert.time_window", "86400")
	viper.SetDefault("alert.retention", "168h")
	viper.SetDefault("alert.notify_min_severity", "high")

	viper.SetDefault("scheduler.auto_start", true)
	viper.SetDefault("scheduler.polling_interval", "5s")
	viper.SetDefault("scheduler.refresh_interval", "1800")
	viper.SetDefault("scheduler.score_interval", "1h")
	viper.SetDefault("scheduler.alert_cleanup_interval", "6h")
	viper.SetDefault("scheduler.maintenance_time", "02:00")
	viper.SetDefault("scheduler.max_concurrent_refreshes", 4)
	viper.SetDefault("scheduler.provider_timeout", "30s")
	viper.SetDefault("scheduler.cycle_timeout", "2m")
	viper.SetDefault("scheduler.feature_retention_days", 90)
	viper.SetDefault("scheduler.score_retention_days", 30)
	viper.SetDefault("scheduler.consumer_block", "2s")

	viper.SetDefault("providers.max_retries", 3)
	viper.SetDefault("providers.retry_delay", "5")
	viper.SetDefault("providers.financial.source", "yahoo")
	viper.SetDefault("providers.financial.base_url", "https://query2.finance.yahoo.com")
	viper.SetDefault("providers.financial.max_request_per_minute", 60)
	viper.SetDefault("providers.news.source", "googlenews")
	viper.SetDefault("providers.news.base_url", "https://news.google.com/rss")
	viper.SetDefault("providers.news.max_request_per_minute", 30)
	viper.SetDefault("providers.news.max_articles", 20)
	viper.SetDefault("providers.news.language", "en")
	viper.SetDefault("providers.sentiment.source", "lexicon")
	viper.SetDefault("providers.sentiment.model", "gemini-2.0-flash")
	viper.SetDefault("providers.sentiment.max_request_per_minute", 15)
}

// Load loads the monitor configuration from the given path and validates it.
func Load(path string) (*Config, error) {
	setDefaults()

	var cfg Config
	if err := config.Load(path, &cfg, envBindings); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks weights, thresholds and that every duration parses.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Scoring.Weights().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Alert.ScoreChangeThreshold <= 0 {
		errs = append(errs, fmt.Errorf("alert.score_change_threshold must be positive, got %v", c.Alert.ScoreChangeThreshold))
	}
	if c.Scheduler.MaxConcurrentRefreshes < 1 {
		errs = append(errs, fmt.Errorf("scheduler.max_concurrent_refreshes must be >= 1, got %d", c.Scheduler.MaxConcurrentRefreshes))
	}
	if c.Providers.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("providers.max_retries must be >= 0, got %d", c.Providers.MaxRetries))
	}
	if _, _, err := ParseTimeOfDay(c.Scheduler.MaintenanceTime); err != nil {
		errs = append(errs, err)
	}

	durations := map[string]string{
		"scoring.score_validity":           c.Scoring.ScoreValidity,
		"alert.time_window":                c.Alert.TimeWindow,
		"alert.retention":                  c.Alert.Retention,
		"scheduler.polling_interval":       c.Scheduler.PollingInterval,
		"scheduler.refresh_interval":       c.Scheduler.RefreshInterval,
		"scheduler.score_interval":         c.Scheduler.ScoreInterval,
		"scheduler.alert_cleanup_interval": c.Scheduler.AlertCleanupInterval,
		"scheduler.provider_timeout":       c.Scheduler.ProviderTimeout,
		"scheduler.cycle_timeout":          c.Scheduler.CycleTimeout,
		"scheduler.consumer_block":         c.Scheduler.ConsumerBlock,
		"providers.retry_delay":            c.Providers.RetryDelay,
	}
	for key, value := range durations {
		d, err := ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if d <= 0 && key != "providers.retry_delay" {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}

	return errors.Join(errs...)
}

// ParseDuration accepts Go duration strings ("30s", "1h") and bare integers
// interpreted as seconds ("1800").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// MustDuration parses a duration already checked by Validate.
func MustDuration(s string) time.Duration {
	d, err := ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
