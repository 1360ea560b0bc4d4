package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("1800")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)

	d, err = ParseDuration("6h")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, d)

	d, err = ParseDuration("0.5")
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)

	_, err = ParseDuration("soon")
	assert.Error(t, err)
	_, err = ParseDuration("")
	assert.Error(t, err)
}

func TestParseTimeOfDay(t *testing.T) {
	h, m, err := ParseTimeOfDay("02:00")
	require.NoError(t, err)
	assert.Equal(t, 2, h)
	assert.Equal(t, 0, m)

	_, _, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, _, err = ParseTimeOfDay("2am")
	assert.Error(t, err)
}

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: test-monitor\n"), 0o600))

	t.Setenv("FINANCIAL_WEIGHT", "0.5")
	t.Setenv("MARKET_WEIGHT", "0.25")
	t.Setenv("NEWS_WEIGHT", "0.25")
	t.Setenv("SCORE_CHANGE_THRESHOLD", "15")
	t.Setenv("DATA_REFRESH_INTERVAL", "900")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-monitor", cfg.App.Name)
	assert.Equal(t, 0.5, cfg.Scoring.FinancialWeight)
	assert.Equal(t, 15.0, cfg.Alert.ScoreChangeThreshold)
	assert.Equal(t, 15*time.Minute, MustDuration(cfg.Scheduler.RefreshInterval))
	assert.Equal(t, 24*time.Hour, MustDuration(cfg.Alert.TimeWindow))
	assert.Equal(t, 3, cfg.Providers.MaxRetries)
	assert.Equal(t, 5*time.Second, MustDuration(cfg.Providers.RetryDelay))
	assert.Equal(t, 90, cfg.Scheduler.FeatureRetentionDays)
}

func TestValidate_RejectsBadWeights(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring.NewsWeight = 0.5
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadDuration(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler.ProviderTimeout = "forever"
	assert.ErrorContains(t, cfg.Validate(), "scheduler.provider_timeout")
}

func TestValidate_Accepts(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func validConfig() *Config {
	return &Config{
		Scoring: Scoring{FinancialWeight: 0.4, MarketWeight: 0.3, NewsWeight: 0.3, ScoreValidity: "24h"},
		Alert:   Alert{ScoreChangeThreshold: 20, TimeWindow: "86400", Retention: "168h"},
		Scheduler: Scheduler{
			PollingInterval:        "5s",
			RefreshInterval:        "1800",
			ScoreInterval:          "1h",
			AlertCleanupInterval:   "6h",
			MaintenanceTime:        "02:00",
			MaxConcurrentRefreshes: 2,
			ProviderTimeout:        "30s",
			CycleTimeout:           "2m",
		},
		Providers: Providers{MaxRetries: 3, RetryDelay: "5"},
	}
}
