// Package repotest opens in-memory sqlite databases carrying the monitor schema.
package repotest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteSchema mirrors migrations/ with sqlite column types; text[] and jsonb
// columns are stored as text.
var sqliteSchema = []string{
	`CREATE TABLE companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		sector TEXT,
		industry TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE feature_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		debt_to_equity REAL,
		current_ratio REAL,
		quick_ratio REAL,
		return_on_equity REAL,
		return_on_assets REAL,
		revenue_growth REAL,
		price_volatility REAL,
		beta REAL,
		market_cap REAL,
		stock_price REAL,
		pe_ratio REAL,
		data_source TEXT,
		captured_at DATETIME NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE news_signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		headline TEXT NOT NULL,
		summary TEXT,
		url TEXT,
		source TEXT,
		published_at DATETIME NOT NULL,
		sentiment_score REAL NOT NULL,
		sentiment_label TEXT,
		event_type TEXT,
		event_confidence REAL,
		keywords TEXT,
		risk_score REAL NOT NULL,
		risk_factors TEXT,
		hash_identifier TEXT NOT NULL UNIQUE,
		created_at DATETIME
	)`,
	`CREATE TABLE credit_scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		overall_score REAL NOT NULL,
		financial_score REAL NOT NULL,
		market_score REAL NOT NULL,
		news_score REAL NOT NULL,
		score_change REAL,
		trend_direction TEXT,
		volatility REAL,
		explanation_summary TEXT,
		key_factors TEXT,
		risk_indicators TEXT,
		feature_importance TEXT,
		model_version TEXT,
		calculation_method TEXT,
		confidence_level REAL,
		calculated_at DATETIME NOT NULL,
		valid_until DATETIME
	)`,
	`CREATE TABLE alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		score_change REAL,
		previous_score REAL,
		current_score REAL,
		change_percentage REAL,
		trigger_value REAL,
		threshold_value REAL,
		is_read BOOLEAN NOT NULL DEFAULT 0,
		is_acknowledged BOOLEAN NOT NULL DEFAULT 0,
		acknowledged_by TEXT,
		acknowledged_at DATETIME,
		context TEXT,
		related_events TEXT,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	)`,
	`CREATE TABLE job_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		job_id TEXT NOT NULL,
		job_type TEXT NOT NULL,
		subject TEXT,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		output TEXT,
		error_message TEXT
	)`,
}

// NewDB opens a fresh in-memory database with every table created. The
// connection is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	for _, stmt := range sqliteSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
