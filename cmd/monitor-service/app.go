package main

import (
	"context"
	"fmt"
	"time"

	"credit-risk-monitor/internal/alerting"
	"credit-risk-monitor/internal/config"
	"credit-risk-monitor/internal/delivery/consumer"
	delivery "credit-risk-monitor/internal/delivery/http"
	"credit-risk-monitor/internal/metrics"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/internal/scheduler"
	"credit-risk-monitor/internal/scoring"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/internal/strategy"
	"credit-risk-monitor/pkg/logger"
	"credit-risk-monitor/pkg/postgres"
	"credit-risk-monitor/pkg/redis"
	"credit-risk-monitor/pkg/telegram"

	"github.com/labstack/echo/v4"
	"google.golang.org/genai"
)

// app holds the wired components of the monitor.
type app struct {
	cfg       *config.Config
	logger    *logger.Logger
	metrics   *metrics.Registry
	redis     *redis.Client
	streams   repository.StreamRepository
	runner    service.RefreshRunner
	scheduler scheduler.SchedulerService
	consumer  *consumer.RedisConsumer
	server    *echo.Echo
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: appLogger, metrics: metrics.NewRegistry()}

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}

	// Initialize Redis, optional
	dedupeWindow := config.MustDuration(cfg.Alert.TimeWindow)
	deduplicator := alerting.NewMemoryDeduplicator(dedupeWindow)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.redis = redisClient
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		deduplicator = alerting.NewRedisDeduplicator(redisClient.Client, dedupeWindow)
		a.streams = repository.NewStreamRepository(redisClient.Client, cfg.Redis.StreamMaxLen)
	} else {
		appLogger.Warn("Redis disabled, using in-process alert deduplication")
		a.streams = repository.NewStreamRepository(nil, 0)
	}

	// Initialize notifier
	notifier := telegram.NewNopNotifier()
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		n, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Error("Failed to initialize Telegram notifier, alerts will not be pushed", logger.ErrorField(err))
		} else {
			notifier = n
		}
	}

	// Initialize sentiment provider
	var sentimentRepo repository.SentimentRepository
	switch cfg.Providers.Sentiment.Source {
	case "gemini":
		genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: cfg.Providers.Sentiment.APIKey,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		sentimentRepo = repository.NewGeminiSentimentRepository(cfg, appLogger, genAiClient)
	default:
		sentimentRepo = repository.NewLexiconSentimentRepository()
	}

	engine, err := scoring.NewEngine(cfg.Scoring.Weights())
	if err != nil {
		a.Close()
		return nil, err
	}

	// Initialize repositories
	companyRepo := repository.NewCompanyRepository(db.DB)
	snapshotRepo := repository.NewFeatureSnapshotRepository(db.DB)
	newsSignalRepo := repository.NewNewsSignalRepository(db.DB)
	scoreRepo := repository.NewCreditScoreRepository(db.DB)
	alertRepo := repository.NewAlertRepository(db.DB)
	runRepo := repository.NewJobRunRepository(db.DB)
	retentionRepo := repository.NewRetentionRepository(db.DB)
	financialRepo := repository.NewYahooFinanceRepository(cfg, appLogger)
	newsRepo := repository.NewNewsRepository(cfg, appLogger)

	// Initialize services
	refreshSvc := service.NewRefreshService(service.RefreshServiceParams{
		Config:          cfg,
		Logger:          appLogger,
		CompanyRepo:     companyRepo,
		SnapshotRepo:    snapshotRepo,
		NewsSignalRepo:  newsSignalRepo,
		CreditScoreRepo: scoreRepo,
		AlertRepo:       alertRepo,
		FinancialRepo:   financialRepo,
		NewsRepo:        newsRepo,
		SentimentRepo:   sentimentRepo,
		StreamRepo:      a.streams,
		Engine:          engine,
		Deriver: alerting.NewDeriver(alerting.Config{
			ScoreChangeThreshold: cfg.Alert.ScoreChangeThreshold,
			Retention:            config.MustDuration(cfg.Alert.Retention),
		}),
		Deduplicator: deduplicator,
		Notifier:     notifier,
		Metrics:      a.metrics,
	})
	a.runner = service.NewRefreshRunner(refreshSvc, appLogger, a.metrics,
		cfg.Scheduler.MaxConcurrentRefreshes, config.MustDuration(cfg.Scheduler.CycleTimeout))
	a.closers = append(a.closers, a.runner.Shutdown)

	companySvc := service.NewCompanyService(companyRepo, financialRepo, appLogger)
	scoreSvc := service.NewScoreService(companySvc, scoreRepo, nil)
	newsSvc := service.NewNewsService(companySvc, newsSignalRepo, nil)
	alertSvc := service.NewAlertService(companySvc, alertRepo, appLogger, nil)
	retentionSvc := service.NewRetentionService(retentionRepo, appLogger,
		cfg.Scheduler.FeatureRetentionDays, cfg.Scheduler.ScoreRetentionDays, nil)
	runSvc := service.NewJobRunService(runRepo, appLogger)

	// Initialize orchestrator
	a.scheduler = scheduler.NewSchedulerService(scheduler.Params{
		Config:  cfg.Scheduler,
		Logger:  appLogger,
		RunRepo: runRepo,
		Runner:  a.runner,
		Strategies: []strategy.JobExecutionStrategy{
			strategy.NewRefreshAllStrategy(appLogger, companySvc, a.runner),
			strategy.NewScoreAllStrategy(appLogger, companySvc, a.runner),
			strategy.NewRefreshEntityStrategy(appLogger, a.runner),
			strategy.NewAlertCleanupStrategy(alertSvc),
			strategy.NewDailyMaintenanceStrategy(retentionSvc),
		},
		Metrics: a.metrics,
	})

	if a.redis != nil {
		a.consumer = consumer.NewRedisConsumer(a.redis.Client, a.runner,
			config.MustDuration(cfg.Scheduler.ConsumerBlock), appLogger)
	}

	a.server = delivery.NewServer(delivery.Handlers{
		Company:   delivery.NewCompanyHandler(companySvc, newsSvc, alertSvc, a.scheduler, appLogger),
		Score:     delivery.NewScoreHandler(scoreSvc, appLogger),
		Alert:     delivery.NewAlertHandler(alertSvc, appLogger),
		Scheduler: delivery.NewSchedulerHandler(a.scheduler, runSvc, appLogger),
		Metrics:   a.metrics,
	})

	return a, nil
}

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second
