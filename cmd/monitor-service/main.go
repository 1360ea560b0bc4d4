package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"credit-risk-monitor/internal/config"
	_ "credit-risk-monitor/internal/docs"
	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	ticker     string
	mode       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the monitor service",
	Run:   runServe,
}

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Runs one refresh cycle for a ticker and prints the new score",
	Run:   runCompute,
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Publishes a refresh request for a running monitor",
	Run:   runEnqueue,
}

func loadConfig() (*config.Config, *logger.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	zap.ReplaceGlobals(appLogger.Logger)
	return cfg, appLogger
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := loadConfig()
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Monitor Service", logger.Field("name", cfg.App.Name), logger.Field("env", cfg.App.Env))

	a, err := newApp(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize monitor", logger.ErrorField(err))
	}
	defer a.Close()

	// Start orchestrator
	if cfg.Scheduler.AutoStart {
		go a.scheduler.Start(ctx)
	} else {
		appLogger.Info("Scheduler auto start disabled")
	}

	// Start remote refresh consumer
	if a.consumer != nil {
		if err := a.consumer.EnsureGroup(ctx); err != nil {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
		a.consumer.Start(ctx)
	}

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := a.server.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	if a.consumer != nil {
		a.consumer.Stop()
	}
	a.scheduler.Stop()

	appLogger.Info("Server exiting")
}

func runCompute(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := loadConfig()
	defer func() { _ = appLogger.Sync() }()

	a, err := newApp(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize monitor", logger.ErrorField(err))
	}
	defer a.Close()

	score, err := a.scheduler.ComputeScore(ctx, ticker)
	if err != nil {
		appLogger.Error("Score computation failed", logger.ErrorField(err), logger.StringField("ticker", ticker))
		a.Close()
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(score, "", "  ")
	fmt.Println(string(out))
}

func runEnqueue(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, appLogger := loadConfig()
	defer func() { _ = appLogger.Sync() }()

	refreshMode, err := service.ParseRefreshMode(mode)
	if err != nil {
		appLogger.Fatal("Invalid mode", logger.ErrorField(err))
	}

	a, err := newApp(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize monitor", logger.ErrorField(err))
	}
	defer a.Close()

	req := dto.RefreshRequest{Ticker: strings.ToUpper(ticker), Mode: string(refreshMode), RequestedAt: time.Now().UTC()}
	if err := a.streams.PublishRefreshRequest(ctx, req); err != nil {
		appLogger.Error("Failed to publish refresh request", logger.ErrorField(err))
		a.Close()
		os.Exit(1)
	}
	appLogger.Info("Refresh request published", logger.StringField("ticker", req.Ticker), logger.StringField("mode", req.Mode))
}

// @title Credit Risk Monitor API
// @version 1.0
// @description Continuous credit risk scoring of monitored companies from financial, market and news signals.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "monitor-service"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-monitor.yaml", "Path to the configuration file")

	for _, c := range []*cobra.Command{computeCmd, enqueueCmd} {
		c.Flags().StringVarP(&ticker, "ticker", "t", "", "Ticker symbol")
		_ = c.MarkFlagRequired("ticker")
	}
	enqueueCmd.Flags().StringVarP(&mode, "mode", "m", "fetch", "Refresh mode, fetch or score")

	rootCmd.AddCommand(serveCmd, computeCmd, enqueueCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing monitor-service CLI: %s\n", err)
		os.Exit(1)
	}
}
