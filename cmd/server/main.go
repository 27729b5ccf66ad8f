/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the insight engine server. Handles configuration,
  dependency wiring, the monthly accrual loop, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment (FPX_ prefix)
  2. Configure structured logging
  3. Initialize SQLite store
  4. Wire credit gate, LLM client, and report pipeline
  5. Start accrual scheduler (optional)
  6. Start HTTP server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (configurable timeout)
  3. Stop the accrual scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with defaults (insight.db, :8080)
  ./server

  # In-memory database on another port
  FPX_DB_PATH=":memory:" FPX_SERVER_ADDR=":3000" ./server

  # Point generation at a local provider
  FPX_LLM_BASE_URL="http://localhost:11434/v1" FPX_LLM_MODEL="llama3" ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - report/pipeline.go: The generation flow
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fpx/insight-engine/api"
	"github.com/fpx/insight-engine/config"
	"github.com/fpx/insight-engine/credits"
	"github.com/fpx/insight-engine/llm"
	"github.com/fpx/insight-engine/report"
	"github.com/fpx/insight-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg.Log)

	// Store
	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DB.Path).Msg("failed to open database")
	}
	defer store.Close()

	// Credits
	gate := credits.NewGate(store)
	accrual := credits.NewAccrual(gate, credits.NewAmount(cfg.Credits.MonthlyPlan))

	// Generation
	generator := llm.New(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, logger)

	// Pipeline
	pipeline := report.NewPipeline(store, gate, generator, store, report.Config{
		ReportCost:        credits.NewAmount(cfg.Report.Cost),
		LookbackDays:      cfg.Report.LookbackDays,
		GenerationTimeout: cfg.Report.GenerationTimeout,
	}, logger)

	// HTTP
	handler := api.NewHandler(store, pipeline, gate, logger)
	router := api.NewRouter(handler)

	// Monthly accrual loop
	scheduler := api.NewAccrualScheduler(store, accrual, logger)
	scheduler.CheckInterval = cfg.Credits.AccrualInterval
	scheduler.Enabled = cfg.Credits.AccrualEnabled
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("server stopped")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		out := zerolog.NewConsoleWriter()
		out.TimeFormat = time.Kitchen
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
