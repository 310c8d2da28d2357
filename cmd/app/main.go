// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"mbti-assessment-client/internal/config"
	"mbti-assessment-client/internal/domain/ports/adapter"
	"mbti-assessment-client/internal/domain/ports/repository"
	"mbti-assessment-client/internal/infra/assessment"
	"mbti-assessment-client/internal/infra/insight"
	"mbti-assessment-client/internal/infra/logging"
	"mbti-assessment-client/internal/infra/metrics"
	"mbti-assessment-client/internal/infra/store"
	"mbti-assessment-client/internal/infra/web"
	"mbti-assessment-client/internal/infra/worker"
	"mbti-assessment-client/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Persistence bridge ----
	var sessions repository.SessionStore
	switch cfg.Store.Backend {
	case "redis":
		rs := store.NewRedisStore(&cfg.Store)
		defer rs.Close()
		if !rs.Available(ctx) {
			logger.Warn().Str("url", cfg.Store.URL).Msg("redis unreachable; restoration will be best-effort")
		}
		sessions = rs
	case "file":
		sessions = store.NewFileStore(cfg.Store.Path)
	default:
		sessions = store.NewNoopStore()
	}

	// ---- Remote assessment service ----
	remote, err := assessment.NewHTTPClient(cfg.Assessment.BaseURL, cfg.Assessment.Timeout)
	if err != nil {
		log.Fatalf("assessment client: %v", err)
	}

	// ---- Detached tasks (insight/tracking) ----
	pool := worker.NewPool(cfg.Worker.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()

	var tracker adapter.InsightTracker
	if cfg.Insight.Enabled {
		tracker = insight.NewHTTPTracker(cfg.Assessment.BaseURL, ulid.Make().String(), cfg.Insight.APIKey)
	}
	uc := usecase.NewSessionUseCase(remote, sessions, tracker, pool, logger)

	// Restoration runs once, before the gateway accepts traffic.
	restoreCtx, restoreCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := uc.RestoreSession(restoreCtx); err != nil {
		logger.Warn().Err(err).Msg("restoration failed; starting fresh")
	}
	restoreCancel()

	// ---- Gateway ----
	gw := web.NewServer(uc, logger)
	server := &http.Server{Addr: cfg.Gateway.Addr, Handler: gw.Router()}
	go func() {
		logger.Info().Str("addr", cfg.Gateway.Addr).Msg("gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("gateway server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
}
