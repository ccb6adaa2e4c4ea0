package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/mediscan/internal/app"
	"github.com/joseph-ayodele/mediscan/internal/chat"
	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/export"
	"github.com/joseph-ayodele/mediscan/internal/observability"
	repo "github.com/joseph-ayodele/mediscan/internal/repository"
	svc "github.com/joseph-ayodele/mediscan/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		app.NewLogger(os.Stderr, "text").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg.Server.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := repo.OpenRecordStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "backend", cfg.Records.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	metrics := observability.NewMetrics("mediscan")
	sessions := chat.NewManager(cfg.Chat.HistoryLimit, logger)
	tokens, err := chat.NewTokenSigner(cfg.Session.Secret, cfg.Session.IdleTTL)
	if err != nil {
		logger.Error("failed to create session signer", "error", err)
		os.Exit(1)
	}
	if cfg.Session.Secret == "" {
		logger.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}

	sweeper := chat.NewSweeper(sessions, cfg.Session.IdleTTL, logger)
	if err := sweeper.Start(cfg.Session.SweepSpec); err != nil {
		logger.Error("invalid session sweep schedule", "spec", cfg.Session.SweepSpec, "error", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	server := svc.New(svc.Config{
		UploadDir:      cfg.Server.UploadDir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		SecureCookie:   cfg.Session.Secure,
	}, svc.Deps{
		Analyzer:  app.NewProcessor(cfg, metrics, logger),
		Store:     store,
		Exporter:  export.NewService(store, logger),
		Sessions:  sessions,
		Tokens:    tokens,
		Responder: app.NewResponder(cfg, logger),
		Metrics:   metrics,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var health *svc.HealthServer
	if cfg.Server.GRPCAddr != "" {
		health, err = svc.NewHealthServer(cfg.Server.GRPCAddr, logger)
		if err != nil {
			logger.Error("failed to start grpc health server", "error", err)
			os.Exit(1)
		}
		health.SetServing(true)
		go func() {
			if err := health.Serve(); err != nil {
				logger.Error("grpc health serve error", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("mediscan listening", "addr", cfg.Server.HTTPAddr, "records", cfg.Records.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if health != nil {
		health.SetServing(false)
		defer health.Stop(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
