package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"finitefield.org/listing-console/internal/app"
	"finitefield.org/listing-console/internal/backend"
	"finitefield.org/listing-console/internal/config"
	"finitefield.org/listing-console/internal/httpserver"
	"finitefield.org/listing-console/internal/i18n"
	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/observability"
	"finitefield.org/listing-console/internal/schedule"
	"finitefield.org/listing-console/internal/storage"
	"finitefield.org/listing-console/internal/templates"
	"finitefield.org/listing-console/internal/workspace"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var logOpts []observability.LoggerOption
	if cfg.Server.Dev {
		logOpts = append(logOpts, observability.WithConsoleEncoding())
	}
	logger, level, err := observability.NewLogger(cfg.Logging.Level, logOpts...)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := storage.OpenSQLite(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("open storage", zap.String("path", cfg.Storage.DBPath), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()

	clock := schedule.RealClock()
	client := backend.New(backend.Options{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Clock:   clock,
		Logger:  logger.Named("backend"),
	})
	autosave := workspace.NewAutoSaver(store, clock, cfg.AutoSave.Delay, logger.Named("autosave"))
	ctrl := app.New(app.Dependencies{
		Backend:  client,
		History:  workspace.NewHistory(store, clock, logger.Named("history")),
		Settings: workspace.NewSettingsRepo(store, listing.DefaultSettings(cfg.Backend.URL), logger.Named("settings")),
		AutoSave: autosave,
		Level:    &level,
		Logger:   logger.Named("console"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl.Init(ctx)

	bundle, err := i18n.Default()
	if err != nil {
		logger.Fatal("load messages", zap.Error(err))
	}
	renderer, err := templates.New(bundle)
	if err != nil {
		logger.Fatal("parse templates", zap.Error(err))
	}

	srv := httpserver.New(httpserver.Config{
		Address:        cfg.Server.Addr,
		Controller:     ctrl,
		Renderer:       renderer,
		Logger:         logger,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("console listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("api_url", client.BaseURL()),
		zap.String("db_path", cfg.Storage.DBPath))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	autosave.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}
