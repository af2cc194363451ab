package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/twinsgen/twin-problem-service/api"
	"github.com/twinsgen/twin-problem-service/internal/auth"
	"github.com/twinsgen/twin-problem-service/internal/config"
	"github.com/twinsgen/twin-problem-service/internal/db"
	"github.com/twinsgen/twin-problem-service/internal/logger"
	"github.com/twinsgen/twin-problem-service/internal/storage"
	"github.com/twinsgen/twin-problem-service/internal/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	appLogger := logger.Setup(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.Enabled {
		if err := auth.Init(""); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize auth")
		}
		log.Info().Msg("JWT authentication initialized")
	}

	// Database is optional unless the bank lives in postgres
	if err := db.Init(ctx); err != nil {
		if !errors.Is(err, db.ErrNoDatabase) {
			log.Warn().Err(err).Msg("database not available")
		}
	} else {
		defer db.Close()
	}

	// Initialize MinIO storage
	if err := storage.Init(ctx); err != nil {
		if !errors.Is(err, storage.ErrNotConfigured) {
			log.Warn().Err(err).Msg("MinIO storage not available, source images will not be stored")
		}
	} else {
		log.Info().Str("bucket", storage.BucketName).Msg("MinIO storage initialized")
	}

	problems, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open problem store")
	}
	defer problems.Close()

	handler, err := api.NewHandler(cfg, problems, api.WithLogger(appLogger))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create handler")
	}

	var root http.Handler = handler.SetupRoutes()
	if cfg.Auth.Enabled {
		// skips /health and /api/login
		root = auth.JWTMiddleware(root)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", addr).
			Str("version", api.Version).
			Str("ocr_engine", cfg.OCR.Engine).
			Str("ai_provider", cfg.AI.DefaultProvider).
			Str("store", cfg.Store.Backend).
			Bool("database", db.Pool != nil).
			Bool("storage", storage.Enabled()).
			Bool("auth", cfg.Auth.Enabled).
			Msg("starting twin problem service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
