package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, ServiceName: "foodgram-api"})
	log := logging.L()

	// Initialize database
	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if config.IsDevelopment() {
		if err := database.RunMigrations(db.DB); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	// Redis is optional: without it logout cannot revoke and writes are not rate limited
	var rdb *redis.Client
	if client, err := database.NewRedisClient(cfg); err != nil {
		log.Warn().Err(err).Msg("continuing without redis")
	} else {
		rdb = client
		defer rdb.Close()
	}

	store, err := newStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("failed to initialize image storage")
	}

	srv := server.New(cfg, db, rdb, store)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)

	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("received signal")
	}

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
		return
	}
	log.Info().Msg("server stopped")
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageBackend == "s3" {
		s3cfg, err := config.NewS3Config(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Storage(s3cfg), nil
	}
	return storage.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
}
