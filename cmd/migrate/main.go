package main

import (
	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, ServiceName: "foodgram-migrate"})

	db, err := database.New(cfg)
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(db.DB); err != nil {
		logging.L().Fatal().Err(err).Msg("migration failed")
	}
	logging.L().Info().Msg("all migrations applied successfully")
}
