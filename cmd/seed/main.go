// Command seed loads the tag and ingredient catalogs from JSON fixture files.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.json", "ingredient fixture file")
	tagsPath := flag.String("tags", "data/tags.json", "tag fixture file (skipped when empty)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, ServiceName: "foodgram-seed"})
	log := logging.L()

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	if err := database.RunMigrations(db.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	catalog := service.NewCatalogService(db.DB, validation.New())
	ctx := context.Background()

	if *tagsPath != "" {
		var tags []types.TagSeed
		if err := readJSON(*tagsPath, &tags); err != nil {
			log.Fatal().Err(err).Msg("failed to read tags")
		}
		n, err := catalog.SeedTags(ctx, tags)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed tags")
		}
		log.Info().Int("count", n).Str("file", *tagsPath).Msg("tags loaded")
	}

	if *ingredientsPath != "" {
		var ingredients []types.IngredientSeed
		if err := readJSON(*ingredientsPath, &ingredients); err != nil {
			log.Fatal().Err(err).Msg("failed to read ingredients")
		}
		n, err := catalog.SeedIngredients(ctx, ingredients)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed ingredients")
		}
		log.Info().Int("created", n).Str("file", *ingredientsPath).Msg("ingredients loaded")
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
