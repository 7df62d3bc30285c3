package database

import (
	"fmt"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// RunMigrations brings the schema up to date with the models.
func RunMigrations(db *gorm.DB) error {
	logging.L().Info().Str("dialect", db.Dialector.Name()).Msg("running auto-migration")
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
