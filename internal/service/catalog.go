package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscaper escapes LIKE wildcards; '!' is the escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// CatalogService serves the read-only tag and ingredient dictionaries.
type CatalogService struct {
	db        *gorm.DB
	validator *validation.Validator
}

var _ ICatalogService = (*CatalogService)(nil)

func NewCatalogService(db *gorm.DB, v *validation.Validator) *CatalogService {
	return &CatalogService{db: db, validator: v}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.TagView, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	views := make([]types.TagView, 0, len(tags))
	for i := range tags {
		views = append(views, types.NewTagView(&tags[i]))
	}
	return views, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*types.TagView, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	view := types.NewTagView(&tag)
	return &view, nil
}

// ListIngredients returns ingredients whose name starts with prefix,
// case-insensitively. An empty prefix returns all.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]types.IngredientView, error) {
	q := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", likeEscaper.Replace(strings.ToLower(prefix))+"%")
	}
	var ingredients []models.Ingredient
	if err := q.Order("id").Order("name").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	views := make([]types.IngredientView, 0, len(ingredients))
	for i := range ingredients {
		views = append(views, types.NewIngredientView(&ingredients[i]))
	}
	return views, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*types.IngredientView, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	view := types.NewIngredientView(&ingredient)
	return &view, nil
}

// SeedTags validates and upserts tags by slug. It returns the number written.
func (s *CatalogService) SeedTags(ctx context.Context, seeds []types.TagSeed) (int, error) {
	tags := make([]models.Tag, 0, len(seeds))
	for i := range seeds {
		if err := fromValidation(s.validator.Validate(&seeds[i])); err != nil {
			return 0, fmt.Errorf("tag %d (%s): %w", i, seeds[i].Slug, err)
		}
		tags = append(tags, models.Tag{Name: seeds[i].Name, Color: seeds[i].Color, Slug: seeds[i].Slug})
	}
	if len(tags) == 0 {
		return 0, nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "color"}),
	}).Create(&tags).Error
	if err != nil {
		return 0, fmt.Errorf("failed to seed tags: %w", err)
	}
	logging.Ctx(ctx).Info().Int("count", len(tags)).Msg("tags seeded")
	return len(tags), nil
}

// SeedIngredients validates ingredients and inserts those not already
// present with the same name and unit. It returns the number inserted.
func (s *CatalogService) SeedIngredients(ctx context.Context, seeds []types.IngredientSeed) (int, error) {
	type key struct{ name, unit string }

	var existing []models.Ingredient
	if err := s.db.WithContext(ctx).Select("name", "measurement_unit").Find(&existing).Error; err != nil {
		return 0, fmt.Errorf("failed to load ingredients: %w", err)
	}
	seen := make(map[key]bool, len(existing)+len(seeds))
	for _, i := range existing {
		seen[key{i.Name, i.MeasurementUnit}] = true
	}

	fresh := make([]models.Ingredient, 0, len(seeds))
	for i := range seeds {
		if err := fromValidation(s.validator.Validate(&seeds[i])); err != nil {
			return 0, fmt.Errorf("ingredient %d (%s): %w", i, seeds[i].Name, err)
		}
		k := key{seeds[i].Name, seeds[i].MeasurementUnit}
		if seen[k] {
			continue
		}
		seen[k] = true
		fresh = append(fresh, models.Ingredient{Name: k.name, MeasurementUnit: k.unit})
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&fresh, 500).Error; err != nil {
		return 0, fmt.Errorf("failed to seed ingredients: %w", err)
	}
	logging.Ctx(ctx).Info().Int("count", len(fresh)).Msg("ingredients seeded")
	return len(fresh), nil
}
