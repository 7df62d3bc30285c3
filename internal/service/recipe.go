package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgRequired          = "Обязательное поле."
	msgBlank             = "Это поле не может быть пустым."
	msgEmptyList         = "Этот список не может быть пустым."
	msgCookingTime       = "Время приготовления должно быть мнинмум 1 минута!"
	msgNoIngredients     = "Должен присутствовать минимум один ингредиент"
	msgDuplicateIngr     = "Ингредиент в рецепте должен встречаться не более одного раза."
	msgAmountMin         = "Убедитесь, что это значение больше либо равно 1."
	msgNameTooLong       = "Убедитесь, что это значение содержит не более 150 символов."
	msgInvalidPrimaryKey = "Недопустимый первичный ключ \"%d\" - объект не существует."
	recipeNameMaxLen     = 150
	defaultCookingTime   = 1
)

type RecipeService struct {
	db     *gorm.DB
	images *ImageService
}

var _ IRecipeService = (*RecipeService)(nil)

func NewRecipeService(db *gorm.DB, images *ImageService) *RecipeService {
	return &RecipeService{db: db, images: images}
}

// List returns one page of recipes, newest first, annotated for the viewer.
func (s *RecipeService) List(ctx context.Context, viewer types.Viewer, filter types.RecipeFilter, page types.PageRequest) ([]types.RecipeView, int64, error) {
	rows, count, err := s.queryAnnotated(ctx, viewer, filter, page)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.render(ctx, viewer, types.ActionList, rows)
	if err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

// Get returns one recipe annotated for the viewer.
func (s *RecipeService) Get(ctx context.Context, viewer types.Viewer, id uint) (*types.RecipeView, error) {
	return s.getAs(ctx, viewer, id, types.ActionRetrieve)
}

func (s *RecipeService) getAs(ctx context.Context, viewer types.Viewer, id uint, action types.Action) (*types.RecipeView, error) {
	row, err := s.annotateOne(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	views, err := s.render(ctx, viewer, action, []annotatedRow{row})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

// Short returns the summary view of a recipe, or ErrNotFound.
func (s *RecipeService) Short(ctx context.Context, id uint) (*types.RecipeShortView, error) {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := types.NewRecipeShortView(recipe, s.images.URL(recipe.Image))
	return &view, nil
}

func (s *RecipeService) render(ctx context.Context, viewer types.Viewer, action types.Action, rows []annotatedRow) ([]types.RecipeView, error) {
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	db := s.db.WithContext(ctx)
	byID, err := loadRecipes(db, ids)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]uint, 0, len(byID))
	for _, r := range byID {
		authorIDs = append(authorIDs, r.AuthorID)
	}
	followed, err := followedAmong(db, viewer, uniqueUints(authorIDs))
	if err != nil {
		return nil, err
	}

	views := make([]types.RecipeView, 0, len(rows))
	for _, row := range rows {
		recipe, ok := byID[row.ID]
		if !ok {
			continue
		}
		view, ok := types.RecipeViewFor(action, types.RecipeViewInput{
			Recipe:           recipe,
			Flags:            types.RecipeFlags{IsFavorited: row.IsFavorited, IsInShoppingCart: row.IsInShoppingCart},
			AuthorSubscribed: followed[recipe.AuthorID],
			ImageURL:         s.images.URL(recipe.Image),
		}).(types.RecipeView)
		if !ok {
			return nil, fmt.Errorf("action %s does not render a full recipe", action)
		}
		views = append(views, view)
	}
	return views, nil
}

// Create validates and stores a recipe authored by the viewer.
func (s *RecipeService) Create(ctx context.Context, viewer types.Viewer, req *types.RecipeRequest) (*types.RecipeView, error) {
	if !viewer.Authenticated() {
		return nil, ErrUnauthorized
	}

	fields := FieldErrors{}
	if req.Name == nil {
		fields.Add("name", msgRequired)
	}
	if req.Text == nil {
		fields.Add("text", msgRequired)
	}
	if req.Image == nil && req.ImageUpload == nil {
		fields.Add("image", msgRequired)
	}
	if req.Ingredients == nil {
		fields.Add("ingredients", msgRequired)
	}
	if req.Tags == nil {
		fields.Add("tags", msgRequired)
	}
	tags, err := s.validate(ctx, req, fields)
	if err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	imageKey, err := s.saveImage(ctx, req)
	if err != nil {
		return nil, err
	}

	cookingTime := defaultCookingTime
	if req.CookingTime != nil {
		cookingTime = int(*req.CookingTime)
	}
	recipe := &models.Recipe{
		AuthorID:    viewer.UserID,
		Name:        strings.TrimSpace(*req.Name),
		Image:       imageKey,
		Text:        *req.Text,
		CookingTime: cookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("failed to set recipe tags: %w", err)
		}
		return createAmounts(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		s.images.Delete(ctx, imageKey)
		return nil, err
	}

	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("author_id", viewer.UserID).Msg("recipe created")
	return s.getAs(ctx, viewer, recipe.ID, types.ActionCreate)
}

// Update patches a recipe owned by the viewer. Ingredients and tags, when
// present, replace the stored sets.
func (s *RecipeService) Update(ctx context.Context, viewer types.Viewer, id uint, req *types.RecipeRequest) (*types.RecipeView, error) {
	recipe, err := s.owned(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	fields := FieldErrors{}
	tags, err := s.validate(ctx, req, fields)
	if err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	oldImage := recipe.Image
	newImage := ""
	if req.Image != nil || req.ImageUpload != nil {
		if newImage, err = s.saveImage(ctx, req); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Text != nil {
		updates["text"] = *req.Text
	}
	if req.CookingTime != nil {
		updates["cooking_time"] = int(*req.CookingTime)
	}
	if newImage != "" {
		updates["image"] = newImage
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Recipe{ID: recipe.ID}).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update recipe: %w", err)
			}
		}
		if req.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Amount{}).Error; err != nil {
				return fmt.Errorf("failed to clear ingredients: %w", err)
			}
			if err := createAmounts(tx, recipe.ID, req.Ingredients); err != nil {
				return err
			}
		}
		if req.Tags != nil {
			if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
				return fmt.Errorf("failed to replace recipe tags: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if newImage != "" {
			s.images.Delete(ctx, newImage)
		}
		return nil, err
	}
	if newImage != "" && oldImage != "" {
		s.images.Delete(ctx, oldImage)
	}

	return s.getAs(ctx, viewer, recipe.ID, types.ActionUpdate)
}

// Delete removes a recipe owned by the viewer; relations cascade.
func (s *RecipeService) Delete(ctx context.Context, viewer types.Viewer, id uint) error {
	recipe, err := s.owned(ctx, viewer, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Recipe{}, recipe.ID).Error; err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	s.images.Delete(ctx, recipe.Image)
	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Msg("recipe deleted")
	return nil
}

func (s *RecipeService) find(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

// owned loads a recipe and checks the viewer is its author.
func (s *RecipeService) owned(ctx context.Context, viewer types.Viewer, id uint) (*models.Recipe, error) {
	if !viewer.Authenticated() {
		return nil, ErrUnauthorized
	}
	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != viewer.UserID {
		return nil, ErrForbidden
	}
	return recipe, nil
}

// validate checks every provided field and resolves the tag set.
func (s *RecipeService) validate(ctx context.Context, req *types.RecipeRequest, fields FieldErrors) ([]models.Tag, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		switch {
		case name == "":
			fields.Add("name", msgBlank)
		case utf8.RuneCountInString(name) > recipeNameMaxLen:
			fields.Add("name", msgNameTooLong)
		}
	}
	if req.Text != nil && strings.TrimSpace(*req.Text) == "" {
		fields.Add("text", msgBlank)
	}
	if req.CookingTime != nil && *req.CookingTime < 1 {
		fields.Add("cooking_time", msgCookingTime)
	}
	if req.Image != nil && req.ImageUpload == nil && *req.Image == "" {
		fields.Add("image", msgBlank)
	}

	if req.Ingredients != nil {
		if err := s.validateIngredients(ctx, req.Ingredients, fields); err != nil {
			return nil, err
		}
	}

	if req.Tags == nil {
		return nil, nil
	}
	if len(req.Tags) == 0 {
		fields.Add("tags", msgEmptyList)
		return nil, nil
	}
	ids := uniqueUints(req.Tags)
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	if len(tags) != len(ids) {
		found := make(map[uint]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				fields.Add("tags", fmt.Sprintf(msgInvalidPrimaryKey, id))
			}
		}
	}
	return tags, nil
}

func (s *RecipeService) validateIngredients(ctx context.Context, items []types.IngredientAmountInput, fields FieldErrors) error {
	if len(items) == 0 {
		fields.Add("ingredients", msgNoIngredients)
		return nil
	}

	seen := make(map[uint]bool, len(items))
	ids := make([]uint, 0, len(items))
	duplicate := false
	for _, item := range items {
		if item.Amount < 1 {
			fields.Add("ingredients", msgAmountMin)
		}
		if seen[item.ID] {
			duplicate = true
			continue
		}
		seen[item.ID] = true
		ids = append(ids, item.ID)
	}
	if duplicate {
		fields.Add("ingredients", msgDuplicateIngr)
	}

	var found []uint
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("failed to load ingredients: %w", err)
	}
	if len(found) != len(ids) {
		exists := make(map[uint]bool, len(found))
		for _, id := range found {
			exists[id] = true
		}
		for _, id := range ids {
			if !exists[id] {
				fields.Add("ingredients", fmt.Sprintf(msgInvalidPrimaryKey, id))
			}
		}
	}
	return nil
}

func (s *RecipeService) saveImage(ctx context.Context, req *types.RecipeRequest) (string, error) {
	if req.ImageUpload != nil {
		return s.images.SaveUpload(ctx, req.ImageUpload)
	}
	return s.images.SaveDataURI(ctx, *req.Image)
}

func createAmounts(tx *gorm.DB, recipeID uint, items []types.IngredientAmountInput) error {
	amounts := make([]models.Amount, 0, len(items))
	for _, item := range items {
		amounts = append(amounts, models.Amount{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       int(item.Amount),
		})
	}
	if err := tx.Omit(clause.Associations).Create(&amounts).Error; err != nil {
		return fmt.Errorf("failed to create ingredient amounts: %w", err)
	}
	return nil
}
