package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToggleAction is the requested direction of a relation toggle.
type ToggleAction int

const (
	ToggleUnknown ToggleAction = iota
	ToggleAdd
	ToggleRemove
)

func (a ToggleAction) String() string {
	switch a {
	case ToggleAdd:
		return "add"
	case ToggleRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Toggler adds or removes one (viewer, target) relation.
type Toggler interface {
	// Relation names the relation for logs and metrics.
	Relation() string
	// Add creates the relation and returns the target summary.
	Add(ctx context.Context, viewer types.Viewer, targetID uint) (any, error)
	// Remove deletes the relation.
	Remove(ctx context.Context, viewer types.Viewer, targetID uint) error
}

// Toggle dispatches action to t. Add returns the target summary; Remove
// returns nil. Any other action is ErrMethodNotAllowed.
func Toggle(ctx context.Context, t Toggler, action ToggleAction, viewer types.Viewer, targetID uint) (any, error) {
	if !viewer.Authenticated() {
		return nil, ErrUnauthorized
	}

	var (
		result any
		err    error
	)
	switch action {
	case ToggleAdd:
		result, err = t.Add(ctx, viewer, targetID)
	case ToggleRemove:
		err = t.Remove(ctx, viewer, targetID)
	default:
		err = ErrMethodNotAllowed
	}

	metrics.RecordToggle(t.Relation(), action.String(), toggleOutcome(err))
	if err == nil {
		logging.Ctx(ctx).Debug().
			Str("relation", t.Relation()).
			Str("action", action.String()).
			Uint("target_id", targetID).
			Msg("relation toggled")
	}
	return result, err
}

func toggleOutcome(err error) string {
	var domainErr *Error
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &domainErr) && domainErr.Code == CodeConflict:
		return "conflict"
	case errors.As(err, &domainErr) && domainErr.Code == CodeRelationMissing:
		return "missing"
	case errors.As(err, &domainErr) && domainErr.Code == CodeNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// relationSpec parameterizes the shared add/remove logic.
type relationSpec struct {
	table        string
	targetColumn string
	existsMsg    string
	missingMsg   string
	newRow       func(userID, targetID uint) interface{}
}

var (
	favoriteSpec = relationSpec{
		table:        "favorites",
		targetColumn: "recipe_id",
		existsMsg:    "Этот рецепт уже есть в Избранном",
		missingMsg:   "Этот рецепт не найден в Избранном",
		newRow: func(userID, targetID uint) interface{} {
			return &models.Favorite{UserID: userID, RecipeID: targetID}
		},
	}
	cartSpec = relationSpec{
		table:        "shopping_cart",
		targetColumn: "recipe_id",
		existsMsg:    "Этот рецепт уже есть в Корзине",
		missingMsg:   "Этот рецепт не найден в Корзине",
		newRow: func(userID, targetID uint) interface{} {
			return &models.ShoppingCart{UserID: userID, RecipeID: targetID}
		},
	}
	followSpec = relationSpec{
		table:        "follows",
		targetColumn: "author_id",
		existsMsg:    "Вы уже подписаны на этого Автора",
		missingMsg:   "Вы не подписаны на этого Автора",
		newRow: func(userID, targetID uint) interface{} {
			return &models.Follow{UserID: userID, AuthorID: targetID}
		},
	}
)

func (spec relationSpec) where(userID, targetID uint) map[string]interface{} {
	return map[string]interface{}{"user_id": userID, spec.targetColumn: targetID}
}

// add inserts the relation row. A row that already exists, found either
// by the check or by the unique index, is a conflict.
func (spec relationSpec) add(ctx context.Context, db *gorm.DB, userID, targetID uint) error {
	var count int64
	if err := db.WithContext(ctx).Table(spec.table).Where(spec.where(userID, targetID)).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check %s: %w", spec.table, err)
	}
	if count > 0 {
		return Conflict(spec.existsMsg)
	}
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(spec.newRow(userID, targetID)).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return Conflict(spec.existsMsg)
		}
		return fmt.Errorf("failed to insert into %s: %w", spec.table, err)
	}
	return nil
}

func (spec relationSpec) remove(ctx context.Context, db *gorm.DB, userID, targetID uint) error {
	res := db.WithContext(ctx).Where(spec.where(userID, targetID)).Delete(spec.newRow(0, 0))
	if res.Error != nil {
		return fmt.Errorf("failed to delete from %s: %w", spec.table, res.Error)
	}
	if res.RowsAffected == 0 {
		return RelationMissing(spec.missingMsg)
	}
	return nil
}

// FavoriteToggle toggles a recipe in the viewer's favorites.
type FavoriteToggle struct {
	db      *gorm.DB
	recipes *RecipeService
}

func NewFavoriteToggle(db *gorm.DB, recipes *RecipeService) *FavoriteToggle {
	return &FavoriteToggle{db: db, recipes: recipes}
}

func (t *FavoriteToggle) Relation() string { return "favorite" }

func (t *FavoriteToggle) Add(ctx context.Context, viewer types.Viewer, recipeID uint) (any, error) {
	return addRecipeRelation(ctx, t.db, t.recipes, favoriteSpec, viewer, recipeID)
}

func (t *FavoriteToggle) Remove(ctx context.Context, viewer types.Viewer, recipeID uint) error {
	return removeRecipeRelation(ctx, t.db, t.recipes, favoriteSpec, viewer, recipeID)
}

// CartToggle toggles a recipe in the viewer's shopping cart.
type CartToggle struct {
	db      *gorm.DB
	recipes *RecipeService
}

func NewCartToggle(db *gorm.DB, recipes *RecipeService) *CartToggle {
	return &CartToggle{db: db, recipes: recipes}
}

func (t *CartToggle) Relation() string { return "shopping_cart" }

func (t *CartToggle) Add(ctx context.Context, viewer types.Viewer, recipeID uint) (any, error) {
	return addRecipeRelation(ctx, t.db, t.recipes, cartSpec, viewer, recipeID)
}

func (t *CartToggle) Remove(ctx context.Context, viewer types.Viewer, recipeID uint) error {
	return removeRecipeRelation(ctx, t.db, t.recipes, cartSpec, viewer, recipeID)
}

func addRecipeRelation(ctx context.Context, db *gorm.DB, recipes *RecipeService, spec relationSpec, viewer types.Viewer, recipeID uint) (any, error) {
	short, err := recipes.Short(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := spec.add(ctx, db, viewer.UserID, recipeID); err != nil {
		return nil, err
	}
	return *short, nil
}

func removeRecipeRelation(ctx context.Context, db *gorm.DB, recipes *RecipeService, spec relationSpec, viewer types.Viewer, recipeID uint) error {
	if _, err := recipes.find(ctx, recipeID); err != nil {
		return err
	}
	return spec.remove(ctx, db, viewer.UserID, recipeID)
}

// FollowToggle toggles the viewer's subscription to an author.
type FollowToggle struct {
	db           *gorm.DB
	users        *UserService
	recipesLimit int
}

// NewFollowToggle renders added subscriptions with up to recipesLimit
// recipes; a negative limit means all.
func NewFollowToggle(db *gorm.DB, users *UserService, recipesLimit int) *FollowToggle {
	return &FollowToggle{db: db, users: users, recipesLimit: recipesLimit}
}

func (t *FollowToggle) Relation() string { return "follow" }

func (t *FollowToggle) Add(ctx context.Context, viewer types.Viewer, authorID uint) (any, error) {
	author, err := t.users.find(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.ID == viewer.UserID {
		return nil, Conflict(MsgSelfFollow)
	}
	if err := followSpec.add(ctx, t.db, viewer.UserID, authorID); err != nil {
		return nil, err
	}
	views, err := t.users.subscriptionViews(ctx, []models.User{*author}, t.recipesLimit)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (t *FollowToggle) Remove(ctx context.Context, viewer types.Viewer, authorID uint) error {
	if _, err := t.users.find(ctx, authorID); err != nil {
		return err
	}
	return followSpec.remove(ctx, t.db, viewer.UserID, authorID)
}
