package service

import (
	"context"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	existsFavorite = "EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = recipes.id AND f.user_id = ?)"
	existsInCart   = "EXISTS (SELECT 1 FROM shopping_cart sc WHERE sc.recipe_id = recipes.id AND sc.user_id = ?)"
	hasAnyTag      = "recipes.id IN (SELECT rt.recipe_id FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id WHERE t.slug IN ?)"
)

// annotatedRow is a recipe id with its per-viewer flags.
type annotatedRow struct {
	ID               uint
	IsFavorited      bool
	IsInShoppingCart bool
}

// annotationSelect selects the recipe id and both flags. Anonymous
// viewers get constant false, no subqueries are emitted.
func annotationSelect(viewer types.Viewer) clause.Expression {
	if !viewer.Authenticated() {
		return clause.Expr{SQL: "recipes.id, FALSE AS is_favorited, FALSE AS is_in_shopping_cart"}
	}
	return clause.Expr{
		SQL:  "recipes.id, " + existsFavorite + " AS is_favorited, " + existsInCart + " AS is_in_shopping_cart",
		Vars: []interface{}{viewer.UserID, viewer.UserID},
	}
}

// filtered builds the narrowed recipe query. ok is false when the filter
// can match nothing for this viewer.
func filtered(db *gorm.DB, viewer types.Viewer, filter types.RecipeFilter) (q *gorm.DB, ok bool) {
	q = db.Model(&models.Recipe{})

	if filter.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if slugs := uniqueStrings(filter.Tags); len(slugs) > 0 {
		q = q.Where(hasAnyTag, slugs)
	}
	if filter.IsFavorited {
		if !viewer.Authenticated() {
			return q, false
		}
		q = q.Where(existsFavorite, viewer.UserID)
	}
	if filter.IsInShoppingCart {
		if !viewer.Authenticated() {
			return q, false
		}
		q = q.Where(existsInCart, viewer.UserID)
	}
	return q, true
}

// queryAnnotated returns one page of annotated ids, newest first, and the total.
func (s *RecipeService) queryAnnotated(ctx context.Context, viewer types.Viewer, filter types.RecipeFilter, page types.PageRequest) ([]annotatedRow, int64, error) {
	base, ok := filtered(s.db.WithContext(ctx), viewer, filter)
	if !ok {
		return nil, 0, nil
	}

	var count int64
	if err := base.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	if count == 0 {
		return nil, 0, nil
	}

	page = page.Normalize()
	var rows []annotatedRow
	err := base.Session(&gorm.Session{}).
		Clauses(clause.Select{Expression: annotationSelect(viewer)}).
		Order("recipes.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	return rows, count, nil
}

// annotateOne returns the flags for a single recipe, or ErrNotFound.
func (s *RecipeService) annotateOne(ctx context.Context, viewer types.Viewer, id uint) (annotatedRow, error) {
	var rows []annotatedRow
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Clauses(clause.Select{Expression: annotationSelect(viewer)}).
		Where("recipes.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return annotatedRow{}, fmt.Errorf("failed to get recipe: %w", err)
	}
	if len(rows) == 0 {
		return annotatedRow{}, ErrNotFound
	}
	return rows[0], nil
}

// loadRecipes fetches recipes with author, tags and ingredients, keyed by id.
func loadRecipes(db *gorm.DB, ids []uint) (map[uint]*models.Recipe, error) {
	if len(ids) == 0 {
		return map[uint]*models.Recipe{}, nil
	}
	var recipes []models.Recipe
	err := db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Amounts", func(db *gorm.DB) *gorm.DB { return db.Order("amounts.id") }).
		Preload("Amounts.Ingredient").
		Where("recipes.id IN ?", ids).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	byID := make(map[uint]*models.Recipe, len(recipes))
	for i := range recipes {
		byID[recipes[i].ID] = &recipes[i]
	}
	return byID, nil
}

// followedAmong returns which of authorIDs the viewer follows.
func followedAmong(db *gorm.DB, viewer types.Viewer, authorIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(authorIDs))
	if !viewer.Authenticated() || len(authorIDs) == 0 {
		return out, nil
	}
	var followed []uint
	err := db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id IN ?", viewer.UserID, authorIDs).
		Pluck("author_id", &followed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load follows: %w", err)
	}
	for _, id := range followed {
		out[id] = true
	}
	return out, nil
}

func uniqueStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func uniqueUints(in []uint) []uint {
	seen := make(map[uint]struct{}, len(in))
	out := make([]uint, 0, len(in))
	for _, v := range in {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
