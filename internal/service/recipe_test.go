package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest(tagIDs []uint, items ...types.IngredientAmountInput) *types.RecipeRequest {
	return &types.RecipeRequest{
		Ingredients: items,
		Tags:        tagIDs,
		Image:       ptr(pngDataURI),
		Name:        ptr("Борщ"),
		Text:        ptr("Варить долго"),
		CookingTime: ptr(types.Integer(90)),
	}
}

func TestCreateRecipe(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, f.db, "author")
	breakfast := testhelpers.CreateTag(t, f.db, "breakfast")
	beet := testhelpers.CreateIngredient(t, f.db, "свекла", "г")
	salt := testhelpers.CreateIngredient(t, f.db, "соль", "щепотка")

	view, err := f.recipes.Create(ctx, types.NewViewer(author.ID), validRequest(
		[]uint{breakfast.ID},
		types.IngredientAmountInput{ID: beet.ID, Amount: 300},
		types.IngredientAmountInput{ID: salt.ID, Amount: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, "Борщ", view.Name)
	assert.Equal(t, 90, view.CookingTime)
	assert.Equal(t, author.ID, view.Author.ID)
	assert.False(t, view.Author.IsSubscribed)
	assert.False(t, view.IsFavorited)
	assert.False(t, view.IsInShoppingCart)
	require.Len(t, view.Tags, 1)
	assert.Equal(t, "breakfast", view.Tags[0].Slug)
	require.Len(t, view.Ingredients, 2)
	assert.Equal(t, types.AmountView{ID: beet.ID, Name: "свекла", MeasurementUnit: "г", Amount: 300}, view.Ingredients[0])

	require.True(t, strings.HasPrefix(view.Image, "/media/recipes/images/"))
	assert.True(t, strings.HasSuffix(view.Image, ".png"))
	key := strings.TrimPrefix(view.Image, "/media/")
	_, err = os.Stat(filepath.Join(f.store.BasePath(), key))
	assert.NoError(t, err)
}

func TestCreateRecipeDefaultsCookingTime(t *testing.T) {
	f := setup(t)
	author := testhelpers.CreateUser(t, f.db, "author")
	tag := testhelpers.CreateTag(t, f.db, "dinner")
	egg := testhelpers.CreateIngredient(t, f.db, "яйцо", "шт")

	req := validRequest([]uint{tag.ID}, types.IngredientAmountInput{ID: egg.ID, Amount: 2})
	req.CookingTime = nil
	view, err := f.recipes.Create(context.Background(), types.NewViewer(author.ID), req)
	require.NoError(t, err)
	assert.Equal(t, 1, view.CookingTime)

	var stored models.Recipe
	require.NoError(t, f.db.First(&stored, view.ID).Error)
	assert.Equal(t, 1, stored.CookingTime)
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	f := setup(t)
	_, err := f.recipes.Create(context.Background(), types.Anonymous, validRequest(nil))
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, f.db, "author")
	viewer := types.NewViewer(author.ID)
	tag := testhelpers.CreateTag(t, f.db, "lunch")
	egg := testhelpers.CreateIngredient(t, f.db, "яйцо", "шт")

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.recipes.Create(ctx, viewer, &types.RecipeRequest{})
		for _, field := range []string{"name", "text", "image", "ingredients", "tags"} {
			assert.Contains(t, requireFieldError(t, err, field), "Обязательное поле.")
		}
		var fieldErr *service.Error
		require.ErrorAs(t, err, &fieldErr)
		assert.NotContains(t, fieldErr.Fields, "cooking_time")
	})

	t.Run("cooking time below one", func(t *testing.T) {
		req := validRequest([]uint{tag.ID}, types.IngredientAmountInput{ID: egg.ID, Amount: 2})
		req.CookingTime = ptr(types.Integer(0))
		_, err := f.recipes.Create(ctx, viewer, req)
		assert.Equal(t, []string{"Время приготовления должно быть мнинмум 1 минута!"}, requireFieldError(t, err, "cooking_time"))
	})

	t.Run("empty ingredients", func(t *testing.T) {
		req := validRequest([]uint{tag.ID})
		req.Ingredients = []types.IngredientAmountInput{}
		_, err := f.recipes.Create(ctx, viewer, req)
		assert.Equal(t, []string{"Должен присутствовать минимум один ингредиент"}, requireFieldError(t, err, "ingredients"))
	})

	t.Run("duplicate ingredient", func(t *testing.T) {
		req := validRequest([]uint{tag.ID},
			types.IngredientAmountInput{ID: egg.ID, Amount: 2},
			types.IngredientAmountInput{ID: egg.ID, Amount: 3},
		)
		_, err := f.recipes.Create(ctx, viewer, req)
		assert.Contains(t, requireFieldError(t, err, "ingredients"), "Ингредиент в рецепте должен встречаться не более одного раза.")
	})

	t.Run("amount below one", func(t *testing.T) {
		req := validRequest([]uint{tag.ID}, types.IngredientAmountInput{ID: egg.ID, Amount: 0})
		_, err := f.recipes.Create(ctx, viewer, req)
		assert.Contains(t, requireFieldError(t, err, "ingredients"), "Убедитесь, что это значение больше либо равно 1.")
	})

	t.Run("unknown ids", func(t *testing.T) {
		req := validRequest([]uint{tag.ID, 999}, types.IngredientAmountInput{ID: 777, Amount: 1})
		_, err := f.recipes.Create(ctx, viewer, req)
		assert.Contains(t, requireFieldError(t, err, "tags"), `Недопустимый первичный ключ "999" - объект не существует.`)
		assert.Contains(t, requireFieldError(t, err, "ingredients"), `Недопустимый первичный ключ "777" - объект не существует.`)
	})

	t.Run("malformed image", func(t *testing.T) {
		req := validRequest([]uint{tag.ID}, types.IngredientAmountInput{ID: egg.ID, Amount: 1})
		req.Image = ptr("not-a-data-uri")
		_, err := f.recipes.Create(ctx, viewer, req)
		requireFieldError(t, err, "image")
	})

	var count int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListRecipesAnnotation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, f.db, "author")
	reader := testhelpers.CreateUser(t, f.db, "reader")
	first := testhelpers.CreateRecipe(t, f.db, author, "first", nil)
	second := testhelpers.CreateRecipe(t, f.db, author, "second", nil)
	testhelpers.AddFavorite(t, f.db, reader, first)
	testhelpers.AddToCart(t, f.db, reader, second)
	testhelpers.AddFollow(t, f.db, reader, author)

	views, count, err := f.recipes.List(ctx, types.NewViewer(reader.ID), types.RecipeFilter{}, types.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	require.Len(t, views, 2)

	// newest first
	assert.Equal(t, second.ID, views[0].ID)
	assert.False(t, views[0].IsFavorited)
	assert.True(t, views[0].IsInShoppingCart)
	assert.True(t, views[0].Author.IsSubscribed)
	assert.Equal(t, first.ID, views[1].ID)
	assert.True(t, views[1].IsFavorited)
	assert.False(t, views[1].IsInShoppingCart)

	anon, _, err := f.recipes.List(ctx, types.Anonymous, types.RecipeFilter{}, types.PageRequest{})
	require.NoError(t, err)
	for _, v := range anon {
		assert.False(t, v.IsFavorited)
		assert.False(t, v.IsInShoppingCart)
		assert.False(t, v.Author.IsSubscribed)
	}
}

func TestListRecipesFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := testhelpers.CreateUser(t, f.db, "alice")
	bob := testhelpers.CreateUser(t, f.db, "bob")
	breakfast := testhelpers.CreateTag(t, f.db, "breakfast")
	dinner := testhelpers.CreateTag(t, f.db, "dinner")

	both := testhelpers.CreateRecipe(t, f.db, alice, "both", []*models.Tag{breakfast, dinner})
	morning := testhelpers.CreateRecipe(t, f.db, alice, "morning", []*models.Tag{breakfast})
	untagged := testhelpers.CreateRecipe(t, f.db, bob, "untagged", nil)
	testhelpers.AddFavorite(t, f.db, bob, morning)
	testhelpers.AddToCart(t, f.db, bob, untagged)

	ids := func(views []types.RecipeView) []uint {
		out := make([]uint, 0, len(views))
		for _, v := range views {
			out = append(out, v.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		viewer types.Viewer
		filter types.RecipeFilter
		want   []uint
	}{
		{"author", types.Anonymous, types.RecipeFilter{AuthorID: &bob.ID}, []uint{untagged.ID}},
		{"any tag without duplicates", types.Anonymous, types.RecipeFilter{Tags: []string{"breakfast", "dinner", "breakfast"}}, []uint{morning.ID, both.ID}},
		{"single tag", types.Anonymous, types.RecipeFilter{Tags: []string{"dinner"}}, []uint{both.ID}},
		{"favorited", types.NewViewer(bob.ID), types.RecipeFilter{IsFavorited: true}, []uint{morning.ID}},
		{"in cart", types.NewViewer(bob.ID), types.RecipeFilter{IsInShoppingCart: true}, []uint{untagged.ID}},
		{"favorited anonymous", types.Anonymous, types.RecipeFilter{IsFavorited: true}, []uint{}},
		{"author and tag", types.Anonymous, types.RecipeFilter{AuthorID: &alice.ID, Tags: []string{"dinner"}}, []uint{both.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, count, err := f.recipes.List(ctx, tt.viewer, tt.filter, types.PageRequest{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(views))
			assert.EqualValues(t, len(tt.want), count)
		})
	}
}

func TestListRecipesPagination(t *testing.T) {
	f := setup(t)
	author := testhelpers.CreateUser(t, f.db, "author")
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		testhelpers.CreateRecipe(t, f.db, author, name, nil)
	}

	views, count, err := f.recipes.List(context.Background(), types.Anonymous, types.RecipeFilter{}, types.PageRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
	require.Len(t, views, 2)
	assert.Equal(t, "c", views[0].Name)
	assert.Equal(t, "b", views[1].Name)
}

func TestGetRecipeNotFound(t *testing.T) {
	f := setup(t)
	_, err := f.recipes.Get(context.Background(), types.Anonymous, 42)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateRecipeReplacesSets(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, f.db, "author")
	oldTag := testhelpers.CreateTag(t, f.db, "old")
	newTag := testhelpers.CreateTag(t, f.db, "new")
	flour := testhelpers.CreateIngredient(t, f.db, "мука", "г")
	milk := testhelpers.CreateIngredient(t, f.db, "молоко", "мл")
	recipe := testhelpers.CreateRecipe(t, f.db, author, "pancakes", []*models.Tag{oldTag},
		testhelpers.IngredientAmount{Ingredient: flour, Amount: 200})

	view, err := f.recipes.Update(ctx, types.NewViewer(author.ID), recipe.ID, &types.RecipeRequest{
		Ingredients: []types.IngredientAmountInput{{ID: milk.ID, Amount: 500}},
		Tags:        []uint{newTag.ID},
		Name:        ptr("Блины"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Блины", view.Name)
	assert.Equal(t, "Text for pancakes", view.Text)
	require.Len(t, view.Tags, 1)
	assert.Equal(t, newTag.ID, view.Tags[0].ID)
	require.Len(t, view.Ingredients, 1)
	assert.Equal(t, milk.ID, view.Ingredients[0].ID)
	assert.Equal(t, 500, view.Ingredients[0].Amount)

	var amounts int64
	require.NoError(t, f.db.Model(&models.Amount{}).Where("recipe_id = ?", recipe.ID).Count(&amounts).Error)
	assert.EqualValues(t, 1, amounts)
}

func TestUpdateRecipeKeepsUnsentSets(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, f.db, "author")
	tag := testhelpers.CreateTag(t, f.db, "keep")
	flour := testhelpers.CreateIngredient(t, f.db, "мука", "г")
	recipe := testhelpers.CreateRecipe(t, f.db, author, "bread", []*models.Tag{tag},
		testhelpers.IngredientAmount{Ingredient: flour, Amount: 500})

	view, err := f.recipes.Update(ctx, types.NewViewer(author.ID), recipe.ID, &types.RecipeRequest{CookingTime: ptr(types.Integer(45))})
	require.NoError(t, err)
	assert.Equal(t, 45, view.CookingTime)
	assert.Len(t, view.Tags, 1)
	assert.Len(t, view.Ingredients, 1)
}

func TestUpdateRecipeReplacesImage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, f.db, "author")
	tag := testhelpers.CreateTag(t, f.db, "t")
	egg := testhelpers.CreateIngredient(t, f.db, "яйцо", "шт")

	created, err := f.recipes.Create(ctx, types.NewViewer(author.ID), validRequest([]uint{tag.ID}, types.IngredientAmountInput{ID: egg.ID, Amount: 1}))
	require.NoError(t, err)
	oldPath := filepath.Join(f.store.BasePath(), strings.TrimPrefix(created.Image, "/media/"))

	updated, err := f.recipes.Update(ctx, types.NewViewer(author.ID), created.ID, &types.RecipeRequest{Image: ptr(pngDataURI)})
	require.NoError(t, err)
	assert.NotEqual(t, created.Image, updated.Image)

	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRecipeOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, f.db, "author")
	other := testhelpers.CreateUser(t, f.db, "other")
	recipe := testhelpers.CreateRecipe(t, f.db, author, "mine", nil)

	_, err := f.recipes.Update(ctx, types.NewViewer(other.ID), recipe.ID, &types.RecipeRequest{Name: ptr("stolen")})
	assert.ErrorIs(t, err, service.ErrForbidden)

	err = f.recipes.Delete(ctx, types.NewViewer(other.ID), recipe.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	err = f.recipes.Delete(ctx, types.Anonymous, recipe.ID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	err = f.recipes.Delete(ctx, types.NewViewer(author.ID), 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteRecipeCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	author := testhelpers.CreateUser(t, f.db, "author")
	reader := testhelpers.CreateUser(t, f.db, "reader")
	tag := testhelpers.CreateTag(t, f.db, "t")
	egg := testhelpers.CreateIngredient(t, f.db, "яйцо", "шт")
	recipe := testhelpers.CreateRecipe(t, f.db, author, "omelette", []*models.Tag{tag},
		testhelpers.IngredientAmount{Ingredient: egg, Amount: 3})
	testhelpers.AddFavorite(t, f.db, reader, recipe)
	testhelpers.AddToCart(t, f.db, reader, recipe)

	require.NoError(t, f.recipes.Delete(ctx, types.NewViewer(author.ID), recipe.ID))

	for _, model := range []interface{}{&models.Amount{}, &models.Favorite{}, &models.ShoppingCart{}} {
		var n int64
		require.NoError(t, f.db.Model(model).Where("recipe_id = ?", recipe.ID).Count(&n).Error)
		assert.Zero(t, n)
	}
	var links int64
	require.NoError(t, f.db.Table("recipe_tags").Where("recipe_id = ?", recipe.ID).Count(&links).Error)
	assert.Zero(t, links)
}
