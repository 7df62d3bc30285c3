package testhelpers

import (
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseSetup(t *testing.T) {
	db := SetupTestDB(t)
	assert.NotNil(t, db)

	author := CreateUser(t, db, "author")
	reader := CreateUser(t, db, "reader")
	tag := CreateTag(t, db, "dinner")
	salt := CreateIngredient(t, db, "salt", "g")
	recipe := CreateRecipe(t, db, author, "stew", []*models.Tag{tag}, IngredientAmount{Ingredient: salt, Amount: 5})
	AddFavorite(t, db, reader, recipe)
	AddToCart(t, db, reader, recipe)
	AddFollow(t, db, reader, author)

	var loaded models.Recipe
	require.NoError(t, db.Preload("Tags").Preload("Amounts").First(&loaded, recipe.ID).Error)
	assert.Equal(t, author.ID, loaded.AuthorID)
	assert.Len(t, loaded.Tags, 1)
	require.Len(t, loaded.Amounts, 1)
	assert.Equal(t, 5, loaded.Amounts[0].Amount)

	for _, model := range []interface{}{&models.Favorite{}, &models.ShoppingCart{}, &models.Follow{}} {
		var n int64
		require.NoError(t, db.Model(model).Where("user_id = ?", reader.ID).Count(&n).Error)
		assert.EqualValues(t, 1, n)
	}
}

func TestSetupTestDBIsolated(t *testing.T) {
	first := SetupTestDB(t)
	CreateUser(t, first, "only-here")

	second := SetupTestDB(t)
	var n int64
	require.NoError(t, second.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}
