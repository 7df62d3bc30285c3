package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListIngredientsPrefix(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testhelpers.CreateIngredient(t, f.db, "Salt", "g")
	testhelpers.CreateIngredient(t, f.db, "salmon", "g")
	testhelpers.CreateIngredient(t, f.db, "sea salt", "g")
	testhelpers.CreateIngredient(t, f.db, "s_pepper", "g")
	testhelpers.CreateIngredient(t, f.db, "s%sugar", "g")

	names := func(prefix string) []string {
		views, err := f.catalog.ListIngredients(ctx, prefix)
		require.NoError(t, err)
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Salt", "salmon"}, names("SAL"))
	assert.Equal(t, []string{"sea salt"}, names("sea"))
	assert.Equal(t, []string{"s_pepper"}, names("s_"))
	assert.Equal(t, []string{"s%sugar"}, names("s%"))
	assert.Len(t, names(""), 5)
	assert.Empty(t, names("alt"))
}

func TestCatalogGet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tag := testhelpers.CreateTag(t, f.db, "soup")
	ing := testhelpers.CreateIngredient(t, f.db, "water", "ml")

	tagView, err := f.catalog.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TagView{ID: tag.ID, Name: "Tag soup", Color: "#E26C2D", Slug: "soup"}, *tagView)

	ingView, err := f.catalog.GetIngredient(ctx, ing.ID)
	require.NoError(t, err)
	assert.Equal(t, "ml", ingView.MeasurementUnit)

	_, err = f.catalog.GetTag(ctx, 404)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.catalog.GetIngredient(ctx, 404)
	assert.ErrorIs(t, err, service.ErrNotFound)

	tags, err := f.catalog.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestSeedTags(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n, err := f.catalog.SeedTags(ctx, []types.TagSeed{
		{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Обед", Color: "#49B64E", Slug: "lunch"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.catalog.SeedTags(ctx, []types.TagSeed{{Name: "Завтрак!", Color: "#FFF", Slug: "breakfast"}})
	require.NoError(t, err)

	var tag models.Tag
	require.NoError(t, f.db.Where("slug = ?", "breakfast").First(&tag).Error)
	assert.Equal(t, "Завтрак!", tag.Name)
	assert.Equal(t, "#FFF", tag.Color)

	_, err = f.catalog.SeedTags(ctx, []types.TagSeed{{Name: "bad", Color: "red", Slug: "bad slug"}})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestSeedIngredientsSkipsExisting(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	seeds := []types.IngredientSeed{
		{Name: "абрикосы", MeasurementUnit: "г"},
		{Name: "абрикосы", MeasurementUnit: "шт"},
		{Name: "абрикосы", MeasurementUnit: "г"},
	}

	n, err := f.catalog.SeedIngredients(ctx, seeds)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.catalog.SeedIngredients(ctx, seeds)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.catalog.SeedIngredients(ctx, []types.IngredientSeed{{Name: ""}})
	assert.ErrorIs(t, err, service.ErrValidation)
}
