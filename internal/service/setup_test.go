package service_test

import (
	"testing"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/validation"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 1x1 transparent PNG.
const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type fixture struct {
	db       *gorm.DB
	store    *storage.LocalStorage
	images   *service.ImageService
	recipes  *service.RecipeService
	users    *service.UserService
	catalog  *service.CatalogService
	shopping *service.ShoppingService
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	store, err := storage.NewLocalStorage(t.TempDir(), "/media/")
	require.NoError(t, err)

	v := validation.New()
	images := service.NewImageService(store)
	return &fixture{
		db:       db,
		store:    store,
		images:   images,
		recipes:  service.NewRecipeService(db, images),
		users:    service.NewUserService(db, images, v).WithBcryptCost(bcrypt.MinCost),
		catalog:  service.NewCatalogService(db, v),
		shopping: service.NewShoppingService(db),
	}
}

func ptr[T any](v T) *T { return &v }

// requireFieldError asserts err is a validation error on field.
func requireFieldError(t *testing.T, err error, field string) []string {
	t.Helper()
	var domainErr *service.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, service.CodeValidation, domainErr.Code)
	require.Contains(t, domainErr.Fields, field)
	return domainErr.Fields[field]
}
