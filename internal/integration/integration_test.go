package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// setupStack runs the whole server on Postgres and Redis containers.
func setupStack(t *testing.T, rateLimit int) (*gin.Engine, *database.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := &database.DB{DB: testhelpers.SetupPostgresDB(t)}
	rdb := testhelpers.SetupRedis(t)
	store, err := storage.NewLocalStorage(t.TempDir(), "/media/")
	require.NoError(t, err)

	cfg := &config.Config{
		ServerHost:      "127.0.0.1",
		ServerPort:      "0",
		JWTSecret:       "integration-secret",
		JWTTTL:          time.Hour,
		CORSOrigins:     []string{"*"},
		RateLimit:       rateLimit,
		RateLimitWindow: time.Minute,
	}
	return server.New(cfg, db, rdb, store).Router(), db
}

func register(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := testhelpers.PerformRequest(t, r, http.MethodPost, "/api/users", types.CreateUserRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  testhelpers.TestPassword,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = testhelpers.PerformRequest(t, r, http.MethodPost, "/api/auth/token/login", types.LoginRequest{
		Email:    username + "@example.com",
		Password: testhelpers.TestPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token types.TokenResponse
	testhelpers.DecodeJSON(t, w, &token)
	return token.AuthToken
}

func TestRecipeLifecycle(t *testing.T) {
	r, db := setupStack(t, 100)

	tag := testhelpers.CreateTag(t, db.DB, "dinner")
	potato := testhelpers.CreateIngredient(t, db.DB, "картофель", "г")

	cook := register(t, r, "cook")
	fan := register(t, r, "fan")

	w := testhelpers.PerformRequest(t, r, http.MethodPost, "/api/recipes", map[string]any{
		"name":         "Пюре",
		"text":         "Сварить и размять.",
		"cooking_time": 25,
		"image":        pngDataURI,
		"tags":         []uint{tag.ID},
		"ingredients":  []map[string]any{{"id": potato.ID, "amount": 400}},
	}, cook)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var recipe types.RecipeView
	testhelpers.DecodeJSON(t, w, &recipe)

	for _, rel := range []string{"favorite", "shopping_cart"} {
		w = testhelpers.PerformRequest(t, r, http.MethodPost, fmt.Sprintf("/api/recipes/%d/%s", recipe.ID, rel), nil, fan)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = testhelpers.PerformRequest(t, r, http.MethodGet, fmt.Sprintf("/api/recipes/%d", recipe.ID), nil, fan)
	require.Equal(t, http.StatusOK, w.Code)
	recipe = types.RecipeView{}
	testhelpers.DecodeJSON(t, w, &recipe)
	assert.True(t, recipe.IsFavorited)
	assert.True(t, recipe.IsInShoppingCart)

	w = testhelpers.PerformRequest(t, r, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe", recipe.Author.ID), nil, fan)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = testhelpers.PerformRequest(t, r, http.MethodGet, "/api/recipes/download_shopping_cart", nil, fan)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "картофель: 400 г\n")

	w = testhelpers.PerformRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/recipes/%d", recipe.ID), nil, cook)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = testhelpers.PerformRequest(t, r, http.MethodGet, "/api/recipes/download_shopping_cart", nil, fan)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	r, _ := setupStack(t, 100)
	token := register(t, r, "cook")

	w := testhelpers.PerformRequest(t, r, http.MethodPost, "/api/auth/token/logout", nil, token)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = testhelpers.PerformRequest(t, r, http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), service.MsgInvalidToken)

	// a fresh login is unaffected
	fresh := register(t, r, "other")
	w = testhelpers.PerformRequest(t, r, http.MethodGet, "/api/users/me", nil, fresh)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecipeWritesAreRateLimited(t *testing.T) {
	r, db := setupStack(t, 2)
	token := register(t, r, "cook")
	author := testhelpers.CreateUser(t, db.DB, "author")
	recipe := testhelpers.CreateRecipe(t, db.DB, author, "pie", nil)
	path := fmt.Sprintf("/api/recipes/%d/favorite", recipe.ID)

	w := testhelpers.PerformRequest(t, r, http.MethodPost, path, nil, token)
	require.Equal(t, http.StatusCreated, w.Code)
	w = testhelpers.PerformRequest(t, r, http.MethodDelete, path, nil, token)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = testhelpers.PerformRequest(t, r, http.MethodPost, path, nil, token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// reads are never limited
	w = testhelpers.PerformRequest(t, r, http.MethodGet, "/api/recipes", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}
