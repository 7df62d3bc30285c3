package api_test

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/validation"
)

const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type env struct {
	db     *gorm.DB
	router *gin.Engine
	auth   *service.AuthService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDB(t)
	store, err := storage.NewLocalStorage(t.TempDir(), "/media/")
	require.NoError(t, err)

	v := validation.New()
	images := service.NewImageService(store)
	recipes := service.NewRecipeService(db, images)
	users := service.NewUserService(db, images, v).WithBcryptCost(bcrypt.MinCost)
	auth := service.NewAuthService(db, "test-secret", time.Hour, nil, v)

	follow := func(limit int) service.Toggler {
		return service.NewFollowToggle(db, users, limit)
	}
	favorites := service.NewFavoriteToggle(db, recipes)
	cart := service.NewCartToggle(db, recipes)

	r := router.SetupRouter(router.Options{
		Logger: zerolog.Nop(),
		Tokens: auth,
		DB:     &database.DB{DB: db},
	}, router.Handlers{
		Auth:    api.NewAuthHandler(auth),
		Users:   api.NewUserHandler(users, follow),
		Recipes: api.NewRecipeHandler(recipes, favorites, cart, service.NewShoppingService(db), nil),
		Catalog: api.NewCatalogHandler(service.NewCatalogService(db, v)),
	})

	return &env{db: db, router: r, auth: auth}
}

func (e *env) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (e *env) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	return testhelpers.PerformRequest(t, e.router, method, path, body, token)
}

// errorMessage decodes a {"errors": "..."} body.
func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Errors string `json:"errors"`
	}
	testhelpers.DecodeJSON(t, w, &body)
	return body.Errors
}

// fieldErrors decodes a {"errors": {field: [...]}} body.
func fieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string][]string {
	t.Helper()
	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	testhelpers.DecodeJSON(t, w, &body)
	return body.Errors
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(pngDataURI, "data:image/png;base64,"))
	require.NoError(t, err)
	return raw
}

// multipartRequest builds a form post; values may repeat a key.
func multipartRequest(t *testing.T, method, path string, values [][2]string, image []byte, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range values {
		require.NoError(t, w.WriteField(kv[0], kv[1]))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "dish.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	return req
}
