package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterDisabledWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.NewRecipeWriteRateLimiter(nil, 1, time.Minute).Middleware())
	r.POST("/write", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/write", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}

func TestRateLimiterFixedWindow(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.NewRecipeWriteRateLimiter(client, 2, time.Hour).Middleware())
	r.GET("/read", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/write", func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	assert.Equal(t, http.StatusCreated, send(http.MethodPost, "/write").Code)
	w := send(http.MethodPost, "/write")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = send(http.MethodPost, "/write")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// reads are not counted
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/read").Code)
}
