package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Handlers are the API groups mounted under /api.
type Handlers struct {
	Auth    *api.AuthHandler
	Users   *api.UserHandler
	Recipes *api.RecipeHandler
	Catalog *api.CatalogHandler
}

// Options carry the cross-cutting pieces of the engine.
type Options struct {
	Logger      zerolog.Logger
	CORSOrigins []string
	Tokens      middleware.TokenValidator
	DB          api.Pinger

	// MediaRoot and MediaURL serve local images. Empty disables it.
	MediaRoot string
	MediaURL  string
}

// SetupRouter configures the application routes
func SetupRouter(opts Options, h Handlers) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(api.NotFound)
	router.NoMethod(api.MethodNotAllowed)

	router.Use(
		logging.GinMiddleware(opts.Logger),
		middleware.Recovery(),
		metrics.GinMiddleware(),
		middleware.CORS(opts.CORSOrigins),
	)

	router.GET("/health", api.HealthCheck(opts.DB))
	router.GET("/metrics", metrics.Handler())

	if opts.MediaRoot != "" && strings.HasPrefix(opts.MediaURL, "/") {
		router.Static(strings.TrimSuffix(opts.MediaURL, "/"), opts.MediaRoot)
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.Authenticate(opts.Tokens))
	{
		h.Auth.RegisterRoutes(apiGroup)
		h.Users.RegisterRoutes(apiGroup)
		h.Recipes.RegisterRoutes(apiGroup)
		h.Catalog.RegisterRoutes(apiGroup)
	}

	return router
}
