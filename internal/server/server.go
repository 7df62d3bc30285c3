package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New wires services and handlers. A nil Redis client runs the server
// without token revocation and rate limiting.
func New(cfg *config.Config, db *database.DB, rdb *redis.Client, store storage.Storage) *Server {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	v := validation.New()
	images := service.NewImageService(store)
	recipes := service.NewRecipeService(db.DB, images)
	users := service.NewUserService(db.DB, images, v)

	var tokens service.TokenStore
	var limiter *middleware.RateLimiter
	if rdb != nil {
		tokens = service.NewRedisTokenStore(rdb)
		limiter = middleware.NewRecipeWriteRateLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow)
	} else {
		logging.L().Warn().Msg("redis unavailable: token revocation and rate limiting disabled")
	}
	auth := service.NewAuthService(db.DB, cfg.JWTSecret, cfg.JWTTTL, tokens, v)

	opts := router.Options{
		Logger:      *logging.L(),
		CORSOrigins: cfg.CORSOrigins,
		Tokens:      auth,
		DB:          db,
	}
	if local, ok := store.(*storage.LocalStorage); ok {
		opts.MediaRoot = local.BasePath()
		opts.MediaURL = local.URLPrefix()
	}

	follow := func(limit int) service.Toggler {
		return service.NewFollowToggle(db.DB, users, limit)
	}
	favorites := service.NewFavoriteToggle(db.DB, recipes)
	cart := service.NewCartToggle(db.DB, recipes)
	shopping := service.NewShoppingService(db.DB)
	catalog := service.NewCatalogService(db.DB, v)

	engine := router.SetupRouter(opts, router.Handlers{
		Auth:    api.NewAuthHandler(auth),
		Users:   api.NewUserHandler(users, follow),
		Recipes: api.NewRecipeHandler(recipes, favorites, cart, shopping, limiter),
		Catalog: api.NewCatalogHandler(catalog),
	})

	return &Server{
		router: engine,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router exposes the engine for in-process requests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	logging.L().Info().Str("addr", s.http.Addr).Msg("starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
