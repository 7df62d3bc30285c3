package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// FollowTogglerFunc builds the follow toggle for a recipes_limit.
type FollowTogglerFunc func(recipesLimit int) service.Toggler

type UserHandler struct {
	users  service.IUserService
	follow FollowTogglerFunc
}

func NewUserHandler(users service.IUserService, follow FollowTogglerFunc) *UserHandler {
	return &UserHandler{users: users, follow: follow}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/me", middleware.RequireAuth(), h.Me)
		users.POST("/set_password", middleware.RequireAuth(), h.SetPassword)
		users.GET("/subscriptions", middleware.RequireAuth(), h.Subscriptions)
		users.GET("/:id", h.GetUser)
		users.DELETE("/:id", MethodNotAllowed)
		users.POST("/:id/subscribe", middleware.RequireAuth(), h.subscribe())
		users.DELETE("/:id/subscribe", middleware.RequireAuth(), h.subscribe())
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page := pageRequest(c)
	views, count, err := h.users.List(c.Request.Context(), middleware.Viewer(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, page, count, views))
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req types.CreateUserRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		respondError(c, service.ValidationError("non_field_errors", msgMalformedBody))
		return
	}
	view, err := h.users.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.users.Get(c.Request.Context(), middleware.Viewer(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) Me(c *gin.Context) {
	view, err := h.users.Me(c.Request.Context(), middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		respondError(c, service.ValidationError("non_field_errors", msgMalformedBody))
		return
	}
	if err := h.users.SetPassword(c.Request.Context(), middleware.Viewer(c), &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page := pageRequest(c)
	views, count, err := h.users.Subscriptions(c.Request.Context(), middleware.Viewer(c), page, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, page, count, views))
}

func (h *UserHandler) subscribe() gin.HandlerFunc {
	return toggleHandler(func(c *gin.Context) service.Toggler {
		return h.follow(recipesLimit(c))
	})
}
