package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

type RecipeHandler struct {
	recipes   service.IRecipeService
	favorites service.Toggler
	cart      service.Toggler
	shopping  service.IShoppingService
	limiter   *middleware.RateLimiter
}

// NewRecipeHandler wires the recipe endpoints. A nil limiter disables
// write rate limiting.
func NewRecipeHandler(recipes service.IRecipeService, favorites, cart service.Toggler, shopping service.IShoppingService, limiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		favorites: favorites,
		cart:      cart,
		shopping:  shopping,
		limiter:   limiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	recipes.Use(middleware.RequireAuthUnlessSafe(), h.limiter.Middleware())
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", h.CreateRecipe)
		recipes.GET("/download_shopping_cart", h.DownloadShoppingCart)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PATCH("/:id", h.UpdateRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)
		recipes.POST("/:id/favorite", h.toggle(h.favorites))
		recipes.DELETE("/:id/favorite", h.toggle(h.favorites))
		recipes.POST("/:id/shopping_cart", h.toggle(h.cart))
		recipes.DELETE("/:id/shopping_cart", h.toggle(h.cart))
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page := pageRequest(c)
	views, count, err := h.recipes.List(c.Request.Context(), middleware.Viewer(c), recipeFilter(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, page, count, views))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.recipes.Get(c.Request.Context(), middleware.Viewer(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	req, err := bindRecipeRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.recipes.Create(c.Request.Context(), middleware.Viewer(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	req, err := bindRecipeRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.recipes.Update(c.Request.Context(), middleware.Viewer(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), middleware.Viewer(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	list, err := h.shopping.List(c.Request.Context(), middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+list.Filename())
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(list.Render()))
}

// toggle serves POST (add) and DELETE (remove) of a viewer relation.
func (h *RecipeHandler) toggle(t service.Toggler) gin.HandlerFunc {
	return toggleHandler(func(*gin.Context) service.Toggler { return t })
}

func toggleHandler(toggler func(*gin.Context) service.Toggler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		action := toggleAction(c.Request.Method)
		result, err := service.Toggle(c.Request.Context(), toggler(c), action, middleware.Viewer(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if action == service.ToggleRemove {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func toggleAction(method string) service.ToggleAction {
	switch method {
	case http.MethodPost:
		return service.ToggleAdd
	case http.MethodDelete:
		return service.ToggleRemove
	default:
		return service.ToggleUnknown
	}
}
