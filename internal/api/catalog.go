package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
)

// CatalogHandler serves tags and ingredients. Both lists are unpaginated.
type CatalogHandler struct {
	catalog service.ICatalogService
}

func NewCatalogHandler(catalog service.ICatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tags", h.ListTags)
	router.GET("/tags/:id", h.GetTag)
	router.GET("/ingredients", h.ListIngredients)
	router.GET("/ingredients/:id", h.GetIngredient)
}

func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.catalog.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *CatalogHandler) GetTag(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	tag, err := h.catalog.GetTag(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.catalog.ListIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ingredient, err := h.catalog.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredient)
}
