package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// pathID parses the :id segment; anything but a positive integer is 404.
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, service.ErrNotFound
	}
	return uint(id), nil
}

// queryFlag reports whether a boolean filter is set to 1 or true.
func queryFlag(c *gin.Context, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true":
		return true
	default:
		return false
	}
}

// pageRequest reads page and limit; invalid values fall back to defaults.
func pageRequest(c *gin.Context) types.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return types.PageRequest{Page: page, Limit: limit}.Normalize()
}

// recipesLimit reads recipes_limit; absent, non-numeric or negative is -1.
func recipesLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func recipeFilter(c *gin.Context) types.RecipeFilter {
	filter := types.RecipeFilter{
		Tags:             c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if author, err := strconv.ParseUint(c.Query("author"), 10, 64); err == nil {
		id := uint(author)
		filter.AuthorID = &id
	}
	return filter
}
