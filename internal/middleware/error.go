package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logging"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Errors string `json:"errors"`
}

// Recovery logs panics with the request logger and returns a JSON 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.Ctx(c.Request.Context()).Error().
			Interface("panic", recovered).
			Str(logging.FieldPath, c.Request.URL.Path).
			Msg("panic recovered")
		abortJSON(c, http.StatusInternalServerError, "internal server error")
	})
}

func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Errors: msg})
}
