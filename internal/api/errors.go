package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
)

const msgInternal = "internal server error"

// respondError writes err as {"errors": ...}. Validation failures carry
// per-field messages; other domain errors carry one message. Anything
// else is logged and reported as a 500.
func respondError(c *gin.Context, err error) {
	var domainErr *service.Error
	if errors.As(err, &domainErr) {
		if len(domainErr.Fields) > 0 {
			c.JSON(domainErr.HTTPStatus(), gin.H{"errors": domainErr.Fields})
			return
		}
		c.JSON(domainErr.HTTPStatus(), gin.H{"errors": domainErr.Message})
		return
	}

	_ = c.Error(err)
	logging.Ctx(c.Request.Context()).Error().Err(err).
		Str(logging.FieldRoute, c.FullPath()).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"errors": msgInternal})
}

// NotFound answers unmatched routes.
func NotFound(c *gin.Context) {
	respondError(c, service.ErrNotFound)
}

// MethodNotAllowed answers unmatched verbs on known routes.
func MethodNotAllowed(c *gin.Context) {
	respondError(c, service.ErrMethodNotAllowed)
}
