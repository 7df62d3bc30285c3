package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const HeaderRequestID = "X-Request-ID"

// GinMiddleware attaches a request-scoped logger carrying the request id
// and logs every completed request.
func GinMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		child := logger.With().
			Str(FieldRequestID, reqID).
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, c.Request.URL.Path).
			Str(FieldClientIP, c.ClientIP()).
			Logger()

		c.Header(HeaderRequestID, reqID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), child))

		c.Next()

		status := c.Writer.Status()
		var evt *zerolog.Event
		switch {
		case status >= 500:
			evt = child.Error()
		case status >= 400:
			evt = child.Warn()
		default:
			evt = child.Info()
		}
		evt = evt.
			Str(FieldRoute, c.FullPath()).
			Int(FieldStatus, status).
			Float64(FieldLatency, float64(time.Since(start).Microseconds())/1000)

		if userID, ok := c.Get(FieldUserID); ok {
			if id, ok := userID.(uint); ok {
				evt = evt.Uint(FieldUserID, id)
			}
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}

		evt.Msg("request completed")
	}
}
