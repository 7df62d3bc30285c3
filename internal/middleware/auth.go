package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Context keys set by Authenticate.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextClaims   = "claims"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// Authenticate resolves the bearer token when one is sent. Requests
// without an Authorization header continue as anonymous; a header that
// does not carry a valid token is rejected.
func Authenticate(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		token, ok := parseAuthorization(authHeader)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, service.MsgInvalidToken)
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, service.MsgInvalidToken)
			return
		}

		// Store user info in context
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Viewer(c).Authenticated() {
			abortJSON(c, http.StatusUnauthorized, service.MsgUnauthorized)
			return
		}
		c.Next()
	}
}

// RequireAuthUnlessSafe lets GET, HEAD and OPTIONS through anonymously.
func RequireAuthUnlessSafe() gin.HandlerFunc {
	require := RequireAuth()
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
		default:
			require(c)
		}
	}
}

// Viewer returns the request identity; anonymous when unauthenticated.
func Viewer(c *gin.Context) types.Viewer {
	if id, ok := c.Get(ContextUserID); ok {
		if uid, ok := id.(uint); ok {
			return types.NewViewer(uid)
		}
	}
	return types.Anonymous
}

// Claims returns the validated token claims, or nil.
func Claims(c *gin.Context) *types.TokenClaims {
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*types.TokenClaims); ok {
			return claims
		}
	}
	return nil
}

// parseAuthorization accepts "Bearer <token>" and "Token <token>".
func parseAuthorization(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") && !strings.EqualFold(parts[0], "Token") {
		return "", false
	}
	return parts[1], true
}
