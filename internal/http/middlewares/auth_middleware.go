package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/hrhub/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "missing_token", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "missing_token", "Missing bearer token")
			return
		}

		claims, err := m.jwt.VerifyToken(raw)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, "expired_token", "Access token has expired")
				return
			}

			abortUnauthorized(c, "invalid_token", "Invalid access token")
			return
		}

		// Stash the decoded identity on the context
		c.Set(ctxClaimsKey, claims)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// Optional helpers so handlers don’t need to know the magic keys.

func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func UserIDFromContext(c *gin.Context) (int64, bool) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}
