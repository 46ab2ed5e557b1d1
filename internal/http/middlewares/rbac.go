package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole gates a route on exact role membership. Roles are flat:
// holding "Admin" does not satisfy an "HR Officer" check.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return m.RequireAnyRole(required)
}

// RequireAnyRole passes when the decoded role set contains at least
// one of the required names.
func (m *AuthMiddleware) RequireAnyRole(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)

		if !ok || claims == nil {
			abortUnauthorized(c, "missing_token", "Missing identity context")
			return
		}

		for _, role := range required {
			if claims.HasRole(role) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"code":    "forbidden",
				"message": "Insufficient role",
			},
		})
	}
}
