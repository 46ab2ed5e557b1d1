package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects body-carrying requests whose Content-Type is not
// JSON. GETs pass through untouched.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		ct := strings.ToLower(c.GetHeader("Content-Type"))
		// "application/json; charset=utf-8" counts
		if !strings.HasPrefix(ct, "application/json") {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": gin.H{
					"code":    "unsupported_media_type",
					"message": "Content-Type must be application/json",
				},
			})
			return
		}

		c.Next()
	}
}
