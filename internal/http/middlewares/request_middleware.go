package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID trusts an incoming X-Request-Id or mints one, and echoes
// it back on the response so the frontend can quote it in bug reports.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, id)
		c.Set(CtxRequestID, id)

		c.Next()
	}
}

// RequestLogger writes one line per request after the handler chain
// finishes.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// the matched route; falls back to the raw path on 404
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		c.Next()

		reqID := c.GetString(CtxRequestID)

		log.InfoContext(c.Request.Context(), "http_request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", reqID,
		)
	}
}
