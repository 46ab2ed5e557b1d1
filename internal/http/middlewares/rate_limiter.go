package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type window struct {
	count int
	ends  time.Time
}

// RateLimiter is a fixed-window in-process limiter; /auth/login is
// gated with it to slow down credential guessing.
type RateLimiter struct {
	limit  int
	length time.Duration

	mu      sync.Mutex
	windows map[string]*window
}

func NewRateLimiter(limit int, length time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		length:  length,
		windows: make(map[string]*window),
	}
}

// RateLimiterMiddleware enforces the limit per key derived by keyFn.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		if retryAfter, limited := rl.take(key); limited {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})
			return
		}

		c.Next()
	}
}

// take counts one hit against key's current window; when the window is
// full it reports the seconds until it resets.
func (rl *RateLimiter) take(key string) (retryAfter int, limited bool) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.After(w.ends) {
		rl.windows[key] = &window{count: 1, ends: now.Add(rl.length)}
		return 0, false
	}

	if w.count >= rl.limit {
		retryAfter = int(time.Until(w.ends).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		return retryAfter, true
	}

	w.count++
	return 0, false
}

// KeyByIP buckets unauthenticated endpoints by caller address.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP buckets by user id when an identity is on the context,
// caller address otherwise.
func KeyByUserOrIP(c *gin.Context) string {
	if id, ok := UserIDFromContext(c); ok && id != 0 {
		return "user:" + strconv.FormatInt(id, 10)
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}

	return ip
}
