package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/ratelimit"
	"github.com/noah-isme/lms-admin-gateway/pkg/response"
)

// RateObserver counts rejected requests per limiter.
type RateObserver interface {
	ObserveRateLimited(limiter string)
}

// KeyFunc picks the rate limit identifier of a request. An empty key skips
// limiting for that request.
type KeyFunc func(c *gin.Context) string

// ClientIP keys requests by client address.
func ClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// SessionKey keys requests by session, falling back to the client address.
func SessionKey(c *gin.Context) string {
	if s := CurrentSession(c); s != nil {
		return "session:" + s.ID
	}
	return ClientIP(c)
}

// WhenSearching limits only requests that carry a search query.
func WhenSearching(key KeyFunc) KeyFunc {
	return func(c *gin.Context) string {
		if c.Query("q") == "" {
			return ""
		}
		return key(c)
	}
}

// RateLimit rejects requests beyond the limiter's window with 429.
func RateLimit(name string, limiter *ratelimit.Limiter, key KeyFunc, observer RateObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := key(c)
		if limiter == nil || id == "" {
			c.Next()
			return
		}
		if !limiter.Allow(id) {
			if wait := limiter.RetryAfter(id); wait > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			if observer != nil {
				observer.ObserveRateLimited(name)
			}
			response.Error(c, appErrors.Clone(appErrors.ErrRateLimited, "Too many requests. Please try again later."))
			c.Abort()
			return
		}
		if limiter.Max() > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Max()))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(id)))
		}
		c.Next()
	}
}
