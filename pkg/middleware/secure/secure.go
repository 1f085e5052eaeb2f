package secure

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-admin-gateway/pkg/sanitize"
)

// NonceKey stores the per-request CSP nonce in the gin context.
const NonceKey = "cspNonce"

// Middleware sets the security headers with a fresh nonce per request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := sanitize.NewNonce()
		c.Set(NonceKey, nonce)
		for key, value := range sanitize.SecurityHeaders(nonce) {
			c.Header(key, value)
		}
		c.Next()
	}
}

// Nonce returns the nonce issued for the current request.
func Nonce(c *gin.Context) string {
	return c.GetString(NonceKey)
}
