package sanitize

import (
	"strings"

	"github.com/google/uuid"
)

// NewNonce returns a random token for the script-src CSP directive.
func NewNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SecurityHeaders returns the response headers applied to every gateway
// response, with nonce embedded in the Content-Security-Policy.
func SecurityHeaders(nonce string) map[string]string {
	csp := strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'nonce-" + nonce + "' 'strict-dynamic'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data: https:",
		"font-src 'self'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")
	return map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"X-XSS-Protection":        "1; mode=block",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Permissions-Policy":      "camera=(), microphone=(), geolocation=()",
		"Content-Security-Policy": csp + ";",
	}
}
