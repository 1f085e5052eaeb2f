package upstream

import (
	"context"
	"strings"

	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
)

type tokenKey struct{}

// WithToken returns a context carrying the upstream bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom is the single accessor for the upstream bearer token. A missing
// or blank token yields ErrMissingCredential.
func TokenFrom(ctx context.Context) (string, error) {
	token, _ := ctx.Value(tokenKey{}).(string)
	if strings.TrimSpace(token) == "" {
		return "", appErrors.ErrMissingCredential
	}
	return token, nil
}
