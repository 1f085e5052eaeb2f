package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
)

// gatewayAPI is the subset of the REST client dashctl uses against the gateway.
type gatewayAPI interface {
	GetJSON(ctx context.Context, auth upstream.Auth, path string, query url.Values, dest interface{}) error
	PostJSON(ctx context.Context, auth upstream.Auth, path string, body, dest interface{}) error
	GetText(ctx context.Context, auth upstream.Auth, path string) (string, error)
}

var errNotLoggedIn = errors.New("not logged in: run dashctl login first")

func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func loadToken(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", errNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errNotLoggedIn
	}
	return token, nil
}

// authed attaches the stored gateway token to ctx.
func (o *RootOptions) authed(ctx context.Context) (context.Context, error) {
	token, err := loadToken(o.TokenFile)
	if err != nil {
		return nil, err
	}
	return upstream.WithToken(ctx, token), nil
}
