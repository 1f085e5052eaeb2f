package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials are forwarded form-encoded to the upstream login endpoint.
type Credentials struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
	IP       string `json:"-"`
}

// Token is the upstream login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Session binds an upstream bearer token to a gateway session.
type Session struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        UserInfo  `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// LoginResponse is returned to dashboard clients after a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// SessionClaims are the claims of a gateway-issued session token.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
