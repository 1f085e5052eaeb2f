package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/validation"
)

// SessionStore persists gateway sessions.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// AuthConfig defines configuration for gateway sessions.
type AuthConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// AuthService logs dashboard users in against the upstream API and binds the
// upstream bearer token to a gateway session.
type AuthService struct {
	api       upstreamAPI
	sessions  SessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	schema    validation.Schema
	now       func() time.Time

	mu       sync.RWMutex
	onLogout []func(sessionID string)
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(api upstreamAPI, sessions SessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.TTL <= 0 {
		config.TTL = 12 * time.Hour
	}
	return &AuthService{
		api:       api,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		config:    config,
		schema:    mustFormSchema("login"),
		now:       time.Now,
	}
}

// OnLogout registers a hook run after a session is removed.
func (s *AuthService) OnLogout(fn func(sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Login validates credentials, exchanges them for an upstream token, loads the
// profile and issues a gateway session token.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	form := validation.NewForm(validation.Values{
		"username": creds.Username,
		"password": creds.Password,
	}, s.schema, validation.WithLogger(s.logger))
	if !form.ValidateForm() {
		return nil, validationFailed(form.Errors())
	}
	if err := s.validator.Struct(creds); err != nil {
		return nil, validationFailed(structErrors(err))
	}

	var token models.Token
	err := s.api.PostForm(ctx, upstream.Public, "/auth/login", url.Values{
		"username": {creds.Username},
		"password": {creds.Password},
	}, &token)
	if err != nil {
		s.logger.Info("upstream login rejected", zap.String("username", creds.Username), zap.String("ip", creds.IP), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "login response carried no access token")
	}
	if token.TokenType == "" {
		token.TokenType = "bearer"
	}

	user, err := s.fetchProfile(upstream.WithToken(ctx, token.AccessToken))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:          uuid.NewString(),
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		User:        *user,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.config.TTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	signed, err := s.issueToken(session)
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	s.logger.Info("session started", zap.String("session_id", session.ID), zap.String("email", user.Email))
	return &models.LoginResponse{Token: signed, ExpiresAt: session.ExpiresAt, User: session.User}, nil
}

// Authenticate resolves a gateway token to its live session. A session found
// expired, or gone from the store, is ended so logout hooks release its state.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.Session, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			if id := s.expiredSessionID(tokenString); id != "" {
				s.endSession(ctx, id, "session expired")
			}
		}
		return nil, err
	}
	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, appErrors.ErrSessionNotFound) {
			s.endSession(ctx, claims.SessionID, "session expired")
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Expired(s.now()) {
		s.endSession(ctx, session.ID, "session expired")
		return nil, appErrors.ErrSessionNotFound
	}
	return session, nil
}

// Me refreshes the profile of session from the upstream API. An upstream 401
// ends the session.
func (s *AuthService) Me(ctx context.Context, session *models.Session) (*models.UserInfo, error) {
	user, err := s.fetchProfile(upstream.WithToken(ctx, session.AccessToken))
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Status == http.StatusUnauthorized {
			if logoutErr := s.Logout(ctx, session.ID); logoutErr != nil {
				s.logger.Warn("failed to drop rejected session", zap.String("session_id", session.ID), zap.Error(logoutErr))
			}
		}
		return nil, err
	}
	return user, nil
}

// Logout removes the session and runs logout hooks.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove session")
	}
	s.runLogoutHooks(sessionID)
	s.logger.Info("session ended", zap.String("session_id", sessionID))
	return nil
}

// endSession is Logout for sessions that end without the user asking.
func (s *AuthService) endSession(ctx context.Context, sessionID, reason string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("failed to remove session", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.runLogoutHooks(sessionID)
	s.logger.Info(reason, zap.String("session_id", sessionID))
}

func (s *AuthService) runLogoutHooks(sessionID string) {
	s.mu.RLock()
	hooks := append([]func(string){}, s.onLogout...)
	s.mu.RUnlock()
	for _, hook := range hooks {
		hook(sessionID)
	}
}

// Ready reports whether the session store is reachable.
func (s *AuthService) Ready(ctx context.Context) error {
	return s.sessions.Ping(ctx)
}

// ValidateToken parses and validates a gateway session token.
func (s *AuthService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := s.parseToken(tokenString, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// expiredSessionID returns the session id of a correctly signed token whose
// only fault is its age.
func (s *AuthService) expiredSessionID(tokenString string) string {
	token, err := s.parseToken(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return ""
	}
	if claims, ok := token.Claims.(*models.SessionClaims); ok {
		return claims.SessionID
	}
	return ""
}

func (s *AuthService) parseToken(tokenString string, opts ...jwt.ParserOption) (*jwt.Token, error) {
	return jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
}

func (s *AuthService) fetchProfile(ctx context.Context) (*models.UserInfo, error) {
	var user models.UserInfo
	if err := s.api.GetJSON(ctx, upstream.Bearer, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "user profile is incomplete")
	}
	user.AvatarInitial = avatarInitial(user.FullName)
	return &user, nil
}

func (s *AuthService) issueToken(session *models.Session) (string, error) {
	claims := &models.SessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.User.Email,
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func avatarInitial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return string(unicode.ToUpper(r))
	}
	return ""
}
