package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
)

const sessionKeyPrefix = "session:"

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// RedisSessionRepository stores sessions as JSON under session:<id> with the
// session's remaining lifetime as TTL.
type RedisSessionRepository struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisSessionRepository constructs a Redis backed session repository.
func NewRedisSessionRepository(client *redis.Client, logger *zap.Logger) *RedisSessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSessionRepository{client: client, logger: logger, now: time.Now}
}

// Save stores the session until its expiry.
func (r *RedisSessionRepository) Save(ctx context.Context, session *models.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", sessionKey(session.ID), err)
	}
	return nil
}

// Get loads a session; a missing key is ErrSessionNotFound.
func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", sessionKey(id), err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		r.logger.Warn("discarding unreadable session", zap.String("session_id", id), zap.Error(err))
		_ = r.client.Del(ctx, sessionKey(id)).Err()
		return nil, appErrors.ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", sessionKey(id), err)
	}
	return nil
}

// Ping checks the Redis connection for readiness probes.
func (r *RedisSessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection.
func (r *RedisSessionRepository) Close() error {
	return r.client.Close()
}

// MemorySessionRepository keeps sessions in process memory. Expired entries
// are dropped lazily on access and by Sweep.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

// NewMemorySessionRepository builds an empty in-memory repository.
func NewMemorySessionRepository(now func() time.Time) *MemorySessionRepository {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionRepository{sessions: make(map[string]models.Session), now: now}
}

// Save stores a copy of the session.
func (r *MemorySessionRepository) Save(_ context.Context, session *models.Session) error {
	if session.Expired(r.now()) {
		return fmt.Errorf("session %s already expired", session.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

// Get returns a copy of a live session.
func (r *MemorySessionRepository) Get(_ context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrSessionNotFound
	}
	if session.Expired(r.now()) {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		return nil, appErrors.ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes a session.
func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Ping always succeeds.
func (r *MemorySessionRepository) Ping(context.Context) error {
	return nil
}

// Sweep drops expired sessions and returns their ids.
func (r *MemorySessionRepository) Sweep() []string {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}
