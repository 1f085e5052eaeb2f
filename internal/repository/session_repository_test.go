package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
)

func TestMemorySessionRepositoryLifecycle(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := NewMemorySessionRepository(func() time.Time { return now })
	ctx := context.Background()

	session := &models.Session{
		ID:          "s-1",
		AccessToken: "tok",
		User:        models.UserInfo{FullName: "Ama Owusu", Email: "ama@example.com"},
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, session))

	got, err := repo.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.AccessToken)

	got.AccessToken = "mutated"
	again, err := repo.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", again.AccessToken, "callers receive copies")

	require.NoError(t, repo.Delete(ctx, "s-1"))
	_, err = repo.Get(ctx, "s-1")
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
}

func TestMemorySessionRepositoryExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := NewMemorySessionRepository(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Session{ID: "a", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, repo.Save(ctx, &models.Session{ID: "b", ExpiresAt: now.Add(time.Hour)}))
	assert.Error(t, repo.Save(ctx, &models.Session{ID: "c", ExpiresAt: now}))

	now = now.Add(2 * time.Minute)
	_, err := repo.Get(ctx, "a")
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)

	now = now.Add(2 * time.Hour)
	assert.Len(t, repo.Sweep(), 1)
	assert.NoError(t, repo.Ping(ctx))
}
