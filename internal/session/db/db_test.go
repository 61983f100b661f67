package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ticketly-client/internal/models"
	"ticketly-client/internal/session"
	"ticketly-client/internal/session/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "nested", "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadMissingProfile(t *testing.T) {
	store := setupTestDB(t)

	rec, err := store.Load(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSaveAndLoad(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	err := store.Save(ctx, &session.Record{
		Profile:   "default",
		Token:     "tok-1",
		TokenType: "bearer",
		CreatedAt: created,
		ExpiresAt: created.Add(time.Hour),
	})
	require.NoError(t, err)

	rec, err := store.Load(ctx, "default")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "tok-1", rec.Token)
	assert.Equal(t, "bearer", rec.TokenType)
	assert.Nil(t, rec.User)
	assert.True(t, rec.CreatedAt.Equal(created))
}

func TestSaveOverwritesProfile(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &session.Record{Profile: "default", Token: "old", CreatedAt: time.Now()}))
	require.NoError(t, store.Save(ctx, &session.Record{
		Profile:   "default",
		Token:     "new",
		CreatedAt: time.Now(),
		User:      &models.User{ID: "3", Username: "luis", Role: models.RoleAdmin},
	}))

	rec, err := store.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "new", rec.Token)
	require.NotNil(t, rec.User)
	assert.Equal(t, "luis", rec.User.Username)
	assert.True(t, rec.User.IsAdmin())
}

func TestDeleteProfile(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &session.Record{Profile: "a", Token: "x", CreatedAt: time.Now()}))
	require.NoError(t, store.Save(ctx, &session.Record{Profile: "b", Token: "y", CreatedAt: time.Now()}))
	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "missing"))

	rec, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = store.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "y", rec.Token)
}
