package session_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"ticketly-client/internal/clock"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func token(t *testing.T, id int, role string, exp time.Time) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": id, "rol": role, "exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return signed
}

func TestInitPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	tok := token(t, 5, "usuario", time.Now().Add(time.Hour))

	m := session.NewManager(store, "default", logger.Discard())
	require.NoError(t, m.Init(ctx, tok, "bearer"))
	require.NoError(t, m.SetUser(ctx, models.User{ID: "5", Username: "ana", Role: models.RoleUser}))

	restored := session.NewManager(store, "default", logger.Discard())
	require.NoError(t, restored.Restore(ctx))

	typ, got, ok := restored.Token()
	assert.True(t, ok)
	assert.Equal(t, "bearer", typ)
	assert.Equal(t, tok, got)
	user, ok := restored.User()
	assert.True(t, ok)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, "5", restored.Claims().UserID)
	assert.False(t, restored.IsAdmin())
}

func TestRestoreWithoutSession(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore(), "", logger.Discard())
	assert.ErrorIs(t, m.Restore(context.Background()), session.ErrNoSession)
	assert.False(t, m.Active())
	assert.Equal(t, "default", m.Profile())
}

func TestRestoreDiscardsExpiredSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	fake := clock.NewFake(now)

	m := session.NewManager(store, "default", logger.Discard()).WithClock(fake)
	require.NoError(t, m.Init(ctx, token(t, 1, "usuario", now.Add(10*time.Minute)), "bearer"))

	fake.Advance(time.Hour)
	later := session.NewManager(store, "default", logger.Discard()).WithClock(fake)
	assert.ErrorIs(t, later.Restore(ctx), session.ErrNoSession)

	rec, err := store.Load(ctx, "default")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

// stuckStore cannot delete records.
type stuckStore struct {
	*session.MemoryStore
}

func (stuckStore) Delete(context.Context, string) error {
	return errors.New("disk is read-only")
}

func TestRestoreLogsFailedDiscard(t *testing.T) {
	ctx := context.Background()
	store := stuckStore{session.NewMemoryStore()}
	require.NoError(t, store.Save(ctx, &session.Record{Profile: "default", Token: "not-a-jwt"}))

	var out bytes.Buffer
	m := session.NewManager(store, "default", logger.NewWithWriter(&out))
	assert.ErrorIs(t, m.Restore(ctx), session.ErrNoSession)
	assert.Contains(t, out.String(), "Failed to delete stale session for profile default: disk is read-only")
}

func TestTeardownRunsHooksOnce(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	m := session.NewManager(store, "default", logger.Discard())
	require.NoError(t, m.Init(ctx, token(t, 9, "administrador", time.Now().Add(time.Hour)), "bearer"))
	assert.True(t, m.IsAdmin())

	calls := 0
	m.OnTeardown(func() { calls++ })

	require.NoError(t, m.Teardown(ctx))
	require.NoError(t, m.Teardown(ctx))

	assert.Equal(t, 1, calls)
	assert.False(t, m.Active())
	_, _, ok := m.Token()
	assert.False(t, ok)
}

func TestSetUserRequiresSession(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore(), "default", logger.Discard())
	assert.ErrorIs(t, m.SetUser(context.Background(), models.User{}), session.ErrNoSession)
}

func TestInitRejectsGarbageToken(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore(), "default", logger.Discard())
	assert.Error(t, m.Init(context.Background(), "garbage", "bearer"))
	assert.False(t, m.Active())
}
