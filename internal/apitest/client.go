package apitest

import (
	"context"
	"testing"

	"ticketly-client/internal/api"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/session"
)

// Client returns an API client pointed at the backend. With a username the
// client carries a session for that user; an empty username is anonymous.
func (b *Backend) Client(t testing.TB, username string) (*api.Client, *session.Manager) {
	t.Helper()
	sess := session.NewManager(session.NewMemoryStore(), "test", logger.Discard())
	if username != "" {
		if err := sess.Init(context.Background(), b.Login(t, username), "bearer"); err != nil {
			t.Fatalf("failed to start session: %v", err)
		}
		if user, ok := b.User(username); ok {
			if err := sess.SetUser(context.Background(), user); err != nil {
				t.Fatalf("failed to set session user: %v", err)
			}
		}
	}
	return api.NewClient(b.URL(), 0, sess, logger.Discard()), sess
}
