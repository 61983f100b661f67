package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ticketly-client/internal/models"
	"ticketly-client/internal/session"
)

const keyPrefix = "ticketly:session:"

// fallbackTTL applies to tokens that carry no exp claim.
const fallbackTTL = 24 * time.Hour

type cachedSession struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      *models.User `json:"user,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Store keeps sessions in Redis so several terminals can share a login.
// Keys expire together with the token.
type Store struct {
	Client *redis.Client
	now    func() time.Time
}

func NewStore(client *redis.Client) *Store {
	return &Store{Client: client, now: time.Now}
}

func Key(profile string) string {
	return keyPrefix + profile
}

func (s *Store) Load(ctx context.Context, profile string) (*session.Record, error) {
	if s.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	raw, err := s.Client.Get(ctx, Key(profile)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var cached cachedSession
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session.Record{
		Profile:   profile,
		Token:     cached.Token,
		TokenType: cached.TokenType,
		User:      cached.User,
		CreatedAt: cached.CreatedAt,
		ExpiresAt: cached.ExpiresAt,
	}, nil
}

func (s *Store) Save(ctx context.Context, rec *session.Record) error {
	if s.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	data, err := json.Marshal(cachedSession{
		Token:     rec.Token,
		TokenType: rec.TokenType,
		User:      rec.User,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := fallbackTTL
	if !rec.ExpiresAt.IsZero() {
		ttl = rec.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return s.Delete(ctx, rec.Profile)
		}
	}

	if err := s.Client.Set(ctx, Key(rec.Profile), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in Redis: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, profile string) error {
	if s.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	if err := s.Client.Del(ctx, Key(profile)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}
