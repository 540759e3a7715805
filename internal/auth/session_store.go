package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventix-gateway/internal/backend"
	"eventix-gateway/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const sessionKeyPrefix = "session:"

// Session is the signed-in identity: the user and the backend cookies that
// authenticate calls made on their behalf.
type Session struct {
	ID          string              `json:"id"`
	User        models.User         `json:"user"`
	Credentials backend.Credentials `json:"credentials"`
	CreatedAt   time.Time           `json:"created_at"`
}

type SessionStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{Client: client, TTL: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *SessionStore) Create(ctx context.Context, user models.User, creds backend.Credentials) (*Session, error) {
	sess := &Session{
		ID:          uuid.NewString(),
		User:        user,
		Credentials: creds,
		CreatedAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.Client.Set(ctx, sessionKey(sess.ID), payload, s.TTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session in Redis: %w", err)
	}
	return sess, nil
}

// Get returns nil, nil when the session does not exist or has expired.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	payload, err := s.Client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.Client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
