package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pairchat-service/internal/apperrors"
)

// RedisStore keeps sessions in Redis so revocation is shared across
// instances. Keys expire with the token, so the store cleans itself up.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore constructs a RedisStore from a Redis URL and verifies the
// connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.Transient, "redis unreachable", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// Put records the session with a TTL matching the token expiry.
func (s *RedisStore) Put(ctx context.Context, sessionID, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, sessionKey(sessionID), userID, ttl).Err(); err != nil {
		return apperrors.Wrap(apperrors.Transient, "session write failed", err)
	}
	return nil
}

// UserID resolves the session to its user id.
func (s *RedisStore) UserID(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.Transient, "session read failed", err)
	}
	return userID, nil
}

// Delete revokes the session.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return apperrors.Wrap(apperrors.Transient, "session delete failed", err)
	}
	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
