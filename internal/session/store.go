// Package session tracks live sign-in sessions so that logout actually
// revokes a token instead of waiting for its expiry. Sessions are keyed by
// the token's jti and live in Redis when one is configured, in process memory
// otherwise.
package session

import (
	"context"
	"time"

	"pairchat-service/internal/apperrors"
)

// ErrSessionNotFound marks a token whose session was revoked or never existed.
var ErrSessionNotFound = apperrors.New(apperrors.Unauthenticated, "session not found")

// Store holds active sessions with a bounded lifetime.
type Store interface {
	// Put records a session for the user until expiresAt.
	Put(ctx context.Context, sessionID, userID string, expiresAt time.Time) error
	// UserID resolves a session to its user, or ErrSessionNotFound.
	UserID(ctx context.Context, sessionID string) (string, error)
	// Delete revokes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, sessionID string) error
}
