package auth

import (
	"context"

	"pairchat-service/internal/session"
)

// Authenticator resolves a bearer token to a user id. A token is only good if
// its signature verifies and its session has not been revoked.
type Authenticator struct {
	issuer   *TokenIssuer
	sessions session.Store
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(issuer *TokenIssuer, sessions session.Store) *Authenticator {
	return &Authenticator{issuer: issuer, sessions: sessions}
}

// Authenticate verifies the token and checks its session is still live.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := a.issuer.Verify(token)
	if err != nil {
		return "", err
	}
	if _, err := a.sessions.UserID(ctx, claims.ID); err != nil {
		return "", err
	}
	return claims.Subject, nil
}
