package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairchat-service/internal/apperrors"
	"pairchat-service/internal/session"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, sessionID, expiresAt, err := issuer.Issue("u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, sessionID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, sessionID, claims.ID)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	token, _, _, err := issuer.Issue("u1")
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.Unauthenticated, apperrors.KindOf(err))
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute)

	token, _, _, err := issuer.Issue("u1")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	_, err := issuer.Verify("not-a-token")
	require.Error(t, err)
}

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2hunter2", hash)

	assert.NoError(t, CheckPassword(hash, "hunter2hunter2"))

	err = CheckPassword(hash, "wrong-password")
	require.Error(t, err)
	assert.Equal(t, apperrors.Unauthenticated, apperrors.KindOf(err))
}

func TestFederatedVerify(t *testing.T) {
	verifier := NewFederatedVerifier("shared-secret")

	claims := jwt.MapClaims{
		"sub":   "ext-1",
		"email": "alice@example.com",
		"name":  "Alice",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	identity, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ext-1", identity.Subject)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, "Alice", identity.Name)
}

func TestFederatedVerifyWrongSecret(t *testing.T) {
	verifier := NewFederatedVerifier("shared-secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ext-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("attacker-secret"))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestAuthenticateLiveSession(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	sessions := session.NewMemoryStore()
	authenticator := NewAuthenticator(issuer, sessions)

	token, sessionID, expiresAt, err := issuer.Issue("u1")
	require.NoError(t, err)
	require.NoError(t, sessions.Put(context.Background(), sessionID, "u1", expiresAt))

	userID, err := authenticator.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestAuthenticateRevokedSession(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	sessions := session.NewMemoryStore()
	authenticator := NewAuthenticator(issuer, sessions)

	token, sessionID, expiresAt, err := issuer.Issue("u1")
	require.NoError(t, err)
	require.NoError(t, sessions.Put(context.Background(), sessionID, "u1", expiresAt))
	require.NoError(t, sessions.Delete(context.Background(), sessionID))

	_, err = authenticator.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, apperrors.Unauthenticated, apperrors.KindOf(err))
}

func TestFederatedVerifyUnconfigured(t *testing.T) {
	verifier := NewFederatedVerifier("")

	_, err := verifier.Verify("anything")
	require.Error(t, err)
	assert.Equal(t, apperrors.Unauthenticated, apperrors.KindOf(err))
}
