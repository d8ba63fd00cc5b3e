package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pairchat-service/internal/apperrors"
)

// Claims is the access-token payload. Subject carries the opaque user id;
// ID (jti) keys the revocable session record.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a signed token for the user and returns it with its session id
// and expiry.
func (i *TokenIssuer) Issue(userID string) (token string, sessionID string, expiresAt time.Time, err error) {
	sessionID = uuid.NewString()
	expiresAt = time.Now().Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	return token, sessionID, expiresAt, err
}

// Verify parses and validates a token, returning its claims.
func (i *TokenIssuer) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Claims{}, apperrors.New(apperrors.Unauthenticated, "invalid token")
	}
	return claims, nil
}
