package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryBuffer guards against a token expiring mid-request: anything with 60
// seconds or less remaining is treated as already stale.
const expiryBuffer = 60 * time.Second

// TokenStore holds the token triple produced by a successful authentication.
// Values are immutable: each refresh or re-authentication replaces the whole
// store, never individual fields. ExpiresAt is epoch seconds decoded from the
// access token's exp claim (or computed from a refresh response TTL); a
// TokenStore is never constructed without it.
type TokenStore struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

// IsExpired reports whether the store should be considered stale at now.
// A nil store counts as expired, and so does a token with exactly the buffer
// remaining.
func (t *TokenStore) IsExpired(now time.Time) bool {
	if t == nil {
		return true
	}
	remaining := t.ExpiresAt*1000 - now.UnixMilli()
	return remaining <= expiryBuffer.Milliseconds()
}

// decodeExpiry reads the exp claim from a JWT access token without verifying
// its signature. Verification is the provider's concern; the engine only
// needs the instant.
func decodeExpiry(accessToken string) (int64, error) {
	claims, err := decodeClaims(accessToken)
	if err != nil {
		return 0, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return 0, err
	}
	if exp == nil {
		return 0, errors.New("access token has no exp claim")
	}
	return exp.Unix(), nil
}

// decodeSubject reads the sub claim from a JWT access token.
func decodeSubject(accessToken string) (string, error) {
	claims, err := decodeClaims(accessToken)
	if err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("access token has no sub claim")
	}
	return sub, nil
}

func decodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
