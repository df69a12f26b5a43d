package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken means the bearer token could not be decoded at all.
	ErrInvalidToken = errors.New("session: invalid token")
	// ErrExpired means the token's own exp claim is in the past.
	ErrExpired = errors.New("session: token expired")
)

// TokenInfo is what can be read from a bearer token without the backend's key.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

var unverified = jwt.NewParser()

// InspectToken decodes the token payload without verifying the signature.
// The result only drives UX decisions such as redirecting to login early;
// authorization is always decided by the backend.
func InspectToken(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := unverified.ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var info TokenInfo
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: exp: %v", ErrInvalidToken, err)
	}
	if exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}

// Expired reports whether the token carries an exp claim before now.
// Tokens without exp never expire client side.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}

// CheckToken combines InspectToken and Expired.
func CheckToken(token string, now time.Time) error {
	info, err := InspectToken(token)
	if err != nil {
		return err
	}
	if info.Expired(now) {
		return ErrExpired
	}
	return nil
}
