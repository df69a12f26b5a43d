package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-only-secret"))
	require.NoError(t, err)
	return tok
}

func TestInspectTokenReadsClaimsWithoutKey(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := signToken(t, jwt.MapClaims{"sub": "ana@favo.test", "exp": exp.Unix()})

	info, err := InspectToken(tok)
	require.NoError(t, err)
	require.Equal(t, "ana@favo.test", info.Subject)
	require.True(t, info.ExpiresAt.Equal(exp))
	require.False(t, info.Expired(exp.Add(-time.Second)))
	require.True(t, info.Expired(exp.Add(time.Second)))
}

func TestCheckToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"valid", signToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}), nil},
		{"expired", signToken(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}), ErrExpired},
		{"no exp never expires", signToken(t, jwt.MapClaims{"sub": "x"}), nil},
		{"not a jwt", "abc", ErrInvalidToken},
		{"garbage payload", "eyJhbGciOiJIUzI1NiJ9.@@@.sig", ErrInvalidToken},
		{"empty", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckToken(tt.token, now)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}
