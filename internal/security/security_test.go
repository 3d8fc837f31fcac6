package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fastParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPasswordWithParams("supersecret", fastParams)
	require.NoError(t, err)

	ok, err := VerifyPassword("supersecret", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	a, err := HashPasswordWithParams("same", fastParams)
	require.NoError(t, err)
	b, err := HashPasswordWithParams("same", fastParams)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsGarbage(t *testing.T) {
	_, err := VerifyPassword("x", []byte("plain-text"))
	require.ErrorIs(t, err, ErrMalformedHash)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := GenerateAccessToken("secret", 7, "sess", "dev", true, time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(tok, "secret")
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, "sess", claims.SessionID)
	require.Equal(t, "dev", claims.DeviceID)
	require.True(t, claims.Admin)

	_, err = ParseAccessToken(tok, "other")
	require.Error(t, err)
}

func TestExpiredAccessToken(t *testing.T) {
	tok, err := GenerateAccessToken("secret", 7, "sess", "dev", false, -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(tok, "secret")
	require.Error(t, err)
}

func TestRefreshTokenHash(t *testing.T) {
	tok, hash, err := GenerateRefreshToken(32)
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, hash, HashRefreshToken(tok))
}
