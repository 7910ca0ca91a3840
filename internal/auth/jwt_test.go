package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifySession(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	tok, err := Sign("a@x.com", "admin")
	require.NoError(t, err)

	claims, err := Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Empty(t, claims.Purpose)
}

func TestVerifyPurposeTag(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	tok, err := SignPurpose("a@x.com", PurposePasswordReset, ResetTokenTTL)
	require.NoError(t, err)

	claims, err := Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, PurposePasswordReset, claims.Purpose)
	assert.Empty(t, claims.Role)
}

func TestVerifyExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	tok, err := SignPurpose("a@x.com", PurposePasswordReset, -time.Minute)
	require.NoError(t, err)

	_, err = Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	tok, err := Sign("a@x.com", "user")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "a-different-secret")
	_, err = Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbageInput(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	for _, bad := range []string{"", "not.a.jwt", "a.b", "eyJhbGciOiJub25lIn0.e30."} {
		_, err := Verify(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", bad)
	}
}

func TestSessionTTLFromEnv(t *testing.T) {
	t.Setenv("JWT_TTL_MIN", "15")
	assert.Equal(t, 15*time.Minute, SessionTTL())

	t.Setenv("JWT_TTL_MIN", "not-a-number")
	assert.Equal(t, 60*time.Minute, SessionTTL())
}
