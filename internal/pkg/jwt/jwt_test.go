package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := New("test_secret_key_32_characters_min", time.Hour)

	token, err := svc.GenerateToken(42, "mentor")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "mentor", claims.Role)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := New("test_secret_key_32_characters_min", time.Hour)
	verifier := New("another_secret_key_32_chars_long!", time.Hour)

	token, err := issuer.GenerateToken(42, "learner")
	require.NoError(t, err)

	claims, err := verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := New("test_secret_key_32_characters_min", -time.Minute)

	token, err := svc.GenerateToken(42, "learner")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := New("test_secret_key_32_characters_min", time.Hour)

	for _, bad := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.ValidateToken(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", bad)
	}
}
