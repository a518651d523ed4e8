package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mkravch/kinofav/pkg/errors"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	tokens := NewTokenService("test-secret")

	token, err := tokens.Issue("alice", 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Login)
	assert.Equal(t, int64(42), claims.UserID)
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	tokens := NewTokenService("test-secret")

	first, err := tokens.Issue("alice", 1)
	require.NoError(t, err)
	second, err := tokens.Issue("alice", 1)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestTokenService_Validate_Expired(t *testing.T) {
	secret := "test-secret"
	tokens := NewTokenService(secret)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     "alice",
		"user_id": int64(42),
		"exp":     time.Now().Add(-31 * time.Minute).Unix(),
		"jti":     "x",
	})
	signed, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = tokens.Validate(signed)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidToken)
}

func TestTokenService_Validate_MissingSubject(t *testing.T) {
	secret := "test-secret"
	tokens := NewTokenService(secret)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": int64(42),
		"exp":     time.Now().Add(time.Minute).Unix(),
	})
	signed, err := noSub.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = tokens.Validate(signed)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidToken)
}

func TestTokenService_Validate_WrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-one").Issue("alice", 42)
	require.NoError(t, err)

	_, err = NewTokenService("secret-two").Validate(token)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidToken)
}

func TestTokenService_Validate_Malformed(t *testing.T) {
	tokens := NewTokenService("test-secret")

	_, err := tokens.Validate("not-a-token")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidToken)
}
