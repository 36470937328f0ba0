package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	sub := Subject{
		UserID:      3,
		MemberID:    7,
		GroupID:     1,
		Username:    "lakshmi",
		Roles:       []string{"PRESIDENT"},
		Permissions: []string{"POLL_CREATION"},
	}
	token, err := GenerateAccessToken(sub, secret, 15)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, uint(7), claims.MemberID)
	assert.Equal(t, []string{"PRESIDENT"}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
	assert.Greater(t, claims.Remaining(), 14*time.Minute)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(Subject{UserID: 1}, secret, 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken(Subject{UserID: 1}, secret, -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, secret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateAccessToken_RejectsNoneAlg(t *testing.T) {
	claims := Claims{UserID: 1, Roles: []string{"ADMIN"}}
	claims.Issuer = issuer
	unsigned := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, secret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshToken(t *testing.T) {
	token, err := GenerateRefreshToken(9, "tid", secret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.Equal(t, "tid", claims.TokenID)
}
