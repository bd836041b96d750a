package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("u1", "driver", "Ana", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "driver", claims.Role)
	assert.Equal(t, "Ana", claims.Name)
}

func TestValidateTokenRejects(t *testing.T) {
	token, err := GenerateToken("u1", "passenger", "", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)

	_, err = ValidateToken("not-a-jwt", "secret")
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ValidateToken(signed, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateTokenFallsBackToSubject(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u9"},
	})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	claims, err := ValidateToken(signed, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u9", claims.UserID)

	anon := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{})
	signed, err = anon.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ValidateToken(signed, "secret")
	assert.Error(t, err)
}
