// ABOUTME: Tests for JWT session verification and generation
// ABOUTME: Covers round trips, expiry, wrong secrets, and missing claims

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret"))

	token, err := v.Generate("user-1", RoleTenant, time.Hour)
	require.NoError(t, err)

	userID, role, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, RoleTenant, role)
}

func TestJWTVerifier_Expired(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret"))

	token, err := v.Generate("user-1", RoleTenant, -time.Minute)
	require.NoError(t, err)

	_, _, err = v.Verify(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTVerifier_WrongSecret(t *testing.T) {
	v := NewJWTVerifier([]byte("secret-a"))
	other := NewJWTVerifier([]byte("secret-b"))

	token, err := v.Generate("user-1", RoleOwner, time.Hour)
	require.NoError(t, err)

	_, _, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_MissingSubject(t *testing.T) {
	secret := []byte("test-secret")
	v := NewJWTVerifier(secret)

	claims := jwt.MapClaims{"iat": time.Now().Unix(), "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, _, err = v.Verify(token)
	require.ErrorIs(t, err, ErrMissingClaim)
}

func TestJWTVerifier_Garbage(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret"))

	_, _, err := v.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthContext_IsAdmin(t *testing.T) {
	assert.False(t, (&AuthContext{Role: RoleTenant}).IsAdmin())
	assert.False(t, (&AuthContext{Role: RoleOwner}).IsAdmin())
	assert.True(t, (&AuthContext{Role: RoleAdmin}).IsAdmin())
	assert.True(t, (&AuthContext{Role: RoleSuperAdmin}).IsAdmin())
}
