package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordTooShort(t *testing.T) {
	assert.True(t, PasswordTooShort(""))
	assert.True(t, PasswordTooShort("12345"))
	assert.False(t, PasswordTooShort("123456"))
	// six characters, more than six bytes
	assert.False(t, PasswordTooShort("\u00e9\u00e9\u00e9\u00e9\u00e9\u00e9"))
	assert.True(t, PasswordTooShort("\u00e9\u00e9\u00e9\u00e9\u00e9"))
	// each emoji is a surrogate pair, two code units
	assert.False(t, PasswordTooShort("\U0001F600\U0001F600\U0001F600"))
	assert.True(t, PasswordTooShort("\U0001F600\U0001F600a"))
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret!")))
}

func TestGenerateAndVerifyToken(t *testing.T) {
	token, err := GenerateToken("secret", "4f0c8a3e-0000-4000-8000-000000000001", "admin@hostel.test", time.Hour)
	require.NoError(t, err)

	claims, err := VerifyToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "4f0c8a3e-0000-4000-8000-000000000001", claims.Subject)
	assert.Equal(t, "admin@hostel.test", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
}

func TestVerifyToken_Rejects(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", "a@b.c", time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken("other-secret", token)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", "user-1", "a@b.c", -time.Minute)
	require.NoError(t, err)
	_, err = VerifyToken("secret", expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noSubject, err := GenerateToken("secret", "", "a@b.c", time.Hour)
	require.NoError(t, err)
	_, err = VerifyToken("secret", noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = VerifyToken("", token)
	assert.Error(t, err)
}
