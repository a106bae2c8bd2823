package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_Success(t *testing.T) {
	// Arrange
	password := "admin-password-123"

	// Act
	hash, err := HashPassword(password)

	// Assert
	require.NoError(t, err)
	assert.NotEqual(t, password, hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")))
}

func TestHashPassword_UsesConfiguredCost(t *testing.T) {
	hash, err := HashPassword("admin-password-123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, passwordCost, cost)
}

func TestHashPassword_DifferentHashesForSamePassword(t *testing.T) {
	hash1, err1 := HashPassword("same-password")
	hash2, err2 := HashPassword("same-password")

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotEqual(t, hash1, hash2) // случайная соль
}

func TestHashPassword_TooLong(t *testing.T) {
	// bcrypt отклоняет пароли длиннее 72 байт
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}

	_, err := HashPassword(string(long))

	assert.Error(t, err)
}
