package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	a, err := HashPassword("Abc123!x", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("Abc123!x", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "Abc123!x")
	assert.True(t, VerifyPassword(a, "Abc123!x"))
	assert.True(t, VerifyPassword(b, "Abc123!x"))
}

func TestVerifyPasswordMismatch(t *testing.T) {
	h, err := HashPassword("Abc123!x", bcrypt.MinCost)
	require.NoError(t, err)

	assert.False(t, VerifyPassword(h, "abc123!x"))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("", "Abc123!x"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "Abc123!x"))
	assert.False(t, VerifyPassword("$2a$10$short", "Abc123!x"))
}
