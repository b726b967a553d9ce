package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("Str0ng!Passw0rd")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$2"), "bcrypt digest expected")

	assert.True(t, VerifyPassword("Str0ng!Passw0rd", hash))
	assert.False(t, VerifyPassword("str0ng!passw0rd", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestPasswordHashesAreSalted(t *testing.T) {
	a, err := HashPassword("Str0ng!Passw0rd")
	require.NoError(t, err)
	b, err := HashPassword("Str0ng!Passw0rd")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	assert.False(t, VerifyPassword("anything", "not-a-digest"))
	assert.False(t, VerifyPassword("anything", ""))
}
