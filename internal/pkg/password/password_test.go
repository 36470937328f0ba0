package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, Verify("password123", hash))
	assert.False(t, Verify("password124", hash))
}

func TestHashToken(t *testing.T) {
	a := HashToken("refresh-token")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("refresh-token"))
	assert.NotEqual(t, a, HashToken("refresh-token2"))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("password123"))
	assert.False(t, ValidatePassword("short"))
}
