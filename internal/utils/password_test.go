package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("1987-11-02", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "1987-11-02", hash)

	assert.True(t, VerifyPassword(hash, "1987-11-02"))
	assert.False(t, VerifyPassword(hash, "1987-11-03"))
	assert.False(t, VerifyPassword("not a bcrypt hash", "1987-11-02"))
}
