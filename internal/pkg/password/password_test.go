package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"libraryhub/internal/pkg/password"
)

func TestHashAndVerify(t *testing.T) {
	password.SetCost(bcrypt.MinCost)
	t.Cleanup(func() { password.SetCost(password.DefaultCost) })

	hash, err := password.Hash("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, password.Verify("correct horse", hash))
	assert.False(t, password.Verify("wrong horse", hash))
}

func TestGenerateRandom(t *testing.T) {
	a, err := password.GenerateRandom(8)
	require.NoError(t, err)
	b, err := password.GenerateRandom(8)
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
	assert.True(t, password.ValidatePassword(a))
}

func TestGenerateRandomEnforcesMinimum(t *testing.T) {
	p, err := password.GenerateRandom(1)
	require.NoError(t, err)
	assert.True(t, password.ValidatePassword(p))
}

func TestHashTokenIsStable(t *testing.T) {
	assert.Equal(t, password.HashToken("abc"), password.HashToken("abc"))
	assert.NotEqual(t, password.HashToken("abc"), password.HashToken("abd"))
}
