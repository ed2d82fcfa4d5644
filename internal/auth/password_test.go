package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(bcrypt.MinCost)
}

func TestHash(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"), "not a bcrypt hash: %q", hash)

	again, err := ps.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt must be random")
}

func TestHash_Length(t *testing.T) {
	ps := newTestPasswordService()

	_, err := ps.Hash(strings.Repeat("a", 72))
	assert.NoError(t, err)

	_, err = ps.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("correct horse")
	require.NoError(t, err)

	assert.NoError(t, ps.Verify(hash, "correct horse"))
	assert.Error(t, ps.Verify(hash, "Correct horse"))
	assert.Error(t, ps.Verify(hash, ""))
	assert.Error(t, ps.Verify("not-a-hash", "correct horse"))
}

func TestNewPasswordService_DefaultCost(t *testing.T) {
	assert.Equal(t, defaultCost, NewPasswordService().cost)
}
