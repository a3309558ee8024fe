package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastArgon2Params trades the production cost floor for test speed; a
// real deployment must still go through DefaultArgon2Params.
var fastArgon2Params = Argon2Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestHashAndVerifyPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", fastArgon2Params)
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordProducesDistinctSaltsPerCall(t *testing.T) {
	h1, err := HashPassword("same-password", fastArgon2Params)
	require.NoError(t, err)
	h2, err := HashPassword("same-password", fastArgon2Params)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestNeedsRehashDetectsWeakerParams(t *testing.T) {
	weak, err := HashPassword("pw", fastArgon2Params)
	require.NoError(t, err)

	assert.True(t, NeedsRehash(weak, DefaultArgon2Params))
	assert.False(t, NeedsRehash(weak, fastArgon2Params))
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("pw", "not-a-valid-hash")
	require.Error(t, err)
}
