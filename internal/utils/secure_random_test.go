package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenSecret(t *testing.T) {
	a, err := NewTokenSecret(32)
	require.NoError(t, err)
	b, err := NewTokenSecret(32)
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, APITokenSeparator)

	_, err = NewTokenSecret(0)
	assert.Error(t, err)
}

func TestSplitAPIToken(t *testing.T) {
	id, secret, ok := SplitAPIToken(JoinAPIToken("3f1c8a52", "s3cret"))
	require.True(t, ok)
	assert.Equal(t, "3f1c8a52", id)
	assert.Equal(t, "s3cret", secret)

	for _, bad := range []string{"", "nodot", ".secret", "id."} {
		_, _, ok := SplitAPIToken(bad)
		assert.False(t, ok, bad)
	}
}

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckSecretHash("s3cret", hash))
	assert.False(t, CheckSecretHash("other", hash))
}
