package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RewardCardPlatform/internal/pkg/password"
)

func TestBcryptHasher_Hash(t *testing.T) {
	hasher := password.NewBcryptHasher(4)

	hash, err := hasher.Hash("Titok123")
	require.NoError(t, err)
	assert.NotEqual(t, "Titok123", hash)
	assert.True(t, password.IsHash(hash))
}

func TestBcryptHasher_Check(t *testing.T) {
	hasher := password.NewBcryptHasher(4)

	hash, err := hasher.Hash("Titok123")
	require.NoError(t, err)

	assert.True(t, hasher.Check("Titok123", hash))
	assert.False(t, hasher.Check("titok123", hash))
	assert.False(t, hasher.Check("", hash))
}

func TestBcryptHasher_CheckLegacyPlaintext(t *testing.T) {
	hasher := password.NewBcryptHasher(4)

	assert.True(t, hasher.Check("regi-jelszo", "regi-jelszo"))
	assert.False(t, hasher.Check("regi-jelszo ", "regi-jelszo"))
	assert.False(t, hasher.Check("regi-jelszo", ""))
}
