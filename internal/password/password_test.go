package password_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JovenGabriel/users-api/internal/password"
)

func TestHashAndMatches(t *testing.T) {
	hash, err := password.Hash("Password123!")
	require.NoError(t, err)
	require.NotEqual(t, "Password123!", hash)

	ok, err := password.Matches("Password123!", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = password.Matches("WrongPassword1!", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	first, err := password.Hash("Password123!")
	require.NoError(t, err)
	second, err := password.Hash("Password123!")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestMatchesMalformedDigest(t *testing.T) {
	for _, digest := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$bogus",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$!!!",
		"$bcrypt$whatever",
	} {
		ok, err := password.Matches("Password123!", digest)
		require.False(t, ok, "digest %q should not match", digest)
		require.ErrorIs(t, err, password.ErrInvalidHash)
	}
}
