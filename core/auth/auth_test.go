package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDigest_KnownValue(t *testing.T) {
	// md5("secret" + "salt")
	assert.Equal(t, "99cd2e5a95d555ee7be3b038a4a84625", ComputeDigest("secret", "salt"))
}

func TestVerifyDigest(t *testing.T) {
	digest := ComputeDigest("secret", "pepper")

	assert.True(t, VerifyDigest("secret", "pepper", digest))
	assert.False(t, VerifyDigest("wrong", "pepper", digest))
	assert.False(t, VerifyDigest("secret", "other-salt", digest))
	assert.False(t, VerifyDigest("secret", "pepper", "not-a-digest"))
}

func TestSessionToken_RoundTrip(t *testing.T) {
	token, err := GenerateSessionToken("sess-1", "alice", "secret-key")
	require.NoError(t, err)

	claims, err := ParseSessionToken(token, "secret-key")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "alice", claims.Username)
}

func TestSessionToken_WrongSecretRejected(t *testing.T) {
	token, err := GenerateSessionToken("sess-1", "alice", "secret-key")
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "other-key")
	assert.Error(t, err)
}

func TestSessionToken_GarbageRejected(t *testing.T) {
	_, err := ParseSessionToken("definitely.not.a-token", "secret-key")
	assert.Error(t, err)
}
