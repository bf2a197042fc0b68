package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/workspace-service/internal/security"
)

func TestBcryptHasher(t *testing.T) {
	h := security.BcryptHasher{Cost: 4}

	hash, err := h.Hash("StrongP@ss1")
	require.NoError(t, err)
	assert.NotEqual(t, "StrongP@ss1", hash)

	assert.True(t, h.Compare(hash, "StrongP@ss1"))
	assert.False(t, h.Compare(hash, "wrong"))
	assert.False(t, h.Compare("", "StrongP@ss1"))
}

func TestCheckPassword_EmptyHashStillCompares(t *testing.T) {
	start := time.Now()
	assert.False(t, security.CheckPassword("", "StrongP@ss1"))
	assert.False(t, security.CheckPassword("", ""))
	// two cost-12 comparisons, well above an immediate return
	assert.Greater(t, time.Since(start), 5*time.Millisecond)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	tok, err := security.MakeAccess("secret", "u1", "u@example.com", "w1", time.Minute)
	require.NoError(t, err)

	c, err := security.ParseAccess("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, "u@example.com", c.Email)
	assert.Equal(t, "w1", c.WID)
	assert.Equal(t, "u1", c.Subject)
}

func TestAccessToken_Rejects(t *testing.T) {
	tok, err := security.MakeAccess("secret", "u1", "u@example.com", "", time.Minute)
	require.NoError(t, err)

	_, err = security.ParseAccess("other", tok)
	assert.Error(t, err)

	expired, err := security.MakeAccess("secret", "u1", "u@example.com", "", -time.Minute)
	require.NoError(t, err)
	_, err = security.ParseAccess("secret", expired)
	assert.Error(t, err)
}
