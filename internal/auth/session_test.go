// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	Init()

	playerID := uuid.NewString()
	token, err := CreateJWT(playerID)
	require.NoError(t, err)

	got, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, playerID, got)
}

func TestAuthenticateJWTRejectsGarbage(t *testing.T) {
	Init()

	_, err := AuthenticateJWT("not-a-token")
	assert.Error(t, err)

	// A token signed under a different key pair fails verification.
	token, err := CreateJWT(uuid.NewString())
	require.NoError(t, err)
	Init() // rotate keys
	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}
