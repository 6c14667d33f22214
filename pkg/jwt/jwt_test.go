package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("64f000000000000000000001", "Doctor", "64f000000000000000000002", 50, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)

	assert.Equal(t, "64f000000000000000000001", claims.UserID)
	assert.Equal(t, "Doctor", claims.Role)
	assert.Equal(t, "64f000000000000000000002", claims.DepartmentID)
	assert.Equal(t, 50, claims.PermissionLevel)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("64f000000000000000000001", "Doctor", "", 10, "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken("64f000000000000000000001", "Doctor", "", 10, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.Error(t, err)
}
