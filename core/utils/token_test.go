package utils

import (
	"testing"

	"bookline-api/core/config"
	"bookline-api/core/constants"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	config.Set(cfg)
}

func TestGenerateAndParseToken(t *testing.T) {
	userID := uuid.New()
	email := "ana@example.com"

	token, err := GenerateToken(userID, &email, nil, constants.RoleOwner, constants.ScopeTokenAccess)
	require.NoError(t, err)

	data, err := ValidateAndParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, data.UserID)
	require.NotNil(t, data.Email)
	assert.Equal(t, email, *data.Email)
	assert.Equal(t, constants.RoleOwner, data.Role)
	assert.Equal(t, constants.ScopeTokenAccess, data.Scope)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	token, err := GenerateToken(uuid.New(), nil, nil, constants.RoleClient, constants.ScopeTokenAccess)
	require.NoError(t, err)

	_, err = ValidateAndParseToken(token + "x")
	assert.Error(t, err)
}

func TestGenerateIDLength(t *testing.T) {
	id := GenerateID()
	assert.Len(t, id, 7)
	assert.NotEqual(t, id, GenerateID())
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, ComparePassword(hash, "s3cret-pass"))
	assert.False(t, ComparePassword(hash, "wrong"))
}
