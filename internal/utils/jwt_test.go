package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID, "owner@example.com", "pro", false, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, "pro", claims.Tier)
	assert.False(t, claims.IsAdmin)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "owner@example.com", "free", false, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err, "an expired token must not validate")
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)

	_, err = ValidateToken("")
	assert.Error(t, err)
}
