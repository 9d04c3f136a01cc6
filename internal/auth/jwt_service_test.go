package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJWTService_AccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)
	userID := uuid.New()

	token, tokenID, err := svc.GenerateAccessToken(userID, "admin")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, tokenID)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, PurposeAccess, claims.Purpose)
	assert.Equal(t, tokenID, claims.ID)
}

func TestJWTService_WrongSecret(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)
	token, _, err := svc.GenerateAccessToken(uuid.New(), "user")
	assert.NoError(t, err)

	other := NewJWTService("different-secret", 15*time.Minute)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)
	token, _, err := svc.GenerateAccessToken(uuid.New(), "user")
	assert.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_PendingToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)
	userID := uuid.New()

	pending, _, err := svc.GeneratePendingToken(userID, "user")
	assert.NoError(t, err)

	claims, err := svc.ValidatePendingToken(pending)
	assert.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, Purpose2FAPending, claims.Purpose)

	// An access token is not good for the 2FA exchange.
	access, _, err := svc.GenerateAccessToken(userID, "user")
	assert.NoError(t, err)
	_, err = svc.ValidatePendingToken(access)
	assert.Error(t, err)
}
