package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woundtrack/ehr-api/internal/model"
)

func testUser() *model.User {
	return &model.User{
		Base:       model.Base{ID: uuid.New()},
		TenantID:   uuid.New(),
		Email:      "rn@example.com",
		Credential: model.CredentialRN,
		Role:       model.RoleClinician,
	}
}

func testConfig() JWTConfig {
	return JWTConfig{
		Secret:             "test-secret",
		RefreshSecret:      "test-refresh-secret",
		ExpiryHours:        1,
		RefreshExpiryHours: 24,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(testConfig())
	user := testUser()

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.TenantID, claims.TenantID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, model.CredentialRN, claims.Credential)
	assert.Equal(t, model.RoleClinician, claims.Role)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewJWTService(testConfig())
	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{Secret: "different", ExpiryHours: 1})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.ExpiryHours = -1
	svc := NewJWTService(cfg)

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(testConfig())
	user := testUser()

	token, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)

	id, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestRefreshTokenNotUsableAsAccessToken(t *testing.T) {
	svc := NewJWTService(testConfig())
	token, err := svc.GenerateRefreshToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
