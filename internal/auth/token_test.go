package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"))

	token, err := svc.Issue("ops@example.org", constants.RoleOperator, time.Hour)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.org", claims.UserID())
	assert.Equal(t, constants.RoleOperator, claims.Role())
	assert.True(t, claims.HasPermission(ActionTriggerSync))
	assert.True(t, claims.HasPermission(ActionReadSync))
	assert.False(t, claims.HasPermission("catalog:delete"))
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"))

	expired, err := svc.Issue("ops", constants.RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = svc.Validate(expired)
	assert.Error(t, err)

	other, err := NewTokenService([]byte("other-secret")).Issue("ops", constants.RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, err = svc.Validate(other)
	assert.Error(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		RoleValue:        constants.RoleAdmin,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Validate(unsigned)
	assert.Error(t, err)

	_, err = NewTokenService(nil).Issue("ops", constants.RoleAdmin, time.Hour)
	assert.Error(t, err)
}

func TestAdminClaims_ReadOnlyRole(t *testing.T) {
	claims := &AdminClaims{RoleValue: constants.Role("viewer")}
	assert.False(t, claims.HasPermission(ActionTriggerSync))
	assert.True(t, claims.HasPermission(ActionReadSync))
}
