package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("super-secret")
	require.NoError(t, err)

	assert.NoError(t, CheckPassword(hash, "super-secret"))
	assert.Error(t, CheckPassword(hash, "wrong"))
}

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", StaffID: "s1", Role: RoleHR}

	token, err := GenerateToken(secret, claims, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.UserID)
	assert.Equal(t, "s1", parsed.StaffID)
	assert.Equal(t, RoleHR, parsed.Role)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken("s", Claims{UserID: "u1", Role: RoleStaff}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("s", token)
	assert.Error(t, err)
}

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}
	for role, perms := range RolePermissions {
		require.NotEmpty(t, perms, "role %s has no permissions", role)
		for _, perm := range perms {
			_, ok := allowed[perm]
			assert.True(t, ok, "role %s has unknown permission %s", role, perm)
		}
	}
}

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, PermPayrollRun))
	assert.False(t, HasPermission(RoleHR, PermPayrollRun))
	assert.True(t, HasPermission(RoleHR, PermContractsWrite))
	assert.False(t, HasPermission(RoleStaff, PermContractsWrite))
	assert.False(t, HasPermission("UNKNOWN", PermStaffRead))
}

func TestCanAccessStaff(t *testing.T) {
	assert.True(t, UserContext{Role: RoleHR}.CanAccessStaff("s1"))
	assert.True(t, UserContext{Role: RoleStaff, StaffID: "s1"}.CanAccessStaff("s1"))
	assert.False(t, UserContext{Role: RoleStaff, StaffID: "s1"}.CanAccessStaff("s2"))
	assert.False(t, UserContext{Role: RoleStaff}.CanAccessStaff(""))
}

func TestAuditIsAdminOnly(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, PermAuditRead))
	assert.False(t, HasPermission(RoleHR, PermAuditRead))
	assert.True(t, HasPermission(RoleHR, PermJobsRead))
	assert.False(t, HasPermission(RoleStaff, PermJobsRead))
}
