package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" treasurer ")
	require.NoError(t, err)
	assert.Equal(t, RoleTreasurer, r)

	_, err = ParseRole("SUPERUSER")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRoleCapabilities(t *testing.T) {
	assert.ElementsMatch(t, []Permission{PermSavingsDeposit, PermLoanApplication, PermViewOwnData}, RoleMember.Capabilities())
	assert.Contains(t, RoleTreasurer.Capabilities(), PermLoanApproval)
	assert.Contains(t, RolePresident.Capabilities(), PermPollCreation)
	assert.Equal(t, []Permission{PermAll}, RoleAdmin.Capabilities())
	assert.Nil(t, Role("GHOST").Capabilities())
}

func TestPrincipal_Unauthenticated(t *testing.T) {
	var p *Principal
	assert.False(t, p.Authenticated())
	assert.False(t, p.HasRole(RoleAdmin))
	assert.False(t, p.HasPermission(PermViewOwnData))
	assert.False(t, p.CanAccess())
	assert.False(t, p.CanAccess(RoleMember))

	empty := &Principal{Roles: []Role{RoleAdmin}}
	assert.False(t, empty.CanAccess(), "no user id means unauthenticated")
}

func TestPrincipal_HasPermission(t *testing.T) {
	tests := []struct {
		name string
		p    *Principal
		perm Permission
		want bool
	}{
		{"admin gets everything", &Principal{UserID: 1, Roles: []Role{RoleAdmin}}, PermFundManagement, true},
		{"explicit permission", &Principal{UserID: 1, Roles: []Role{RoleMember}, Permissions: []Permission{PermPollCreation}}, PermPollCreation, true},
		{"capability table", &Principal{UserID: 1, Roles: []Role{RoleTreasurer}}, PermFundManagement, true},
		{"member lacks approval", &Principal{UserID: 1, Roles: []Role{RoleMember}}, PermLoanApproval, false},
		{"explicit ALL", &Principal{UserID: 1, Permissions: []Permission{PermAll}}, PermMemberApproval, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.HasPermission(tt.perm))
		})
	}
}

func TestPrincipal_CanAccessAndGroups(t *testing.T) {
	admin := &Principal{UserID: 1, Roles: []Role{RoleAdmin}}
	president := &Principal{UserID: 2, GroupID: 7, Roles: []Role{RolePresident}}

	assert.True(t, admin.CanAccess(RoleTreasurer))
	assert.True(t, president.CanAccess(RolePresident, RoleTreasurer))
	assert.False(t, president.CanAccess(RoleTreasurer))

	assert.True(t, admin.ActsFor(99, RolePresident))
	assert.True(t, president.ActsFor(7, RolePresident))
	assert.False(t, president.ActsFor(8, RolePresident))
	assert.False(t, president.ActsFor(7, RoleTreasurer))
}

func TestValidationError(t *testing.T) {
	v := NewValidationError("amount", "too small").Add("tenure", "invalid")
	assert.True(t, errors.Is(v, ErrValidation))
	assert.Equal(t, "validation failed: amount: too small; tenure: invalid", v.Error())

	empty := &ValidationError{}
	assert.NoError(t, empty.OrNil())
}

func TestNormalizeAadhaar(t *testing.T) {
	got, ok := NormalizeAadhaar("1234 5678-9012")
	assert.True(t, ok)
	assert.Equal(t, "123456789012", got)

	_, ok = NormalizeAadhaar("12345")
	assert.False(t, ok)
	_, ok = NormalizeAadhaar("12345678901a")
	assert.False(t, ok)
}
