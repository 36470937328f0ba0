package domain

import (
	"fmt"
	"strings"
)

// Role is one of the four fixed SHG roles
type Role string

const (
	RoleMember    Role = "MEMBER"
	RoleTreasurer Role = "TREASURER"
	RolePresident Role = "PRESIDENT"
	RoleAdmin     Role = "ADMIN"
)

// AllRoles lists every role in seeding order
var AllRoles = []Role{RoleAdmin, RolePresident, RoleTreasurer, RoleMember}

// Permission is a named capability
type Permission string

const (
	PermAll             Permission = "ALL"
	PermSavingsDeposit  Permission = "SAVINGS_DEPOSIT"
	PermLoanApplication Permission = "LOAN_APPLICATION"
	PermViewOwnData     Permission = "VIEW_OWN_DATA"
	PermLoanApproval    Permission = "LOAN_APPROVAL"
	PermFundManagement  Permission = "FUND_MANAGEMENT"
	PermViewGroupData   Permission = "VIEW_GROUP_DATA"
	PermGroupManagement Permission = "GROUP_MANAGEMENT"
	PermMemberApproval  Permission = "MEMBER_APPROVAL"
	PermPollCreation    Permission = "POLL_CREATION"
)

// ParseRole converts a string to a Role. Unknown names are rejected.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleMember, RoleTreasurer, RolePresident, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, s)
	}
}

// Capabilities returns the static permission set of a role
func (r Role) Capabilities() []Permission {
	switch r {
	case RoleMember:
		return []Permission{PermSavingsDeposit, PermLoanApplication, PermViewOwnData}
	case RoleTreasurer:
		return []Permission{PermLoanApproval, PermFundManagement, PermViewGroupData}
	case RolePresident:
		return []Permission{PermGroupManagement, PermMemberApproval, PermPollCreation, PermViewGroupData}
	case RoleAdmin:
		return []Permission{PermAll}
	}
	return nil
}

// Description is the seeded human-readable role description
func (r Role) Description() string {
	switch r {
	case RoleMember:
		return "Regular group member"
	case RoleTreasurer:
		return "Manages group funds and disbursements"
	case RolePresident:
		return "Leads the group and approves loans"
	case RoleAdmin:
		return "System administrator"
	}
	return ""
}

// Principal is the verified identity behind a request.
// A nil Principal is unauthenticated and every check on it fails.
type Principal struct {
	UserID      uint
	MemberID    uint
	GroupID     uint
	Username    string
	Roles       []Role
	Permissions []Permission
}

// Authenticated reports whether the principal represents a logged-in user
func (p *Principal) Authenticated() bool {
	return p != nil && p.UserID != 0
}

// HasRole reports whether role is among the principal's roles
func (p *Principal) HasRole(role Role) bool {
	if !p.Authenticated() {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether any of roles is held
func (p *Principal) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for HasRole(RoleAdmin)
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// HasPermission checks ADMIN, then the explicit list, then the capability table
func (p *Principal) HasPermission(perm Permission) bool {
	if !p.Authenticated() {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	for _, granted := range p.Permissions {
		if granted == perm || granted == PermAll {
			return true
		}
	}
	for _, r := range p.Roles {
		for _, c := range r.Capabilities() {
			if c == perm || c == PermAll {
				return true
			}
		}
	}
	return false
}

// CanAccess is true for ADMIN, otherwise for any of the required roles
func (p *Principal) CanAccess(required ...Role) bool {
	if !p.Authenticated() {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	return p.HasAnyRole(required...)
}

// InGroup reports whether the principal's member record belongs to groupID
func (p *Principal) InGroup(groupID uint) bool {
	return p.Authenticated() && p.GroupID != 0 && p.GroupID == groupID
}

// ActsFor reports whether the principal may act for a group with one of roles.
// ADMIN acts for every group.
func (p *Principal) ActsFor(groupID uint, roles ...Role) bool {
	if p.IsAdmin() {
		return true
	}
	return p.InGroup(groupID) && p.HasAnyRole(roles...)
}

// RoleNames returns roles as plain strings
func (p *Principal) RoleNames() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		out = append(out, string(r))
	}
	return out
}

// PermissionNames returns permissions as plain strings
func (p *Principal) PermissionNames() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Permissions))
	for _, perm := range p.Permissions {
		out = append(out, string(perm))
	}
	return out
}
