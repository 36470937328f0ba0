package services

import (
	"context"
	"fmt"
	"strings"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"
)

var knownPermissions = map[domain.Permission]bool{
	domain.PermAll:             true,
	domain.PermSavingsDeposit:  true,
	domain.PermLoanApplication: true,
	domain.PermViewOwnData:     true,
	domain.PermLoanApproval:    true,
	domain.PermFundManagement:  true,
	domain.PermViewGroupData:   true,
	domain.PermGroupManagement: true,
	domain.PermMemberApproval:  true,
	domain.PermPollCreation:    true,
}

// RoleService exposes the fixed role table
type RoleService struct {
	roles repositories.RoleRepository
}

// NewRoleService creates a new role service
func NewRoleService(roles repositories.RoleRepository) *RoleService {
	return &RoleService{roles: roles}
}

// UpdateRoleInput represents update role input
type UpdateRoleInput struct {
	Description *string  `json:"description"`
	Permissions []string `json:"permissions"`
}

// List returns every role
func (s *RoleService) List(ctx context.Context, p *domain.Principal) ([]*models.Role, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	return s.roles.List(ctx)
}

// Get returns one role
func (s *RoleService) Get(ctx context.Context, p *domain.Principal, id uint) (*models.Role, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "role")
	}
	return role, nil
}

// Update changes a role's description or extra permissions. ADMIN only.
// Role names are fixed and cannot be changed.
func (s *RoleService) Update(ctx context.Context, p *domain.Principal, id uint, input *UpdateRoleInput) (*models.Role, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, forbidden("only ADMIN can update roles")
	}

	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "role")
	}

	if input.Description != nil {
		role.Description = strings.TrimSpace(*input.Description)
	}
	if input.Permissions != nil {
		perms := make(models.StringList, 0, len(input.Permissions))
		for i, name := range input.Permissions {
			perm := domain.Permission(strings.ToUpper(strings.TrimSpace(name)))
			if !knownPermissions[perm] {
				return nil, domain.NewValidationError(fmt.Sprintf("permissions[%d]", i), fmt.Sprintf("unknown permission %q", name))
			}
			perms = append(perms, string(perm))
		}
		role.Permissions = perms
	}

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}
