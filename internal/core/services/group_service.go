package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GroupService handles SHG group administration
type GroupService struct {
	repos *repositories.Repositories
}

// NewGroupService creates a new group service
func NewGroupService(repos *repositories.Repositories) *GroupService {
	return &GroupService{repos: repos}
}

// GroupInput represents create/update group input. Nil fields are left unchanged on update.
type GroupInput struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	FoundedDate *time.Time `json:"foundedDate"`
	IsActive    *bool      `json:"isActive"`
}

func (in *GroupInput) apply(g *models.Group) error {
	if in.Name != nil {
		g.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		g.Description = *in.Description
	}
	if in.Location != nil {
		g.Location = *in.Location
	}
	if in.FoundedDate != nil {
		g.FoundedDate = in.FoundedDate
	}
	if in.IsActive != nil {
		g.IsActive = *in.IsActive
	}
	if g.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	return nil
}

// List returns every group with its derived fund
func (s *GroupService) List(ctx context.Context, p *domain.Principal) ([]*models.GroupResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	groups, err := s.repos.Groups.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.GroupResponse, 0, len(groups))
	for _, g := range groups {
		fund, err := groupFund(ctx, s.repos, g.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, g.ToResponse(fund))
	}
	return out, nil
}

// Get returns one group with its derived fund
func (s *GroupService) Get(ctx context.Context, p *domain.Principal, id uint) (*models.GroupResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	g, err := s.repos.Groups.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "group")
	}
	fund, err := groupFund(ctx, s.repos, g.ID)
	if err != nil {
		return nil, err
	}
	return g.ToResponse(fund), nil
}

// Create adds a group. ADMIN only.
func (s *GroupService) Create(ctx context.Context, p *domain.Principal, input *GroupInput) (*models.GroupResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, forbidden("only ADMIN can create groups")
	}

	g := &models.Group{IsActive: true}
	if err := input.apply(g); err != nil {
		return nil, err
	}
	if err := s.repos.Groups.Create(ctx, g); err != nil {
		return nil, err
	}

	logger.Info("group created", zap.Uint("groupId", g.ID), zap.String("name", g.Name))
	return g.ToResponse(decimal.Zero), nil
}

// Update changes group details. ADMIN or the group's PRESIDENT.
func (s *GroupService) Update(ctx context.Context, p *domain.Principal, id uint, input *GroupInput) (*models.GroupResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.ActsFor(id, domain.RolePresident) {
		return nil, forbidden("only ADMIN or the group PRESIDENT can update a group")
	}

	g, err := s.repos.Groups.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "group")
	}
	if err := input.apply(g); err != nil {
		return nil, err
	}
	if err := s.repos.Groups.Update(ctx, g); err != nil {
		return nil, err
	}

	fund, err := groupFund(ctx, s.repos, g.ID)
	if err != nil {
		return nil, err
	}
	return g.ToResponse(fund), nil
}

// Delete removes an empty group. ADMIN only.
func (s *GroupService) Delete(ctx context.Context, p *domain.Principal, id uint) error {
	if err := requireAuth(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return forbidden("only ADMIN can delete groups")
	}

	if _, err := s.repos.Groups.GetByID(ctx, id); err != nil {
		return lookup(err, "group")
	}
	count, err := s.repos.Members.CountByGroup(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: group still has %d members", domain.ErrInvalidStateTransition, count)
	}

	if err := s.repos.Groups.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("group deleted", zap.Uint("groupId", id))
	return nil
}
