package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/logger"
	"shg-finance/internal/pkg/timeutil"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MemberService handles member records of SHG groups
type MemberService struct {
	repos *repositories.Repositories
}

// NewMemberService creates a new member service
func NewMemberService(repos *repositories.Repositories) *MemberService {
	return &MemberService{repos: repos}
}

// CreateMemberInput represents create member input
type CreateMemberInput struct {
	UserID      *uint      `json:"userId"`
	GroupID     uint       `json:"groupId"`
	RoleID      uint       `json:"roleId"`
	Name        string     `json:"name"`
	Aadhaar     string     `json:"aadhaar"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	Address     string     `json:"address"`
	Gender      string     `json:"gender"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

// UpdateMemberInput represents update member input. Nil fields are left unchanged.
type UpdateMemberInput struct {
	GroupID     *uint      `json:"groupId"`
	RoleID      *uint      `json:"roleId"`
	Name        *string    `json:"name"`
	Aadhaar     *string    `json:"aadhaar"`
	Phone       *string    `json:"phone"`
	Email       *string    `json:"email"`
	Address     *string    `json:"address"`
	Gender      *string    `json:"gender"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

// List returns members visible to the caller. MEMBERs only see themselves,
// VIEW_GROUP_DATA holders see their own group and ADMIN sees everyone.
func (s *MemberService) List(ctx context.Context, p *domain.Principal, groupID *uint) ([]*models.Member, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}

	switch {
	case p.IsAdmin():
	case p.HasPermission(domain.PermViewGroupData) && p.GroupID != 0:
		if groupID != nil && *groupID != p.GroupID {
			return nil, forbidden("cannot list members of another group")
		}
		groupID = &p.GroupID
	default:
		if p.MemberID == 0 {
			return []*models.Member{}, nil
		}
		self, err := s.repos.Members.GetByID(ctx, p.MemberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []*models.Member{}, nil
			}
			return nil, err
		}
		if groupID != nil && *groupID != self.GroupID {
			return []*models.Member{}, nil
		}
		return []*models.Member{self}, nil
	}

	return s.repos.Members.List(ctx, repositories.MemberFilter{GroupID: groupID})
}

// Get returns one member if the caller may see it
func (s *MemberService) Get(ctx context.Context, p *domain.Principal, id uint) (*models.Member, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	m, err := s.repos.Members.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "member")
	}
	if m.ID != p.MemberID && !canViewGroup(p, m.GroupID) {
		return nil, forbidden("cannot view this member")
	}
	return m, nil
}

// Create adds an unapproved member. ADMIN or the target group's PRESIDENT.
func (s *MemberService) Create(ctx context.Context, p *domain.Principal, input *CreateMemberInput) (*models.Member, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.ActsFor(input.GroupID, domain.RolePresident) {
		return nil, forbidden("only ADMIN or the group PRESIDENT can add members")
	}

	v := &domain.ValidationError{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		v.Add("name", "is required")
	}
	aadhaar, ok := domain.NormalizeAadhaar(input.Aadhaar)
	if !ok {
		v.Add("aadhaar", "must be 12 digits")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.checkGroup(ctx, input.GroupID); err != nil {
		return nil, err
	}
	role, err := s.checkRole(ctx, input.RoleID)
	if err != nil {
		return nil, err
	}
	if role.Name == string(domain.RoleAdmin) && !p.IsAdmin() {
		return nil, forbidden("only ADMIN can assign the ADMIN role")
	}
	if input.UserID != nil {
		if err := s.checkUser(ctx, *input.UserID, 0); err != nil {
			return nil, err
		}
	}

	m := &models.Member{
		UserID:      input.UserID,
		GroupID:     input.GroupID,
		RoleID:      input.RoleID,
		Name:        name,
		Aadhaar:     aadhaar,
		Phone:       input.Phone,
		Email:       input.Email,
		Address:     input.Address,
		Gender:      input.Gender,
		DateOfBirth: input.DateOfBirth,
		IsApproved:  false,
		JoinedAt:    timeutil.Now(),
	}
	if err := s.repos.Members.Create(ctx, m); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: aadhaar already registered", domain.ErrDuplicateEntry)
		}
		return nil, err
	}

	logger.Info("member created",
		zap.Uint("memberId", m.ID),
		zap.Uint("groupId", m.GroupID),
		zap.Uint("by", p.UserID),
	)
	return m, nil
}

// Update changes member details. Moving a member to another group or role is ADMIN only.
func (s *MemberService) Update(ctx context.Context, p *domain.Principal, id uint, input *UpdateMemberInput) (*models.Member, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	m, err := s.repos.Members.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "member")
	}
	if !p.ActsFor(m.GroupID, domain.RolePresident) {
		return nil, forbidden("only ADMIN or the group PRESIDENT can update members")
	}

	if input.RoleID != nil && *input.RoleID != m.RoleID {
		if !p.IsAdmin() {
			return nil, forbidden("only ADMIN can change a member's role")
		}
		if _, err := s.checkRole(ctx, *input.RoleID); err != nil {
			return nil, err
		}
		m.RoleID = *input.RoleID
	}
	if input.GroupID != nil && *input.GroupID != m.GroupID {
		if !p.IsAdmin() {
			return nil, forbidden("only ADMIN can move a member to another group")
		}
		if err := s.checkGroup(ctx, *input.GroupID); err != nil {
			return nil, err
		}
		m.GroupID = *input.GroupID
	}

	v := &domain.ValidationError{}
	if input.Name != nil {
		if m.Name = strings.TrimSpace(*input.Name); m.Name == "" {
			v.Add("name", "is required")
		}
	}
	if input.Aadhaar != nil {
		aadhaar, ok := domain.NormalizeAadhaar(*input.Aadhaar)
		if !ok {
			v.Add("aadhaar", "must be 12 digits")
		}
		m.Aadhaar = aadhaar
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	if input.Phone != nil {
		m.Phone = *input.Phone
	}
	if input.Email != nil {
		m.Email = *input.Email
	}
	if input.Address != nil {
		m.Address = *input.Address
	}
	if input.Gender != nil {
		m.Gender = *input.Gender
	}
	if input.DateOfBirth != nil {
		m.DateOfBirth = input.DateOfBirth
	}

	if err := s.repos.Members.Update(ctx, m); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: aadhaar already registered", domain.ErrDuplicateEntry)
		}
		return nil, err
	}
	return m, nil
}

// Approve marks a member as approved. ADMIN or the group's PRESIDENT.
func (s *MemberService) Approve(ctx context.Context, p *domain.Principal, id uint) (*models.Member, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	m, err := s.repos.Members.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "member")
	}
	if !p.ActsFor(m.GroupID, domain.RolePresident) {
		return nil, forbidden("only ADMIN or the group PRESIDENT can approve members")
	}
	if m.IsApproved {
		return m, nil
	}

	m.IsApproved = true
	if err := s.repos.Members.Update(ctx, m); err != nil {
		return nil, err
	}

	logger.Info("member approved", zap.Uint("memberId", m.ID), zap.Uint("by", p.UserID))
	return m, nil
}

// Delete removes a member without open loans. ADMIN only.
func (s *MemberService) Delete(ctx context.Context, p *domain.Principal, id uint) error {
	if err := requireAuth(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return forbidden("only ADMIN can delete members")
	}
	if _, err := s.repos.Members.GetByID(ctx, id); err != nil {
		return lookup(err, "member")
	}

	loans, err := s.repos.Loans.List(ctx, repositories.LoanFilter{MemberID: &id})
	if err != nil {
		return err
	}
	for _, l := range loans {
		if !l.Status.IsTerminal() {
			return fmt.Errorf("%w: member has an open loan (#%d, %s)", domain.ErrInvalidStateTransition, l.ID, l.Status)
		}
	}

	if err := s.repos.Members.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("member deleted", zap.Uint("memberId", id))
	return nil
}

func (s *MemberService) checkGroup(ctx context.Context, id uint) error {
	if _, err := s.repos.Groups.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewValidationError("groupId", "group does not exist")
		}
		return err
	}
	return nil
}

func (s *MemberService) checkRole(ctx context.Context, id uint) (*models.Role, error) {
	role, err := s.repos.Roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewValidationError("roleId", "role does not exist")
		}
		return nil, err
	}
	return role, nil
}

// checkUser requires the user to exist and not be linked to another member
func (s *MemberService) checkUser(ctx context.Context, userID, memberID uint) error {
	if _, err := s.repos.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewValidationError("userId", "user does not exist")
		}
		return err
	}
	linked, err := s.repos.Members.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if linked != nil && linked.ID != memberID {
		return fmt.Errorf("%w: user is already linked to member #%d", domain.ErrDuplicateEntry, linked.ID)
	}
	return nil
}
