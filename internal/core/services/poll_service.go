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
	"shg-finance/internal/pkg/metrics"
	"shg-finance/internal/pkg/timeutil"

	"go.uber.org/zap"
)

// PollService handles group polls
type PollService struct {
	repos *repositories.Repositories
	now   func() time.Time
}

// NewPollService creates a new poll service
func NewPollService(repos *repositories.Repositories) *PollService {
	return &PollService{repos: repos, now: timeutil.Now}
}

// CreatePollInput represents create poll input
type CreatePollInput struct {
	GroupID     uint                `json:"groupId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Options     []domain.PollOption `json:"options"`
	Deadline    *time.Time          `json:"deadline"`
}

// Create opens a new poll. ADMIN or the group's PRESIDENT.
func (s *PollService) Create(ctx context.Context, p *domain.Principal, input *CreatePollInput) (*models.PollResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.ActsFor(input.GroupID, domain.RolePresident) {
		return nil, forbidden("only ADMIN or the group PRESIDENT can create polls")
	}

	options := make([]domain.PollOption, 0, len(input.Options))
	for _, o := range input.Options {
		options = append(options, domain.PollOption{Value: strings.TrimSpace(o.Value), Label: strings.TrimSpace(o.Label)})
	}

	v := &domain.ValidationError{}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		v.Add("title", "is required")
	}
	var optErr *domain.ValidationError
	if err := domain.ValidatePollOptions(options); errors.As(err, &optErr) {
		for k, msg := range optErr.Fields {
			v.Add(k, msg)
		}
	}
	if input.Deadline != nil && !input.Deadline.After(s.now()) {
		v.Add("deadline", "must be in the future")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.repos.Groups.GetByID(ctx, input.GroupID); err != nil {
		return nil, lookup(err, "group")
	}

	poll := &models.Poll{
		GroupID:     input.GroupID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Options:     models.PollOptions(options),
		IsActive:    true,
		Deadline:    input.Deadline,
		CreatedBy:   p.UserID,
	}
	if err := s.repos.Polls.Create(ctx, poll); err != nil {
		return nil, err
	}

	logger.Info("poll created", zap.Uint("pollId", poll.ID), zap.Uint("groupId", poll.GroupID))
	return poll.ToResponse(nil), nil
}

// List returns polls with their current tallies. Non-ADMIN callers only see their own group.
func (s *PollService) List(ctx context.Context, p *domain.Principal, groupID *uint) ([]*models.PollResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		if p.GroupID == 0 {
			return []*models.PollResponse{}, nil
		}
		if groupID != nil && *groupID != p.GroupID {
			return nil, forbidden("cannot view another group's polls")
		}
		groupID = &p.GroupID
	}

	polls, err := s.repos.Polls.List(ctx, groupID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.PollResponse, 0, len(polls))
	for _, poll := range polls {
		votes, err := s.repos.Polls.ListVotes(ctx, poll.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, poll.ToResponse(votes))
	}
	return out, nil
}

// Get returns one poll with its current tally
func (s *PollService) Get(ctx context.Context, p *domain.Principal, id uint) (*models.PollResponse, error) {
	poll, err := s.visible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	votes, err := s.repos.Polls.ListVotes(ctx, poll.ID)
	if err != nil {
		return nil, err
	}
	return poll.ToResponse(votes), nil
}

// Vote casts the caller's single ballot
func (s *PollService) Vote(ctx context.Context, p *domain.Principal, id uint, option string) (*models.PollResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	poll, err := s.repos.Polls.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "poll")
	}
	if p.MemberID == 0 {
		return nil, forbidden("only members can vote")
	}
	if !p.IsAdmin() && !p.InGroup(poll.GroupID) {
		return nil, forbidden("cannot vote in another group's poll")
	}
	member, err := s.repos.Members.GetByID(ctx, p.MemberID)
	if err != nil {
		return nil, lookup(err, "member")
	}
	if !member.IsApproved {
		return nil, domain.NewValidationError("memberId", "member is not approved")
	}

	if err := s.checkOpen(poll); err != nil {
		return nil, err
	}
	option = strings.TrimSpace(option)
	if !domain.HasOption(poll.Options, option) {
		return nil, domain.NewValidationError("selectedOption", fmt.Sprintf("unknown option %q", option))
	}

	votes, err := s.repos.Polls.ListVotes(ctx, poll.ID)
	if err != nil {
		return nil, err
	}
	for _, v := range votes {
		if v.MemberID == p.MemberID {
			return nil, fmt.Errorf("%w: member already voted", domain.ErrDuplicateEntry)
		}
	}

	// re-checked under the poll row lock; a close may have landed since the read above
	vote := &models.PollVote{PollID: poll.ID, MemberID: p.MemberID, Option: option}
	if err := s.repos.Polls.AddVote(ctx, vote, s.checkOpen); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: member already voted", domain.ErrDuplicateEntry)
		}
		return nil, err
	}
	metrics.PollVotesTotal.Inc()

	return poll.ToResponse(append(votes, vote)), nil
}

// Tally counts the votes of a poll
func (s *PollService) Tally(ctx context.Context, p *domain.Principal, id uint) (*domain.PollTally, error) {
	resp, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return &resp.Results, nil
}

// Close stops a poll from accepting votes. ADMIN or the group's PRESIDENT.
func (s *PollService) Close(ctx context.Context, p *domain.Principal, id uint) (*models.PollResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	poll, err := s.repos.Polls.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "poll")
	}
	if !p.ActsFor(poll.GroupID, domain.RolePresident) {
		return nil, forbidden("only ADMIN or the group PRESIDENT can close polls")
	}
	if !poll.IsActive {
		return nil, fmt.Errorf("%w: poll already closed", domain.ErrInvalidStateTransition)
	}

	now := s.now()
	poll.IsActive = false
	poll.ClosedAt = &now
	if err := s.repos.Polls.Update(ctx, poll); err != nil {
		return nil, err
	}

	logger.Info("poll closed", zap.Uint("pollId", poll.ID), zap.Uint("by", p.UserID))
	return s.Get(ctx, p, id)
}

// CloseExpired deactivates every open poll whose deadline has passed
func (s *PollService) CloseExpired(ctx context.Context) (int64, error) {
	return s.repos.Polls.CloseExpired(ctx, s.now())
}

func (s *PollService) checkOpen(poll *models.Poll) error {
	if !domain.PollOpen(poll.IsActive, poll.Deadline, s.now()) {
		return fmt.Errorf("%w: poll is closed", domain.ErrInvalidStateTransition)
	}
	return nil
}

func (s *PollService) visible(ctx context.Context, p *domain.Principal, id uint) (*models.Poll, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	poll, err := s.repos.Polls.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "poll")
	}
	if !p.IsAdmin() && !p.InGroup(poll.GroupID) {
		return nil, forbidden("cannot view another group's poll")
	}
	return poll, nil
}
