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

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MeetingService handles group meetings and attendance
type MeetingService struct {
	repos *repositories.Repositories
}

// NewMeetingService creates a new meeting service
func NewMeetingService(repos *repositories.Repositories) *MeetingService {
	return &MeetingService{repos: repos}
}

// CreateMeetingInput represents create meeting input
type CreateMeetingInput struct {
	GroupID     uint      `json:"groupId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MeetingDate time.Time `json:"meetingDate"`
	Location    string    `json:"location"`
	Agenda      []string  `json:"agenda"`
}

// Create schedules a meeting. ADMIN or the group's PRESIDENT.
func (s *MeetingService) Create(ctx context.Context, p *domain.Principal, input *CreateMeetingInput) (*models.Meeting, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.ActsFor(input.GroupID, domain.RolePresident) {
		return nil, forbidden("only ADMIN or the group PRESIDENT can schedule meetings")
	}

	v := &domain.ValidationError{}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		v.Add("title", "is required")
	}
	if input.MeetingDate.IsZero() {
		v.Add("meetingDate", "is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.repos.Groups.GetByID(ctx, input.GroupID); err != nil {
		return nil, lookup(err, "group")
	}

	agenda := make(models.StringList, 0, len(input.Agenda))
	for _, item := range input.Agenda {
		if item = strings.TrimSpace(item); item != "" {
			agenda = append(agenda, item)
		}
	}

	m := &models.Meeting{
		GroupID:     input.GroupID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		MeetingDate: input.MeetingDate,
		Location:    strings.TrimSpace(input.Location),
		Agenda:      agenda,
		Attendees:   models.UintList{},
		CreatedBy:   p.UserID,
	}
	if err := s.repos.Meetings.Create(ctx, m); err != nil {
		return nil, err
	}

	logger.Info("meeting scheduled", zap.Uint("meetingId", m.ID), zap.Uint("groupId", m.GroupID))
	return m, nil
}

// List returns meetings. Non-ADMIN callers only see their own group.
func (s *MeetingService) List(ctx context.Context, p *domain.Principal, groupID *uint) ([]*models.Meeting, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		if p.GroupID == 0 {
			return []*models.Meeting{}, nil
		}
		if groupID != nil && *groupID != p.GroupID {
			return nil, forbidden("cannot view another group's meetings")
		}
		groupID = &p.GroupID
	}
	return s.repos.Meetings.List(ctx, groupID)
}

// Get returns one meeting
func (s *MeetingService) Get(ctx context.Context, p *domain.Principal, id uint) (*models.Meeting, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	m, err := s.repos.Meetings.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "meeting")
	}
	if !p.IsAdmin() && !p.InGroup(m.GroupID) {
		return nil, forbidden("cannot view another group's meeting")
	}
	return m, nil
}

// RecordAttendance replaces the attendee list. Every attendee must belong to the meeting's group.
func (s *MeetingService) RecordAttendance(ctx context.Context, p *domain.Principal, id uint, memberIDs []uint) (*models.Meeting, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	m, err := s.repos.Meetings.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "meeting")
	}
	if !p.ActsFor(m.GroupID, domain.RolePresident, domain.RoleTreasurer) {
		return nil, forbidden("only group officers can record attendance")
	}

	attendees := make(models.UintList, 0, len(memberIDs))
	for i, memberID := range memberIDs {
		if attendees.Contains(memberID) {
			continue
		}
		member, err := s.repos.Members.GetByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.NewValidationError(fmt.Sprintf("memberIds[%d]", i), "member does not exist")
			}
			return nil, err
		}
		if member.GroupID != m.GroupID {
			return nil, domain.NewValidationError(fmt.Sprintf("memberIds[%d]", i), "member is not in this group")
		}
		attendees = append(attendees, memberID)
	}

	m.Attendees = attendees
	if err := s.repos.Meetings.Update(ctx, m); err != nil {
		return nil, err
	}

	logger.Info("attendance recorded", zap.Uint("meetingId", m.ID), zap.Int("attendees", len(attendees)))
	return m, nil
}
