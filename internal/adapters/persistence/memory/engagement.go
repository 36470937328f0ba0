package memory

import (
	"context"
	"sort"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type pollRepo struct{ s *Store }

func clonePoll(p *models.Poll) *models.Poll {
	cp := *p
	cp.Options = append(models.PollOptions{}, p.Options...)
	return &cp
}

func (r *pollRepo) Create(_ context.Context, poll *models.Poll) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	poll.ID = r.s.nextID("polls")
	stamp(&poll.CreatedAt)
	r.s.polls[poll.ID] = clonePoll(poll)
	return nil
}

func (r *pollRepo) GetByID(_ context.Context, id uint) (*models.Poll, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.polls[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return clonePoll(p), nil
}

func (r *pollRepo) List(_ context.Context, groupID *uint) ([]*models.Poll, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Poll, 0)
	for _, p := range r.s.polls {
		if groupID != nil && p.GroupID != *groupID {
			continue
		}
		out = append(out, clonePoll(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *pollRepo) Update(_ context.Context, poll *models.Poll) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.polls[poll.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.polls[poll.ID] = clonePoll(poll)
	return nil
}

func (r *pollRepo) AddVote(_ context.Context, vote *models.PollVote, check repositories.VoteCheck) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	poll, ok := r.s.polls[vote.PollID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if check != nil {
		if err := check(clonePoll(poll)); err != nil {
			return err
		}
	}
	for _, v := range r.s.votes {
		if v.PollID == vote.PollID && v.MemberID == vote.MemberID {
			return duplicate("vote")
		}
	}
	vote.ID = r.s.nextID("poll_votes")
	stamp(&vote.CreatedAt)
	cp := *vote
	r.s.votes[vote.ID] = &cp
	return nil
}

func (r *pollRepo) ListVotes(_ context.Context, pollID uint) ([]*models.PollVote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.PollVote, 0)
	for _, v := range r.s.votes {
		if v.PollID == pollID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *pollRepo) CloseExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, p := range r.s.polls {
		if p.IsActive && p.Deadline != nil && p.Deadline.Before(now) {
			p.IsActive = false
			closed := now
			p.ClosedAt = &closed
			n++
		}
	}
	return n, nil
}

type meetingRepo struct{ s *Store }

func cloneMeeting(m *models.Meeting) *models.Meeting {
	cp := *m
	cp.Agenda = cloneStrings(m.Agenda)
	cp.Attendees = cloneUints(m.Attendees)
	return &cp
}

func (r *meetingRepo) Create(_ context.Context, meeting *models.Meeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	meeting.ID = r.s.nextID("meetings")
	stamp(&meeting.CreatedAt)
	meeting.UpdatedAt = meeting.CreatedAt
	r.s.meetings[meeting.ID] = cloneMeeting(meeting)
	return nil
}

func (r *meetingRepo) GetByID(_ context.Context, id uint) (*models.Meeting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.meetings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneMeeting(m), nil
}

func (r *meetingRepo) List(_ context.Context, groupID *uint) ([]*models.Meeting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Meeting, 0)
	for _, m := range r.s.meetings {
		if groupID != nil && m.GroupID != *groupID {
			continue
		}
		out = append(out, cloneMeeting(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MeetingDate.After(out[j].MeetingDate) })
	return out, nil
}

func (r *meetingRepo) Update(_ context.Context, meeting *models.Meeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.meetings[meeting.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	meeting.UpdatedAt = time.Now()
	r.s.meetings[meeting.ID] = cloneMeeting(meeting)
	return nil
}

type sdgRepo struct{ s *Store }

func (r *sdgRepo) CreateMapping(_ context.Context, mapping *models.SDGMapping) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	mapping.ID = r.s.nextID("sdg_mappings")
	stamp(&mapping.CreatedAt)
	cp := *mapping
	cp.Keywords = cloneStrings(mapping.Keywords)
	r.s.mappings[mapping.ID] = &cp
	return nil
}

func (r *sdgRepo) ListMappings(_ context.Context) ([]*models.SDGMapping, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.SDGMapping, 0, len(r.s.mappings))
	for _, m := range r.s.mappings {
		cp := *m
		cp.Keywords = cloneStrings(m.Keywords)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *sdgRepo) CreateImpact(_ context.Context, impact *models.SDGImpact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	impact.ID = r.s.nextID("sdg_impacts")
	stamp(&impact.CreatedAt)
	cp := *impact
	r.s.impacts[impact.ID] = &cp
	return nil
}

func (r *sdgRepo) ListImpacts(_ context.Context, groupID uint) ([]*models.SDGImpact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.SDGImpact, 0)
	for _, i := range r.s.impacts {
		if i.GroupID == groupID {
			cp := *i
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, nil
}

func (r *sdgRepo) SummarizeImpacts(_ context.Context, groupID uint) ([]*models.GoalSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	byGoal := make(map[int]*models.GoalSummary)
	for _, i := range r.s.impacts {
		if i.GroupID != groupID {
			continue
		}
		s, ok := byGoal[i.SDGGoal]
		if !ok {
			s = &models.GoalSummary{SDGGoal: i.SDGGoal, TotalValue: decimal.Zero}
			byGoal[i.SDGGoal] = s
		}
		s.TotalValue = s.TotalValue.Add(i.Value)
		s.RecordCount++
	}

	out := make([]*models.GoalSummary, 0, len(byGoal))
	for _, s := range byGoal {
		out = append(out, s)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].SDGGoal < out[b].SDGGoal })
	return out, nil
}
