package services

import (
	"context"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/timeutil"

	"github.com/shopspring/decimal"
)

// DashboardService assembles read-only overviews
type DashboardService struct {
	repos *repositories.Repositories
	now   func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repos *repositories.Repositories) *DashboardService {
	return &DashboardService{repos: repos, now: timeutil.Now}
}

// ============================================================
// Group Dashboard
// ============================================================

// GroupDashboard represents group dashboard data
type GroupDashboard struct {
	Group            *models.GroupResponse       `json:"group"`
	Savings          repositories.DepositSummary `json:"savings"`
	MemberCount      int64                       `json:"memberCount"`
	PendingMembers   int                         `json:"pendingMembers"`
	LoansByStatus    map[domain.LoanStatus]int   `json:"loansByStatus"`
	PendingApprovals int                         `json:"pendingApprovals"`
	OverdueLoans     int                         `json:"overdueLoans"`
	Outstanding      decimal.Decimal             `json:"outstanding"`
	ActivePolls      int                         `json:"activePolls"`
	UpcomingMeetings int                         `json:"upcomingMeetings"`
}

// Group returns the overview of one group. ADMIN or group viewers.
func (s *DashboardService) Group(ctx context.Context, p *domain.Principal, groupID uint) (*GroupDashboard, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !canViewGroup(p, groupID) {
		return nil, forbidden("cannot view another group's dashboard")
	}

	group, err := s.repos.Groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, lookup(err, "group")
	}

	data := &GroupDashboard{LoansByStatus: make(map[domain.LoanStatus]int)}

	savings, err := s.repos.Savings.Summarize(ctx, repositories.DepositFilter{GroupID: &groupID})
	if err != nil {
		return nil, err
	}
	data.Savings = *savings

	if data.Outstanding, err = s.repos.Loans.Outstanding(ctx, groupID); err != nil {
		return nil, err
	}
	data.Group = group.ToResponse(savings.TotalDeposited.Sub(data.Outstanding))

	if data.MemberCount, err = s.repos.Members.CountByGroup(ctx, groupID); err != nil {
		return nil, err
	}
	pending := false
	unapproved, err := s.repos.Members.List(ctx, repositories.MemberFilter{GroupID: &groupID, Approved: &pending})
	if err != nil {
		return nil, err
	}
	data.PendingMembers = len(unapproved)

	loans, err := s.repos.Loans.List(ctx, repositories.LoanFilter{GroupID: &groupID})
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, l := range loans {
		data.LoansByStatus[l.Status]++
		if l.Status != domain.LoanDisbursed || l.DisbursedDate == nil {
			continue
		}
		repaid, err := s.repos.Loans.TotalRepaid(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		if domain.IsOverdue(l.Amount, l.Tenure, *l.DisbursedDate, now, repaid) {
			data.OverdueLoans++
		}
	}
	data.PendingApprovals = data.LoansByStatus[domain.LoanPending]

	polls, err := s.repos.Polls.List(ctx, &groupID)
	if err != nil {
		return nil, err
	}
	for _, poll := range polls {
		if domain.PollOpen(poll.IsActive, poll.Deadline, now) {
			data.ActivePolls++
		}
	}

	meetings, err := s.repos.Meetings.List(ctx, &groupID)
	if err != nil {
		return nil, err
	}
	for _, m := range meetings {
		if m.MeetingDate.After(now) {
			data.UpcomingMeetings++
		}
	}

	return data, nil
}

// ============================================================
// Member Dashboard
// ============================================================

// MemberDashboard represents the caller's own overview
type MemberDashboard struct {
	Member         *models.Member          `json:"member"`
	TotalSavings   decimal.Decimal         `json:"totalSavings"`
	DepositCount   int64                   `json:"depositCount"`
	LastDeposit    *time.Time              `json:"lastDeposit"`
	Loans          []*models.LoanResponse  `json:"loans"`
	Outstanding    decimal.Decimal         `json:"outstanding"`
	RecentDeposits []*models.SavingDeposit `json:"recentDeposits"`
}

// Me returns the caller's deposits and loans
func (s *DashboardService) Me(ctx context.Context, p *domain.Principal) (*MemberDashboard, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if p.MemberID == 0 {
		return nil, forbidden("no member record linked to this account")
	}

	member, err := s.repos.Members.GetByID(ctx, p.MemberID)
	if err != nil {
		return nil, lookup(err, "member")
	}

	data := &MemberDashboard{Member: member, Outstanding: decimal.Zero, Loans: []*models.LoanResponse{}}

	filter := repositories.DepositFilter{MemberID: &member.ID}
	summary, err := s.repos.Savings.Summarize(ctx, filter)
	if err != nil {
		return nil, err
	}
	data.TotalSavings = summary.TotalDeposited
	data.DepositCount = summary.NumberOfDeposits
	data.LastDeposit = summary.LastUpdated

	if data.RecentDeposits, _, err = s.repos.Savings.List(ctx, filter, 0, 5); err != nil {
		return nil, err
	}

	loans, err := s.repos.Loans.List(ctx, repositories.LoanFilter{MemberID: &member.ID})
	if err != nil {
		return nil, err
	}
	for _, l := range loans {
		repaid, err := s.repos.Loans.TotalRepaid(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		resp := l.ToResponse(repaid)
		data.Loans = append(data.Loans, resp)
		data.Outstanding = data.Outstanding.Add(resp.Outstanding)
	}

	return data, nil
}
