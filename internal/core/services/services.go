package services

import (
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/config"
)

// Services bundles every service the HTTP layer talks to
type Services struct {
	Auth      *AuthService
	Groups    *GroupService
	Members   *MemberService
	Roles     *RoleService
	Savings   *SavingService
	Loans     *LoanService
	Polls     *PollService
	Meetings  *MeetingService
	SDG       *SDGService
	Dashboard *DashboardService
	Reports   *ReportService
	Cron      *CronService
}

// New wires the services onto one set of repositories. denylist and publisher may be nil.
func New(repos *repositories.Repositories, cfg *config.Config, denylist TokenDenylist, publisher LoanEventPublisher) *Services {
	auth := NewAuthService(repos, denylist, cfg)
	savings := NewSavingService(repos)
	sdg := NewSDGService(repos)
	polls := NewPollService(repos)

	return &Services{
		Auth:      auth,
		Groups:    NewGroupService(repos),
		Members:   NewMemberService(repos),
		Roles:     NewRoleService(repos.Roles),
		Savings:   savings,
		Loans:     NewLoanService(repos, sdg, publisher),
		Polls:     polls,
		Meetings:  NewMeetingService(repos),
		SDG:       sdg,
		Dashboard: NewDashboardService(repos),
		Reports:   NewReportService(savings),
		Cron:      NewCronService(polls, auth),
	}
}
