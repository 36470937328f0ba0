package repositories

import (
	"context"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Every implementation returns gorm.ErrRecordNotFound for missing rows and
// domain.ErrDuplicateEntry for unique-key violations.

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// RoleRepository defines role repository interface
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id uint) (*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]*models.Role, error)
	Update(ctx context.Context, role *models.Role) error
}

// GroupRepository defines group repository interface
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	List(ctx context.Context) ([]*models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error
}

// MemberFilter narrows member listings
type MemberFilter struct {
	GroupID  *uint
	Approved *bool
}

// MemberRepository defines member repository interface
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id uint) (*models.Member, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Member, error)
	GetByAadhaar(ctx context.Context, aadhaar string) (*models.Member, error)
	List(ctx context.Context, filter MemberFilter) ([]*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id uint) error
	CountByGroup(ctx context.Context, groupID uint) (int64, error)
}

// DepositFilter narrows deposit listings. From and To are inclusive.
type DepositFilter struct {
	MemberID *uint
	GroupID  *uint
	From     *time.Time
	To       *time.Time
}

// DepositSummary is the aggregate of a set of deposits
type DepositSummary struct {
	TotalDeposited   decimal.Decimal `json:"totalDeposited"`
	NumberOfDeposits int64           `json:"numberOfDeposits"`
	LastUpdated      *time.Time      `json:"lastUpdated"`
}

// SavingRepository defines the append-only deposit ledger
type SavingRepository interface {
	Create(ctx context.Context, deposit *models.SavingDeposit) error
	// List returns a newest-first page; limit <= 0 returns every match
	List(ctx context.Context, filter DepositFilter, offset, limit int) ([]*models.SavingDeposit, int64, error)
	Summarize(ctx context.Context, filter DepositFilter) (*DepositSummary, error)
}

// LoanFilter narrows loan listings
type LoanFilter struct {
	MemberID *uint
	GroupID  *uint
	Status   *domain.LoanStatus
}

// LoanChange is what a transition wants persisted alongside the loan
type LoanChange struct {
	Repayment *models.LoanRepayment
	Log       *models.LoanLog
}

// TransitionFunc mutates a copy of the loan. repaid is the sum of repayments
// recorded before this call. Returning an error discards every change.
type TransitionFunc func(loan *models.LoanApplication, repaid decimal.Decimal) (*LoanChange, error)

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.LoanApplication, log *models.LoanLog) error
	GetByID(ctx context.Context, id uint) (*models.LoanApplication, error)
	List(ctx context.Context, filter LoanFilter) ([]*models.LoanApplication, error)
	// Transition serializes fn against the latest stored state of loan id and
	// persists the loan and the returned change atomically.
	Transition(ctx context.Context, id uint, fn TransitionFunc) (*models.LoanApplication, error)
	TotalRepaid(ctx context.Context, loanID uint) (decimal.Decimal, error)
	ListRepayments(ctx context.Context, loanID uint) ([]*models.LoanRepayment, error)
	ListGroupRepayments(ctx context.Context, groupID uint, from, to time.Time) ([]*models.LoanRepayment, error)
	ListLogs(ctx context.Context, loanID uint) ([]*models.LoanLog, error)
	// Outstanding is the unpaid principal of DISBURSED loans in a group
	Outstanding(ctx context.Context, groupID uint) (decimal.Decimal, error)
}

// VoteCheck inspects the locked poll before a ballot is stored
type VoteCheck func(poll *models.Poll) error

// PollRepository defines poll repository interface
type PollRepository interface {
	Create(ctx context.Context, poll *models.Poll) error
	GetByID(ctx context.Context, id uint) (*models.Poll, error)
	List(ctx context.Context, groupID *uint) ([]*models.Poll, error)
	Update(ctx context.Context, poll *models.Poll) error
	// AddVote locks the poll, runs check against its current state and
	// inserts the vote in the same transaction. Returns
	// domain.ErrDuplicateEntry if the member already voted.
	AddVote(ctx context.Context, vote *models.PollVote, check VoteCheck) error
	ListVotes(ctx context.Context, pollID uint) ([]*models.PollVote, error)
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

// MeetingRepository defines meeting repository interface
type MeetingRepository interface {
	Create(ctx context.Context, meeting *models.Meeting) error
	GetByID(ctx context.Context, id uint) (*models.Meeting, error)
	List(ctx context.Context, groupID *uint) ([]*models.Meeting, error)
	Update(ctx context.Context, meeting *models.Meeting) error
}

// SDGRepository defines mapping and impact storage
type SDGRepository interface {
	CreateMapping(ctx context.Context, mapping *models.SDGMapping) error
	ListMappings(ctx context.Context) ([]*models.SDGMapping, error)
	CreateImpact(ctx context.Context, impact *models.SDGImpact) error
	ListImpacts(ctx context.Context, groupID uint) ([]*models.SDGImpact, error)
	SummarizeImpacts(ctx context.Context, groupID uint) ([]*models.GoalSummary, error)
}

// Repositories bundles every repository a running service needs
type Repositories struct {
	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	Roles         RoleRepository
	Groups        GroupRepository
	Members       MemberRepository
	Savings       SavingRepository
	Loans         LoanRepository
	Polls         PollRepository
	Meetings      MeetingRepository
	SDG           SDGRepository
}
