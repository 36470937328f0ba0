package models

import (
	"time"

	"shg-finance/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Auth
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'MEMBER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"userId"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	RevokedAt *time.Time `gorm:"index" json:"revokedAt"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Organisation
// ============================================================

// Role represents roles table. Name is one of the fixed domain roles.
type Role struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"uniqueIndex;size:20;not null" json:"name"`
	Description string     `gorm:"size:255" json:"description"`
	Permissions StringList `gorm:"type:text" json:"permissions"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (Role) TableName() string {
	return "roles"
}

// DomainPermissions converts the stored permission names
func (r *Role) DomainPermissions() []domain.Permission {
	out := make([]domain.Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		out = append(out, domain.Permission(p))
	}
	return out
}

// Group represents groups table
type Group struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Location    string         `gorm:"size:255" json:"location"`
	FoundedDate *time.Time     `json:"foundedDate"`
	IsActive    bool           `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Group) TableName() string {
	return "groups"
}

// GroupResponse carries the derived fund balance
type GroupResponse struct {
	*Group
	TotalFund decimal.Decimal `json:"totalFund"`
}

func (g *Group) ToResponse(fund decimal.Decimal) *GroupResponse {
	return &GroupResponse{Group: g, TotalFund: fund}
}

// Member represents members table
type Member struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      *uint          `gorm:"index" json:"userId"`
	GroupID     uint           `gorm:"index;not null" json:"groupId"`
	RoleID      uint           `gorm:"not null" json:"roleId"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Aadhaar     string         `gorm:"uniqueIndex;size:12;not null" json:"aadhaar"`
	Phone       string         `gorm:"size:20" json:"phone"`
	Email       string         `gorm:"size:100" json:"email"`
	Address     string         `gorm:"type:text" json:"address"`
	Gender      string         `gorm:"size:10" json:"gender"`
	DateOfBirth *time.Time     `json:"dateOfBirth"`
	IsApproved  bool           `gorm:"default:false" json:"isApproved"`
	JoinedAt    time.Time      `json:"joinedAt"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Member) TableName() string {
	return "members"
}

// ============================================================
// Savings
// ============================================================

// SavingDeposit represents saving_deposits table. Rows are never updated.
type SavingDeposit struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	MemberID      uint            `gorm:"index;not null" json:"memberId"`
	GroupID       uint            `gorm:"index;not null" json:"groupId"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Remarks       string          `gorm:"size:255" json:"remarks"`
	DepositDate   time.Time       `gorm:"index;not null" json:"depositDate"`
	ReceiptNumber string          `gorm:"uniqueIndex;size:40;not null" json:"receiptNumber"`
	CreatedBy     uint            `json:"createdBy"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

func (SavingDeposit) TableName() string {
	return "saving_deposits"
}

// ============================================================
// Loans
// ============================================================

// LoanApplication represents loan_applications table
type LoanApplication struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	MemberID       uint              `gorm:"index;not null" json:"memberId"`
	GroupID        uint              `gorm:"index;not null" json:"groupId"`
	Amount         decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Purpose        string            `gorm:"size:50;not null" json:"purpose"`
	PurposeDetails string            `gorm:"type:text" json:"purposeDetails"`
	Tenure         int               `gorm:"not null" json:"tenure"`
	MonthlyIncome  decimal.Decimal   `gorm:"type:decimal(12,2)" json:"monthlyIncome"`
	Status         domain.LoanStatus `gorm:"size:20;index;not null;default:'PENDING'" json:"status"`
	Remarks        string            `gorm:"type:text" json:"remarks"`
	AppliedDate    time.Time         `gorm:"not null" json:"appliedDate"`
	ApprovedDate   *time.Time        `json:"approvedDate"`
	ApprovedBy     *uint             `json:"approvedBy"`
	RejectedDate   *time.Time        `json:"rejectedDate"`
	RejectedBy     *uint             `json:"rejectedBy"`
	DisbursedDate  *time.Time        `json:"disbursedDate"`
	DisbursedBy    *uint             `json:"disbursedBy"`
	RepaidDate     *time.Time        `json:"repaidDate"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (LoanApplication) TableName() string {
	return "loan_applications"
}

// LoanResponse adds schedule figures to a loan
type LoanResponse struct {
	*LoanApplication
	EMI         decimal.Decimal `json:"emi"`
	TotalRepaid decimal.Decimal `json:"totalRepaid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

func (l *LoanApplication) ToResponse(repaid decimal.Decimal) *LoanResponse {
	outstanding := l.Amount.Sub(repaid)
	if outstanding.IsNegative() || l.Status != domain.LoanDisbursed {
		outstanding = decimal.Zero
	}
	return &LoanResponse{
		LoanApplication: l,
		EMI:             domain.CalculateEMI(l.Amount, l.Tenure),
		TotalRepaid:     repaid,
		Outstanding:     outstanding,
	}
}

// LoanRepayment represents loan_repayments table. Rows are never updated.
type LoanRepayment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	LoanID        uint            `gorm:"index;not null" json:"loanId"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	RepaymentDate time.Time       `gorm:"index;not null" json:"repaymentDate"`
	Remarks       string          `gorm:"size:255" json:"remarks"`
	ReceiptNumber string          `gorm:"uniqueIndex;size:40;not null" json:"receiptNumber"`
	RecordedBy    uint            `json:"recordedBy"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

func (LoanRepayment) TableName() string {
	return "loan_repayments"
}

// LoanLog is the audit trail of a loan's lifecycle
type LoanLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	LoanID      uint              `gorm:"index;not null" json:"loanId"`
	Action      domain.LoanAction `gorm:"size:20;not null" json:"action"`
	FromStatus  domain.LoanStatus `gorm:"size:20" json:"fromStatus"`
	ToStatus    domain.LoanStatus `gorm:"size:20;not null" json:"toStatus"`
	Description string            `gorm:"type:text" json:"description"`
	PerformedBy uint              `gorm:"not null" json:"performedBy"`
	IPAddress   string            `gorm:"size:45" json:"ipAddress"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"createdAt"`
}

func (LoanLog) TableName() string {
	return "loan_logs"
}

// ============================================================
// Meetings & polls
// ============================================================

// Meeting represents meetings table
type Meeting struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	GroupID     uint       `gorm:"index;not null" json:"groupId"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	MeetingDate time.Time  `gorm:"not null" json:"meetingDate"`
	Location    string     `gorm:"size:255" json:"location"`
	Agenda      StringList `gorm:"type:text" json:"agenda"`
	Attendees   UintList   `gorm:"type:text" json:"attendees"`
	CreatedBy   uint       `json:"createdBy"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Meeting) TableName() string {
	return "meetings"
}

// Poll represents polls table
type Poll struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	GroupID     uint        `gorm:"index;not null" json:"groupId"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Options     PollOptions `gorm:"type:text;not null" json:"options"`
	IsActive    bool        `gorm:"default:true;index" json:"isActive"`
	Deadline    *time.Time  `json:"deadline"`
	CreatedBy   uint        `json:"createdBy"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	ClosedAt    *time.Time  `json:"closedAt"`
}

func (Poll) TableName() string {
	return "polls"
}

// PollVote is one member's ballot. The composite unique index enforces one vote per member.
type PollVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PollID    uint      `gorm:"uniqueIndex:idx_poll_member;not null" json:"pollId"`
	MemberID  uint      `gorm:"uniqueIndex:idx_poll_member;not null" json:"memberId"`
	Option    string    `gorm:"size:100;not null" json:"option"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (PollVote) TableName() string {
	return "poll_votes"
}

// PollResponse is a poll with its current tally and the derived voter map
type PollResponse struct {
	*Poll
	Votes   map[string][]uint `json:"votes"`
	Results domain.PollTally  `json:"results"`
}

func (p *Poll) ToResponse(votes []*PollVote) *PollResponse {
	byOption := make(map[string][]uint, len(p.Options))
	for _, o := range p.Options {
		byOption[o.Value] = []uint{}
	}
	ballots := make([]string, 0, len(votes))
	for _, v := range votes {
		byOption[v.Option] = append(byOption[v.Option], v.MemberID)
		ballots = append(ballots, v.Option)
	}
	return &PollResponse{
		Poll:    p,
		Votes:   byOption,
		Results: domain.Tally(p.Options, ballots),
	}
}

// ============================================================
// SDG
// ============================================================

// SDGMapping represents sdg_mappings table
type SDGMapping struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Keywords  StringList `gorm:"type:text;not null" json:"keywords"`
	SDGGoal   int        `gorm:"not null" json:"sdgGoal"`
	GoalTitle string     `gorm:"size:200;not null" json:"goalTitle"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (SDGMapping) TableName() string {
	return "sdg_mappings"
}

// SDGImpact represents sdg_impacts table
type SDGImpact struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	GroupID           uint              `gorm:"index;not null" json:"groupId"`
	SDGGoal           int               `gorm:"not null" json:"sdgGoal"`
	ImpactType        domain.ImpactType `gorm:"size:30;not null" json:"impactType"`
	Value             decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"value"`
	Month             int               `gorm:"not null" json:"month"`
	Year              int               `gorm:"not null" json:"year"`
	RelatedEntityType string            `gorm:"size:20" json:"relatedEntityType"`
	RelatedEntityID   *uint             `json:"relatedEntityId"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"createdAt"`
}

func (SDGImpact) TableName() string {
	return "sdg_impacts"
}

// GoalSummary aggregates impact values per goal
type GoalSummary struct {
	SDGGoal     int             `json:"sdgGoal"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	RecordCount int64           `json:"recordCount"`
}

// AutoMigrate creates or updates every table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Role{},
		&Group{},
		&Member{},
		&SavingDeposit{},
		&LoanApplication{},
		&LoanRepayment{},
		&LoanLog{},
		&Meeting{},
		&Poll{},
		&PollVote{},
		&SDGMapping{},
		&SDGImpact{},
	)
}
