package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// LoanEvent is published after every successful loan lifecycle step
type LoanEvent struct {
	LoanID      uint            `json:"loanId"`
	GroupID     uint            `json:"groupId"`
	MemberID    uint            `json:"memberId"`
	Action      LoanAction      `json:"action"`
	FromStatus  LoanStatus      `json:"fromStatus,omitempty"`
	ToStatus    LoanStatus      `json:"toStatus"`
	Amount      decimal.Decimal `json:"amount"`
	PerformedBy uint            `json:"performedBy"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// Key partitions events so every step of one loan lands in order
func (e LoanEvent) Key() string {
	return "loan-" + strconv.FormatUint(uint64(e.LoanID), 10)
}
