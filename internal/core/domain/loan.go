package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan application
type LoanStatus string

const (
	LoanPending   LoanStatus = "PENDING"
	LoanApproved  LoanStatus = "APPROVED"
	LoanRejected  LoanStatus = "REJECTED"
	LoanDisbursed LoanStatus = "DISBURSED"
	LoanRepaid    LoanStatus = "REPAID"
)

// LoanAction names a requested lifecycle step
type LoanAction string

const (
	ActionCreate   LoanAction = "CREATE"
	ActionApprove  LoanAction = "APPROVE"
	ActionReject   LoanAction = "REJECT"
	ActionDisburse LoanAction = "DISBURSE"
	ActionRepay    LoanAction = "REPAY"
)

// Loan policy
const (
	AnnualInterestRate = 0.12
)

var (
	MinLoanAmount = decimal.NewFromInt(1000)
	MaxLoanAmount = decimal.NewFromInt(100000)
	LoanTenures   = []int{3, 6, 12, 18, 24}
	LoanPurposes  = []string{"business", "agriculture", "education", "medical", "housing", "other"}
)

// ParseLoanStatus converts a string to a LoanStatus
func ParseLoanStatus(s string) (LoanStatus, error) {
	switch st := LoanStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case LoanPending, LoanApproved, LoanRejected, LoanDisbursed, LoanRepaid:
		return st, nil
	default:
		return "", NewValidationError("status", fmt.Sprintf("unknown status %q", s))
	}
}

// IsTerminal reports whether no further transition is possible
func (s LoanStatus) IsTerminal() bool {
	return s == LoanRepaid || s == LoanRejected
}

// ActionFor maps a target status requested through a generic update to its action.
// Only approve, reject and disburse can be requested that way.
func ActionFor(target LoanStatus) (LoanAction, error) {
	switch target {
	case LoanApproved:
		return ActionApprove, nil
	case LoanRejected:
		return ActionReject, nil
	case LoanDisbursed:
		return ActionDisburse, nil
	}
	return "", fmt.Errorf("%w: status %s cannot be set directly", ErrInvalidStateTransition, target)
}

// NextStatus returns the state reached by applying action to current.
// Repay keeps DISBURSED; the caller decides when the loan becomes REPAID.
func NextStatus(current LoanStatus, action LoanAction) (LoanStatus, error) {
	switch action {
	case ActionApprove:
		if current == LoanPending {
			return LoanApproved, nil
		}
	case ActionReject:
		if current == LoanPending {
			return LoanRejected, nil
		}
	case ActionDisburse:
		if current == LoanApproved {
			return LoanDisbursed, nil
		}
	case ActionRepay:
		if current == LoanDisbursed {
			return LoanDisbursed, nil
		}
	}
	return current, fmt.Errorf("%w: cannot %s a %s loan", ErrInvalidStateTransition, strings.ToLower(string(action)), current)
}

// CanActOnLoan reports whether p may perform action on a loan of groupID owned by memberID
func CanActOnLoan(p *Principal, action LoanAction, groupID, memberID uint) bool {
	if !p.Authenticated() {
		return false
	}
	switch action {
	case ActionApprove, ActionReject:
		return p.ActsFor(groupID, RolePresident)
	case ActionDisburse:
		return p.ActsFor(groupID, RoleTreasurer)
	case ActionRepay:
		return p.IsAdmin() || p.ActsFor(groupID, RoleTreasurer) || (memberID != 0 && p.MemberID == memberID)
	case ActionCreate:
		return p.IsAdmin() || (memberID != 0 && p.MemberID == memberID)
	}
	return false
}

// ValidateLoanRequest checks amount, tenure and purpose against the loan policy
func ValidateLoanRequest(amount decimal.Decimal, tenure int, purpose string) error {
	v := &ValidationError{}
	if amount.LessThan(MinLoanAmount) || amount.GreaterThan(MaxLoanAmount) {
		v.Add("amount", fmt.Sprintf("must be between %s and %s", MinLoanAmount, MaxLoanAmount))
	}
	if !validTenure(tenure) {
		v.Add("tenure", "must be one of 3, 6, 12, 18 or 24 months")
	}
	if strings.TrimSpace(purpose) == "" {
		v.Add("purpose", "is required")
	}
	return v.OrNil()
}

func validTenure(t int) bool {
	for _, allowed := range LoanTenures {
		if t == allowed {
			return true
		}
	}
	return false
}

// CalculateEMI returns the monthly installment rounded to the nearest unit:
// P*i*(1+i)^n / ((1+i)^n - 1) with i the monthly rate.
func CalculateEMI(principal decimal.Decimal, tenure int) decimal.Decimal {
	if tenure <= 0 || principal.Sign() <= 0 {
		return decimal.Zero
	}
	p, _ := principal.Float64()
	i := AnnualInterestRate / 12
	f := math.Pow(1+i, float64(tenure))
	emi := p * i * f / (f - 1)
	return decimal.NewFromFloat(emi).Round(0)
}

// MonthsElapsed counts full calendar months between from and to
func MonthsElapsed(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// ExpectedRepayment is the amount that should have been repaid by now
func ExpectedRepayment(principal decimal.Decimal, tenure int, disbursed, now time.Time) decimal.Decimal {
	months := MonthsElapsed(disbursed, now)
	if months > tenure {
		months = tenure
	}
	return CalculateEMI(principal, tenure).Mul(decimal.NewFromInt(int64(months)))
}

// IsOverdue reports whether a disbursed loan is behind its EMI schedule
func IsOverdue(principal decimal.Decimal, tenure int, disbursed, now time.Time, repaid decimal.Decimal) bool {
	return repaid.LessThan(ExpectedRepayment(principal, tenure, disbursed, now))
}
