package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from    LoanStatus
		action  LoanAction
		want    LoanStatus
		wantErr bool
	}{
		{LoanPending, ActionApprove, LoanApproved, false},
		{LoanPending, ActionReject, LoanRejected, false},
		{LoanApproved, ActionDisburse, LoanDisbursed, false},
		{LoanDisbursed, ActionRepay, LoanDisbursed, false},
		{LoanPending, ActionDisburse, LoanPending, true},
		{LoanApproved, ActionApprove, LoanApproved, true},
		{LoanApproved, ActionReject, LoanApproved, true},
		{LoanRejected, ActionApprove, LoanRejected, true},
		{LoanRepaid, ActionRepay, LoanRepaid, true},
		{LoanPending, ActionRepay, LoanPending, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.action), func(t *testing.T) {
			got, err := NextStatus(tt.from, tt.action)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStateTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestActionFor(t *testing.T) {
	a, err := ActionFor(LoanDisbursed)
	require.NoError(t, err)
	assert.Equal(t, ActionDisburse, a)

	_, err = ActionFor(LoanRepaid)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = ActionFor(LoanPending)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestCanActOnLoan(t *testing.T) {
	president := &Principal{UserID: 1, MemberID: 10, GroupID: 1, Roles: []Role{RolePresident}}
	treasurer := &Principal{UserID: 2, MemberID: 11, GroupID: 1, Roles: []Role{RoleTreasurer}}
	member := &Principal{UserID: 3, MemberID: 12, GroupID: 1, Roles: []Role{RoleMember}}
	admin := &Principal{UserID: 4, Roles: []Role{RoleAdmin}}

	assert.True(t, CanActOnLoan(president, ActionApprove, 1, 12))
	assert.False(t, CanActOnLoan(president, ActionDisburse, 1, 12))
	assert.False(t, CanActOnLoan(president, ActionApprove, 2, 12))
	assert.False(t, CanActOnLoan(treasurer, ActionApprove, 1, 12))
	assert.True(t, CanActOnLoan(treasurer, ActionDisburse, 1, 12))
	assert.False(t, CanActOnLoan(member, ActionApprove, 1, 12))
	assert.True(t, CanActOnLoan(member, ActionRepay, 1, 12))
	assert.False(t, CanActOnLoan(member, ActionRepay, 1, 13))
	assert.True(t, CanActOnLoan(admin, ActionDisburse, 5, 99))
	assert.False(t, CanActOnLoan(nil, ActionCreate, 1, 12))
}

func TestValidateLoanRequest(t *testing.T) {
	assert.NoError(t, ValidateLoanRequest(decimal.NewFromInt(1000), 3, "business"))
	assert.NoError(t, ValidateLoanRequest(decimal.NewFromInt(100000), 24, "housing"))

	err := ValidateLoanRequest(decimal.NewFromInt(999), 12, "business")
	assert.ErrorIs(t, err, ErrValidation)

	err = ValidateLoanRequest(decimal.NewFromInt(100001), 12, "business")
	assert.ErrorIs(t, err, ErrValidation)

	err = ValidateLoanRequest(decimal.NewFromInt(5000), 7, "")
	require.ErrorIs(t, err, ErrValidation)
	v := err.(*ValidationError)
	assert.Contains(t, v.Fields, "tenure")
	assert.Contains(t, v.Fields, "purpose")
}

func TestCalculateEMI(t *testing.T) {
	assert.Equal(t, "2221", CalculateEMI(decimal.NewFromInt(25000), 12).String())
	assert.Equal(t, "4707", CalculateEMI(decimal.NewFromInt(100000), 24).String())
	assert.True(t, CalculateEMI(decimal.NewFromInt(25000), 0).IsZero())
}

func TestMonthsElapsedAndOverdue(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, MonthsElapsed(start, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, MonthsElapsed(start, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, MonthsElapsed(start, start.AddDate(0, 0, -3)))

	amount := decimal.NewFromInt(25000)
	now := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)
	// three installments of 2221 are due
	assert.True(t, IsOverdue(amount, 12, start, now, decimal.NewFromInt(6000)))
	assert.False(t, IsOverdue(amount, 12, start, now, decimal.NewFromInt(6663)))
}
