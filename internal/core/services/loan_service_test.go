package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LoanEvent
}

func (r *recordingPublisher) PublishLoanEvent(_ context.Context, e domain.LoanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func TestLoanLifecycle_FullRepayment(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{}
	f.svc.Loans.publisher = pub

	borrower := f.actor(domain.RoleMember, f.group)
	president := f.actor(domain.RolePresident, f.group)
	treasurer := f.actor(domain.RoleTreasurer, f.group)

	loan := f.apply(borrower, 25000, 12, "business")
	assert.Equal(t, domain.LoanPending, loan.Status)
	assert.True(t, loan.EMI.Equal(dec(2221)), loan.EMI.String())

	approved, err := f.svc.Loans.Approve(f.ctx, president, loan.ID, "looks good", "")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, president.UserID, *approved.ApprovedBy)

	disbursed, err := f.svc.Loans.Disburse(f.ctx, treasurer, loan.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanDisbursed, disbursed.Status)
	assert.NotNil(t, disbursed.DisbursedDate)
	assert.True(t, disbursed.Outstanding.Equal(dec(25000)))

	for _, amount := range []int64{10000, 10000} {
		res, err := f.svc.Loans.Repay(f.ctx, borrower, loan.ID, &RepayInput{Amount: dec(amount)}, "")
		require.NoError(t, err)
		assert.Equal(t, domain.LoanDisbursed, res.Loan.Status)
		assert.NotEmpty(t, res.Repayment.ReceiptNumber)
	}

	res, err := f.svc.Loans.Repay(f.ctx, treasurer, loan.ID, &RepayInput{Amount: dec(5000)}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanRepaid, res.Loan.Status)
	assert.NotNil(t, res.Loan.RepaidDate)
	assert.True(t, res.Loan.TotalRepaid.Equal(dec(25000)))
	assert.True(t, res.Loan.Outstanding.IsZero())

	logs, err := f.svc.Loans.Logs(f.ctx, borrower, loan.ID)
	require.NoError(t, err)
	actions := make([]domain.LoanAction, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []domain.LoanAction{
		domain.ActionCreate, domain.ActionApprove, domain.ActionDisburse,
		domain.ActionRepay, domain.ActionRepay, domain.ActionRepay,
	}, actions)
	assert.Equal(t, domain.LoanRepaid, logs[len(logs)-1].ToStatus)

	assert.Len(t, pub.events, 6)
	assert.Equal(t, domain.LoanRepaid, pub.events[5].ToStatus)

	// terminal
	_, err = f.svc.Loans.Repay(f.ctx, borrower, loan.ID, &RepayInput{Amount: dec(1)}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestLoanCreate_ValidatesPolicy(t *testing.T) {
	f := newFixture(t)
	borrower := f.actor(domain.RoleMember, f.group)

	cases := []struct {
		name   string
		amount int64
		tenure int
		field  string
	}{
		{"below minimum", 999, 12, "amount"},
		{"above maximum", 100001, 12, "amount"},
		{"bad tenure", 5000, 7, "tenure"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Loans.Create(f.ctx, borrower, &CreateLoanInput{
				Amount: dec(tc.amount), Tenure: tc.tenure, Purpose: "business",
			}, "")
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}

	loans, err := f.svc.Loans.List(f.ctx, borrower, repositories.LoanFilter{})
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestLoanCreate_ForOtherMemberForbidden(t *testing.T) {
	f := newFixture(t)
	a := f.actor(domain.RoleMember, f.group)
	b := f.actor(domain.RoleMember, f.group)

	_, err := f.svc.Loans.Create(f.ctx, a, &CreateLoanInput{
		MemberID: &b.MemberID, Amount: dec(5000), Tenure: 6, Purpose: "education",
	}, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLoanApprove_MemberCannotApproveOwnLoan(t *testing.T) {
	f := newFixture(t)
	borrower := f.actor(domain.RoleMember, f.group)
	loan := f.apply(borrower, 5000, 6, "education")

	_, err := f.svc.Loans.Approve(f.ctx, borrower, loan.ID, "", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.svc.Loans.Get(f.ctx, borrower, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanPending, got.Status)
}

func TestLoanRoles_PresidentApprovesTreasurerDisburses(t *testing.T) {
	f := newFixture(t)
	borrower := f.actor(domain.RoleMember, f.group)
	president := f.actor(domain.RolePresident, f.group)
	treasurer := f.actor(domain.RoleTreasurer, f.group)
	loan := f.apply(borrower, 5000, 6, "education")

	_, err := f.svc.Loans.Approve(f.ctx, treasurer, loan.ID, "", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Loans.Approve(f.ctx, president, loan.ID, "", "")
	require.NoError(t, err)

	_, err = f.svc.Loans.Disburse(f.ctx, president, loan.ID, "", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.svc.Loans.Disburse(f.ctx, treasurer, loan.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanDisbursed, got.Status)
}

func TestLoanRoles_OtherGroupPresidentForbidden(t *testing.T) {
	f := newFixture(t)
	other := f.newGroup("Other group")
	borrower := f.actor(domain.RoleMember, f.group)
	outsider := f.actor(domain.RolePresident, other)
	loan := f.apply(borrower, 5000, 6, "education")

	_, err := f.svc.Loans.Approve(f.ctx, outsider, loan.ID, "", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLoanTransitions_InvalidStateLeavesRecord(t *testing.T) {
	f := newFixture(t)
	admin := f.actor(domain.RoleAdmin, f.group)
	borrower := f.actor(domain.RoleMember, f.group)
	loan := f.apply(borrower, 5000, 6, "education")

	_, err := f.svc.Loans.Disburse(f.ctx, admin, loan.ID, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.svc.Loans.Repay(f.ctx, admin, loan.ID, &RepayInput{Amount: dec(100)}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.svc.Loans.Reject(f.ctx, admin, loan.ID, "insufficient savings", "")
	require.NoError(t, err)

	_, err = f.svc.Loans.Approve(f.ctx, admin, loan.ID, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	got, err := f.svc.Loans.Get(f.ctx, admin, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanRejected, got.Status)
	assert.Equal(t, "insufficient savings", got.Remarks)
}

func TestLoanUpdateStatus(t *testing.T) {
	f := newFixture(t)
	admin := f.actor(domain.RoleAdmin, f.group)
	borrower := f.actor(domain.RoleMember, f.group)
	loan := f.apply(borrower, 5000, 6, "education")

	for _, target := range []string{"REPAID", "PENDING"} {
		_, err := f.svc.Loans.UpdateStatus(f.ctx, admin, loan.ID, target, "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, target)
	}

	_, err := f.svc.Loans.UpdateStatus(f.ctx, admin, loan.ID, "bogus", "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.svc.Loans.UpdateStatus(f.ctx, admin, loan.ID, "approved", "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanApproved, got.Status)
}

func TestLoanRepay_RejectsOverpayment(t *testing.T) {
	f := newFixture(t)
	admin := f.actor(domain.RoleAdmin, f.group)
	borrower := f.actor(domain.RoleMember, f.group)
	loan := f.apply(borrower, 5000, 6, "education")
	_, err := f.svc.Loans.Approve(f.ctx, admin, loan.ID, "", "")
	require.NoError(t, err)
	_, err = f.svc.Loans.Disburse(f.ctx, admin, loan.ID, "", "")
	require.NoError(t, err)

	_, err = f.svc.Loans.Repay(f.ctx, borrower, loan.ID, &RepayInput{Amount: dec(5001)}, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Loans.Repay(f.ctx, borrower, loan.ID, &RepayInput{Amount: decimal.Zero}, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	other := f.actor(domain.RoleMember, f.group)
	_, err = f.svc.Loans.Repay(f.ctx, other, loan.ID, &RepayInput{Amount: dec(100)}, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLoanDisburse_RecordsSDGImpactAndReducesFund(t *testing.T) {
	f := newFixture(t)
	admin := f.actor(domain.RoleAdmin, f.group)
	borrower := f.actor(domain.RoleMember, f.group)
	f.deposit(borrower, 20000)

	loan, err := f.svc.Loans.Create(f.ctx, borrower, &CreateLoanInput{
		Amount: dec(8000), Tenure: 12, Purpose: "other", PurposeDetails: "Open a tailoring SHOP",
	}, "")
	require.NoError(t, err)
	_, err = f.svc.Loans.Approve(f.ctx, admin, loan.ID, "", "")
	require.NoError(t, err)
	_, err = f.svc.Loans.Disburse(f.ctx, admin, loan.ID, "", "")
	require.NoError(t, err)

	impacts, err := f.svc.SDG.ListImpacts(f.ctx, admin, f.group.ID)
	require.NoError(t, err)
	require.Len(t, impacts, 1)
	assert.Equal(t, 8, impacts[0].SDGGoal)
	assert.Equal(t, domain.ImpactLoanDisbursed, impacts[0].ImpactType)
	assert.Equal(t, domain.RelatedLoan, impacts[0].RelatedEntityType)
	assert.True(t, impacts[0].Value.Equal(dec(8000)))

	g, err := f.svc.Groups.Get(f.ctx, admin, f.group.ID)
	require.NoError(t, err)
	assert.True(t, g.TotalFund.Equal(dec(12000)), g.TotalFund.String())

	_, err = f.svc.Loans.Repay(f.ctx, borrower, loan.ID, &RepayInput{Amount: dec(3000)}, "")
	require.NoError(t, err)
	g, err = f.svc.Groups.Get(f.ctx, admin, f.group.ID)
	require.NoError(t, err)
	assert.True(t, g.TotalFund.Equal(dec(15000)), g.TotalFund.String())
}

func TestLoanRepay_ConcurrentRepaymentsNeverOverpay(t *testing.T) {
	f := newFixture(t)
	admin := f.actor(domain.RoleAdmin, f.group)
	borrower := f.actor(domain.RoleMember, f.group)
	loan := f.apply(borrower, 5000, 6, "education")
	_, err := f.svc.Loans.Approve(f.ctx, admin, loan.ID, "", "")
	require.NoError(t, err)
	_, err = f.svc.Loans.Disburse(f.ctx, admin, loan.ID, "", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Loans.Repay(f.ctx, borrower, loan.ID, &RepayInput{Amount: dec(1000)}, "")
		}()
	}
	wg.Wait()

	repayments, err := f.svc.Loans.Repayments(f.ctx, borrower, loan.ID)
	require.NoError(t, err)
	assert.Len(t, repayments, 5)

	got, err := f.svc.Loans.Get(f.ctx, borrower, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanRepaid, got.Status)
}

func TestLoanVisibility(t *testing.T) {
	f := newFixture(t)
	other := f.newGroup("Other group")
	a := f.actor(domain.RoleMember, f.group)
	b := f.actor(domain.RoleMember, f.group)
	president := f.actor(domain.RolePresident, f.group)
	outsider := f.actor(domain.RoleTreasurer, other)
	loan := f.apply(a, 5000, 6, "education")

	_, err := f.svc.Loans.Get(f.ctx, b, loan.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Loans.Get(f.ctx, outsider, loan.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Loans.Get(f.ctx, president, loan.ID)
	assert.NoError(t, err)

	mine, err := f.svc.Loans.List(f.ctx, b, repositories.LoanFilter{})
	require.NoError(t, err)
	assert.Empty(t, mine)

	group, err := f.svc.Loans.List(f.ctx, president, repositories.LoanFilter{})
	require.NoError(t, err)
	assert.Len(t, group, 1)

	_, err = f.svc.Loans.List(f.ctx, president, repositories.LoanFilter{GroupID: &other.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Loans.Get(f.ctx, nil, loan.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestLoanOverdueAndGroupRepayments(t *testing.T) {
	f := newFixture(t)
	admin := f.actor(domain.RoleAdmin, f.group)
	borrower := f.actor(domain.RoleMember, f.group)

	disbursedAt := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	f.svc.Loans.now = func() time.Time { return disbursedAt }

	loan := f.apply(borrower, 12000, 12, "agriculture")
	_, err := f.svc.Loans.Approve(f.ctx, admin, loan.ID, "", "")
	require.NoError(t, err)
	_, err = f.svc.Loans.Disburse(f.ctx, admin, loan.ID, "", "")
	require.NoError(t, err)
	_, err = f.svc.Loans.Repay(f.ctx, borrower, loan.ID, &RepayInput{Amount: dec(1000)}, "")
	require.NoError(t, err)

	// three full months later only one installment was paid
	f.svc.Loans.now = func() time.Time { return disbursedAt.AddDate(0, 3, 1) }
	overdue, err := f.svc.Loans.Overdue(f.ctx, admin, f.group.ID)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, 3, overdue[0].MonthsElapsed)
	emi := domain.CalculateEMI(dec(12000), 12)
	assert.True(t, overdue[0].ExpectedRepaid.Equal(emi.Mul(dec(3))))
	assert.True(t, overdue[0].Shortfall.Equal(emi.Mul(dec(3)).Sub(dec(1000))))

	month, err := f.svc.Loans.GroupRepayments(f.ctx, admin, f.group.ID, 2024, 1)
	require.NoError(t, err)
	assert.Len(t, month.Repayments, 1)
	assert.True(t, month.Total.Equal(dec(1000)))

	empty, err := f.svc.Loans.GroupRepayments(f.ctx, admin, f.group.ID, 2024, 2)
	require.NoError(t, err)
	assert.Empty(t, empty.Repayments)

	_, err = f.svc.Loans.Overdue(f.ctx, borrower, f.group.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLoanQuoteEMI(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.Loans.QuoteEMI(dec(100000), 24)
	require.NoError(t, err)
	assert.True(t, q.EMI.Equal(dec(4707)), q.EMI.String())
	assert.True(t, q.TotalPayable.Equal(dec(4707*24)))
	assert.True(t, q.TotalInterest.Equal(dec(4707*24-100000)))

	_, err = f.svc.Loans.QuoteEMI(dec(500), 12)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
