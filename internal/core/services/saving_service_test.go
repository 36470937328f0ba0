package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavingDeposit_SummaryAccumulates(t *testing.T) {
	f := newFixture(t)
	member := f.actor(domain.RoleMember, f.group)

	first := f.deposit(member, 1000)
	second := f.deposit(member, 500)
	assert.NotEqual(t, first.ReceiptNumber, second.ReceiptNumber)
	assert.Equal(t, f.group.ID, first.GroupID)

	sum, err := f.svc.Savings.Summary(f.ctx, member, f.group.ID)
	require.NoError(t, err)
	assert.True(t, sum.TotalDeposited.Equal(dec(1500)), sum.TotalDeposited.String())
	assert.Equal(t, int64(2), sum.NumberOfDeposits)
	require.NotNil(t, sum.LastUpdated)
}

func TestSavingDeposit_Validation(t *testing.T) {
	f := newFixture(t)
	member := f.actor(domain.RoleMember, f.group)
	other := f.newGroup("Other group")

	_, err := f.svc.Savings.Deposit(f.ctx, member, &DepositInput{MemberID: member.MemberID, Amount: dec(0)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Savings.Deposit(f.ctx, member, &DepositInput{MemberID: member.MemberID, GroupID: &other.ID, Amount: dec(100)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Savings.Deposit(f.ctx, member, &DepositInput{MemberID: 9999, Amount: dec(100)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pending := &models.Member{GroupID: f.group.ID, RoleID: f.role(domain.RoleMember).ID, Name: "Pending", Aadhaar: "999988887777"}
	require.NoError(t, f.repos.Members.Create(f.ctx, pending))
	admin := f.actor(domain.RoleAdmin, f.group)
	_, err = f.svc.Savings.Deposit(f.ctx, admin, &DepositInput{MemberID: pending.ID, Amount: dec(100)})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "memberId")

	sum, err := f.svc.Savings.Summary(f.ctx, admin, f.group.ID)
	require.NoError(t, err)
	assert.Zero(t, sum.NumberOfDeposits)
}

func TestSavingDeposit_OnBehalf(t *testing.T) {
	f := newFixture(t)
	a := f.actor(domain.RoleMember, f.group)
	b := f.actor(domain.RoleMember, f.group)
	treasurer := f.actor(domain.RoleTreasurer, f.group)
	outsider := f.actor(domain.RoleTreasurer, f.newGroup("Other group"))

	_, err := f.svc.Savings.Deposit(f.ctx, a, &DepositInput{MemberID: b.MemberID, Amount: dec(100)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Savings.Deposit(f.ctx, outsider, &DepositInput{MemberID: b.MemberID, Amount: dec(100)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	d, err := f.svc.Savings.Deposit(f.ctx, treasurer, &DepositInput{MemberID: b.MemberID, Amount: dec(100), Remarks: "  cash  "})
	require.NoError(t, err)
	assert.Equal(t, b.MemberID, d.MemberID)
	assert.Equal(t, treasurer.UserID, d.CreatedBy)
	assert.Equal(t, "cash", d.Remarks)
}

func TestSavingList_VisibilityAndPaging(t *testing.T) {
	f := newFixture(t)
	a := f.actor(domain.RoleMember, f.group)
	b := f.actor(domain.RoleMember, f.group)
	president := f.actor(domain.RolePresident, f.group)
	for i := 0; i < 12; i++ {
		f.deposit(a, 100)
	}
	f.deposit(b, 250)

	page, err := f.svc.Savings.List(f.ctx, a, &SavingsQuery{Page: 1})
	require.NoError(t, err)
	assert.Len(t, page.Data, 10)
	assert.Equal(t, int64(12), page.Meta.Total)
	assert.True(t, page.Meta.HasNext)

	page, err = f.svc.Savings.List(f.ctx, a, &SavingsQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.False(t, page.Meta.HasNext)

	_, err = f.svc.Savings.List(f.ctx, a, &SavingsQuery{MemberID: &b.MemberID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := f.svc.Savings.ListAll(f.ctx, president, &SavingsQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 13)

	other := f.newGroup("Other group")
	_, err = f.svc.Savings.List(f.ctx, president, &SavingsQuery{GroupID: &other.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Savings.Summary(f.ctx, president, other.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSavingList_DateRange(t *testing.T) {
	f := newFixture(t)
	member := f.actor(domain.RoleMember, f.group)

	day := time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC)
	f.svc.Savings.now = func() time.Time { return day }
	f.deposit(member, 100)
	f.svc.Savings.now = func() time.Time { return day.AddDate(0, 0, 10) }
	f.deposit(member, 200)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	got, err := f.svc.Savings.ListAll(f.ctx, member, &SavingsQuery{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(dec(100)))

	_, err = f.svc.Savings.ListAll(f.ctx, member, &SavingsQuery{From: &to, To: &from})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReportExportSavings(t *testing.T) {
	f := newFixture(t)
	member := f.actor(domain.RoleMember, f.group)
	f.deposit(member, 1000)
	f.deposit(member, 500)

	file, err := f.svc.Reports.ExportSavings(f.ctx, member, &SavingsQuery{}, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Contains(t, file.Filename, ".csv")

	rows, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Receipt", rows[0][0])
	assert.Equal(t, []string{"", "", "", "Total", "1500.00", ""}, rows[3])

	pdf, err := f.svc.Reports.ExportSavings(f.ctx, member, &SavingsQuery{}, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))

	_, err = f.svc.Reports.ExportSavings(f.ctx, member, &SavingsQuery{}, "xlsx")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Reports.ExportSavings(f.ctx, nil, &SavingsQuery{}, "csv")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
