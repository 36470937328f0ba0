package services

import (
	"testing"

	"shg-finance/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMemberCreateAndApprove(t *testing.T) {
	f := newFixture(t)
	president := f.actor(domain.RolePresident, f.group)
	memberRole := f.role(domain.RoleMember)

	m, err := f.svc.Members.Create(f.ctx, president, &CreateMemberInput{
		GroupID: f.group.ID,
		RoleID:  memberRole.ID,
		Name:    " Lakshmi Devi ",
		Aadhaar: "2345 6789 0123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lakshmi Devi", m.Name)
	assert.Equal(t, "234567890123", m.Aadhaar)
	assert.False(t, m.IsApproved)

	_, err = f.svc.Members.Create(f.ctx, president, &CreateMemberInput{
		GroupID: f.group.ID, RoleID: memberRole.ID, Name: "Someone else", Aadhaar: "234567890123",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)

	// unapproved members cannot save yet
	admin := f.actor(domain.RoleAdmin, f.group)
	_, err = f.svc.Savings.Deposit(f.ctx, admin, &DepositInput{MemberID: m.ID, Amount: dec(100)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	approved, err := f.svc.Members.Approve(f.ctx, president, m.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	again, err := f.svc.Members.Approve(f.ctx, president, m.ID)
	require.NoError(t, err)
	assert.True(t, again.IsApproved)
}

func TestMemberCreate_Validation(t *testing.T) {
	f := newFixture(t)
	president := f.actor(domain.RolePresident, f.group)
	member := f.actor(domain.RoleMember, f.group)

	_, err := f.svc.Members.Create(f.ctx, member, &CreateMemberInput{GroupID: f.group.ID, Name: "x", Aadhaar: "123412341234"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Members.Create(f.ctx, president, &CreateMemberInput{GroupID: f.group.ID, RoleID: f.role(domain.RoleMember).ID, Name: "", Aadhaar: "12345"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "aadhaar")

	_, err = f.svc.Members.Create(f.ctx, president, &CreateMemberInput{GroupID: f.group.ID, RoleID: 999, Name: "x", Aadhaar: "123412341234"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "roleId")

	_, err = f.svc.Members.Create(f.ctx, president, &CreateMemberInput{GroupID: f.group.ID, RoleID: f.role(domain.RoleAdmin).ID, Name: "x", Aadhaar: "123412341234"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	linked := member.UserID
	_, err = f.svc.Members.Create(f.ctx, president, &CreateMemberInput{UserID: &linked, GroupID: f.group.ID, RoleID: f.role(domain.RoleMember).ID, Name: "x", Aadhaar: "123412341234"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
}

func TestMemberUpdate_RoleChangeIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	president := f.actor(domain.RolePresident, f.group)
	admin := f.actor(domain.RoleAdmin, f.group)
	member := f.actor(domain.RoleMember, f.group)
	treasurerRole := f.role(domain.RoleTreasurer).ID

	_, err := f.svc.Members.Update(f.ctx, president, member.MemberID, &UpdateMemberInput{RoleID: &treasurerRole})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.svc.Members.Update(f.ctx, president, member.MemberID, &UpdateMemberInput{Phone: strPtr("9876543210")})
	require.NoError(t, err)
	assert.Equal(t, "9876543210", got.Phone)

	got, err = f.svc.Members.Update(f.ctx, admin, member.MemberID, &UpdateMemberInput{RoleID: &treasurerRole})
	require.NoError(t, err)
	assert.Equal(t, treasurerRole, got.RoleID)

	_, err = f.svc.Members.Update(f.ctx, admin, member.MemberID, &UpdateMemberInput{Name: strPtr("  ")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMemberVisibility(t *testing.T) {
	f := newFixture(t)
	a := f.actor(domain.RoleMember, f.group)
	b := f.actor(domain.RoleMember, f.group)
	treasurer := f.actor(domain.RoleTreasurer, f.group)
	admin := f.actor(domain.RoleAdmin, f.newGroup("Admin group"))

	mine, err := f.svc.Members.List(f.ctx, a, nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.MemberID, mine[0].ID)

	_, err = f.svc.Members.Get(f.ctx, a, b.MemberID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	group, err := f.svc.Members.List(f.ctx, treasurer, nil)
	require.NoError(t, err)
	assert.Len(t, group, 3)

	all, err := f.svc.Members.List(f.ctx, admin, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMemberDelete_RefusesOpenLoans(t *testing.T) {
	f := newFixture(t)
	admin := f.actor(domain.RoleAdmin, f.group)
	president := f.actor(domain.RolePresident, f.group)
	borrower := f.actor(domain.RoleMember, f.group)
	loan := f.apply(borrower, 5000, 6, "education")

	err := f.svc.Members.Delete(f.ctx, president, borrower.MemberID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.svc.Members.Delete(f.ctx, admin, borrower.MemberID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.svc.Loans.Reject(f.ctx, admin, loan.ID, "", "")
	require.NoError(t, err)
	require.NoError(t, f.svc.Members.Delete(f.ctx, admin, borrower.MemberID))

	_, err = f.svc.Members.Get(f.ctx, admin, borrower.MemberID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupLifecycle(t *testing.T) {
	f := newFixture(t)
	admin := f.actor(domain.RoleAdmin, f.group)
	president := f.actor(domain.RolePresident, f.group)

	_, err := f.svc.Groups.Create(f.ctx, president, &GroupInput{Name: strPtr("New")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Groups.Create(f.ctx, admin, &GroupInput{Name: strPtr(" ")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	g, err := f.svc.Groups.Create(f.ctx, admin, &GroupInput{Name: strPtr("Shakti Sangha"), Location: strPtr("Mysuru")})
	require.NoError(t, err)
	assert.True(t, g.IsActive)
	assert.True(t, g.TotalFund.IsZero())

	_, err = f.svc.Groups.Update(f.ctx, president, g.ID, &GroupInput{Description: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	own, err := f.svc.Groups.Update(f.ctx, president, f.group.ID, &GroupInput{Description: strPtr("weekly savings")})
	require.NoError(t, err)
	assert.Equal(t, "weekly savings", own.Description)
	assert.Equal(t, f.group.Name, own.Name)

	err = f.svc.Groups.Delete(f.ctx, admin, f.group.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	require.NoError(t, f.svc.Groups.Delete(f.ctx, admin, g.ID))
	_, err = f.svc.Groups.Get(f.ctx, admin, g.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	groups, err := f.svc.Groups.List(f.ctx, president)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestRoleUpdate(t *testing.T) {
	f := newFixture(t)
	admin := f.actor(domain.RoleAdmin, f.group)
	president := f.actor(domain.RolePresident, f.group)
	role := f.role(domain.RoleTreasurer)

	roles, err := f.svc.Roles.List(f.ctx, president)
	require.NoError(t, err)
	assert.Len(t, roles, len(domain.AllRoles))

	_, err = f.svc.Roles.Update(f.ctx, president, role.ID, &UpdateRoleInput{Description: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Roles.Update(f.ctx, admin, role.ID, &UpdateRoleInput{Permissions: []string{"FLY"}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.svc.Roles.Update(f.ctx, admin, role.ID, &UpdateRoleInput{Permissions: []string{"poll_creation", "FUND_MANAGEMENT"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"POLL_CREATION", "FUND_MANAGEMENT"}, []string(got.Permissions))
	assert.Equal(t, string(domain.RoleTreasurer), got.Name)
}

func TestSDGMappingsAndSummary(t *testing.T) {
	f := newFixture(t)
	admin := f.actor(domain.RoleAdmin, f.group)
	member := f.actor(domain.RoleMember, f.group)

	mappings, err := f.svc.SDG.ListMappings(f.ctx, member)
	require.NoError(t, err)
	assert.Len(t, mappings, 5)

	_, err = f.svc.SDG.CreateMapping(f.ctx, member, &CreateMappingInput{Keywords: []string{"water"}, SDGGoal: 6, GoalTitle: "Clean Water"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.SDG.CreateMapping(f.ctx, admin, &CreateMappingInput{Keywords: []string{" "}, SDGGoal: 18})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	_, err = f.svc.SDG.CreateMapping(f.ctx, admin, &CreateMappingInput{Keywords: []string{"Water", "sanitation"}, SDGGoal: 6, GoalTitle: "Clean Water and Sanitation"})
	require.NoError(t, err)

	_, err = f.svc.SDG.RecordImpact(f.ctx, admin, &RecordImpactInput{GroupID: f.group.ID, SDGGoal: 5, ImpactType: "women_empowered", Value: dec(3)})
	require.NoError(t, err)
	_, err = f.svc.SDG.RecordImpact(f.ctx, admin, &RecordImpactInput{GroupID: f.group.ID, SDGGoal: 5, ImpactType: "WOMEN_EMPOWERED", Value: dec(2)})
	require.NoError(t, err)
	_, err = f.svc.SDG.RecordImpact(f.ctx, admin, &RecordImpactInput{GroupID: f.group.ID, SDGGoal: 6, ImpactType: "unknown", Value: dec(2)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	sum, err := f.svc.SDG.Summary(f.ctx, member, f.group.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.Records)
	require.Len(t, sum.Goals, 1)
	assert.Equal(t, 5, sum.Goals[0].SDGGoal)
	assert.True(t, sum.Goals[0].TotalValue.Equal(dec(5)))

	outsider := f.actor(domain.RoleMember, f.newGroup("Other group"))
	_, err = f.svc.SDG.Summary(f.ctx, outsider, f.group.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	president := f.actor(domain.RolePresident, f.group)
	treasurer := f.actor(domain.RoleTreasurer, f.group)
	borrower := f.actor(domain.RoleMember, f.group)

	f.deposit(borrower, 3000)
	f.deposit(treasurer, 2000)
	loan := f.apply(borrower, 4000, 6, "education")
	f.apply(borrower, 2000, 3, "medical")
	_, err := f.svc.Loans.Approve(f.ctx, president, loan.ID, "", "")
	require.NoError(t, err)
	_, err = f.svc.Loans.Disburse(f.ctx, treasurer, loan.ID, "", "")
	require.NoError(t, err)
	f.openPoll(president, nil)

	data, err := f.svc.Dashboard.Group(f.ctx, president, f.group.ID)
	require.NoError(t, err)
	assert.True(t, data.Savings.TotalDeposited.Equal(dec(5000)))
	assert.True(t, data.Outstanding.Equal(dec(4000)))
	assert.True(t, data.Group.TotalFund.Equal(dec(1000)))
	assert.Equal(t, int64(3), data.MemberCount)
	assert.Equal(t, 1, data.PendingApprovals)
	assert.Equal(t, 1, data.LoansByStatus[domain.LoanDisbursed])
	assert.Equal(t, 1, data.ActivePolls)
	assert.Zero(t, data.OverdueLoans)

	_, err = f.svc.Dashboard.Group(f.ctx, borrower, f.group.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	me, err := f.svc.Dashboard.Me(f.ctx, borrower)
	require.NoError(t, err)
	assert.True(t, me.TotalSavings.Equal(dec(3000)))
	assert.Equal(t, int64(1), me.DepositCount)
	assert.Len(t, me.Loans, 2)
	assert.True(t, me.Outstanding.Equal(dec(4000)))
	assert.Len(t, me.RecentDeposits, 1)
}
