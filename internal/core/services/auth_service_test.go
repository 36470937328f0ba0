package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapDenylist struct {
	mu  sync.Mutex
	ids map[string]time.Duration
}

func (d *mapDenylist) Revoke(_ context.Context, id string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ids == nil {
		d.ids = make(map[string]time.Duration)
	}
	d.ids[id] = ttl
	return nil
}

func (d *mapDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.ids[id]
	return ok, nil
}

func TestAuthRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Auth.Register(f.ctx, &RegisterInput{Username: "meena", Email: "meena@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, string(domain.RoleMember), resp.Role)
	assert.Nil(t, resp.Member)

	_, err = f.svc.Auth.Register(f.ctx, &RegisterInput{Username: "meena", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
	_, err = f.svc.Auth.Register(f.ctx, &RegisterInput{Username: "meena2", Email: "meena@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)

	_, err = f.svc.Auth.Register(f.ctx, &RegisterInput{Username: "ab", Email: "not-an-email", Password: "short"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	login, err := f.svc.Auth.Login(f.ctx, &LoginInput{Username: "meena", Password: "password123"})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, login.RefreshToken)

	_, err = f.svc.Auth.Login(f.ctx, &LoginInput{Username: "meena", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.svc.Auth.Login(f.ctx, &LoginInput{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthTokensCarryMemberRole(t *testing.T) {
	f := newFixture(t)
	treasurer := f.actor(domain.RoleTreasurer, f.group)
	user, err := f.repos.Users.GetByID(f.ctx, treasurer.UserID)
	require.NoError(t, err)

	login, err := f.svc.Auth.Login(f.ctx, &LoginInput{Username: user.Username, Password: "password123"})
	require.NoError(t, err)
	require.NotNil(t, login.Member)
	assert.ElementsMatch(t, []string{"MEMBER", "TREASURER"}, login.Roles)
	assert.Contains(t, login.Permissions, string(domain.PermLoanApproval))

	p, claims, err := f.svc.Auth.Authenticate(f.ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, treasurer.MemberID, p.MemberID)
	assert.Equal(t, f.group.ID, p.GroupID)
	assert.True(t, p.ActsFor(f.group.ID, domain.RoleTreasurer))
	assert.False(t, p.IsAdmin())
	assert.NotEmpty(t, claims.ID)

	me, err := f.svc.Auth.Me(f.ctx, p)
	require.NoError(t, err)
	assert.Equal(t, user.Username, me.User.Username)
	assert.Empty(t, me.AccessToken)
}

func TestAuthUnapprovedMemberRoleIgnored(t *testing.T) {
	f := newFixture(t)
	president := f.actor(domain.RolePresident, f.group)
	member, err := f.repos.Members.GetByID(f.ctx, president.MemberID)
	require.NoError(t, err)
	member.IsApproved = false
	require.NoError(t, f.repos.Members.Update(f.ctx, member))

	user, err := f.repos.Users.GetByID(f.ctx, president.UserID)
	require.NoError(t, err)
	id, err := f.svc.Auth.resolve(f.ctx, user)
	require.NoError(t, err)
	assert.False(t, id.principal.HasRole(domain.RolePresident))
	assert.Equal(t, member.ID, id.principal.MemberID)
}

func TestAuthRefreshRotation(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Auth.Register(f.ctx, &RegisterInput{Username: "asha", Email: "asha@example.com", Password: "password123"})
	require.NoError(t, err)

	second, err := f.svc.Auth.Refresh(f.ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// replaying the rotated token ends every session
	_, err = f.svc.Auth.Refresh(f.ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	_, err = f.svc.Auth.Refresh(f.ctx, second.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = f.svc.Auth.Refresh(f.ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	_, err = f.svc.Auth.Refresh(f.ctx, first.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAuthLogoutDenylistsAccessToken(t *testing.T) {
	f := newFixture(t)
	deny := &mapDenylist{}
	auth := NewAuthService(f.repos, deny, testConfig)

	resp, err := auth.Register(f.ctx, &RegisterInput{Username: "kavya", Email: "kavya@example.com", Password: "password123"})
	require.NoError(t, err)

	_, claims, err := auth.Authenticate(f.ctx, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(f.ctx, resp.RefreshToken, claims))
	assert.Contains(t, deny.ids, claims.ID)
	assert.Greater(t, deny.ids[claims.ID], time.Duration(0))

	_, _, err = auth.Authenticate(f.ctx, resp.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = auth.Refresh(f.ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAuthenticate_RejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	token, err := jwt.GenerateAccessToken(jwt.Subject{UserID: 1, Username: "x", Roles: []string{"SUPERUSER"}}, testConfig.JWT.Secret, 5)
	require.NoError(t, err)

	_, _, err = f.svc.Auth.Authenticate(f.ctx, token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	expired, err := jwt.GenerateAccessToken(jwt.Subject{UserID: 1, Username: "x"}, testConfig.JWT.Secret, -1)
	require.NoError(t, err)
	_, _, err = f.svc.Auth.Authenticate(f.ctx, expired)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestAuthLogin_InactiveUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Auth.Register(f.ctx, &RegisterInput{Username: "ravi", Email: "ravi@example.com", Password: "password123"})
	require.NoError(t, err)
	user, err := f.repos.Users.GetByUsername(f.ctx, "ravi")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, f.repos.Users.Update(f.ctx, user))

	_, err = f.svc.Auth.Login(f.ctx, &LoginInput{Username: "ravi", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAuthPurgeTokens(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Auth.Register(f.ctx, &RegisterInput{Username: "gita", Email: "gita@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = f.svc.Auth.Refresh(f.ctx, first.RefreshToken)
	require.NoError(t, err)

	n, err := f.svc.Auth.PurgeTokens(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
