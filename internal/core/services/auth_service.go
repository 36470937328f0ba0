package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/config"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/jwt"
	"shg-finance/internal/pkg/logger"
	"shg-finance/internal/pkg/password"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles authentication business logic
type AuthService struct {
	repos    *repositories.Repositories
	denylist TokenDenylist
	cfg      *config.Config
}

// NewAuthService creates a new auth service. A nil denylist disables
// server-side access token revocation.
func NewAuthService(repos *repositories.Repositories, denylist TokenDenylist, cfg *config.Config) *AuthService {
	if denylist == nil {
		denylist = nopDenylist{}
	}
	return &AuthService{repos: repos, denylist: denylist, cfg: cfg}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string               `json:"access_token,omitempty"`
	RefreshToken string               `json:"refresh_token,omitempty"`
	User         *models.UserResponse `json:"user"`
	Member       *models.Member       `json:"member"`
	Role         string               `json:"role"`
	Roles        []string             `json:"roles"`
	Permissions  []string             `json:"permissions"`
}

// identity is everything a token is derived from
type identity struct {
	user      *models.User
	member    *models.Member
	role      string
	principal *domain.Principal
}

func (i *identity) response() *AuthResponse {
	return &AuthResponse{
		User:        i.user.ToResponse(),
		Member:      i.member,
		Role:        i.role,
		Roles:       i.principal.RoleNames(),
		Permissions: i.principal.PermissionNames(),
	}
}

// Register creates a MEMBER user account. Linking it to a member record is
// done by a group PRESIDENT or ADMIN.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	v := &domain.ValidationError{}
	if l := len(input.Username); l < 3 || l > 50 {
		v.Add("username", "must be between 3 and 50 characters")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		v.Add("email", "must be a valid email address")
	}
	if !password.ValidatePassword(input.Password) {
		v.Add("password", fmt.Sprintf("must be at least %d characters", password.MinLength))
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	exists, err := s.repos.Users.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: username already taken", domain.ErrDuplicateEntry)
	}

	exists, err = s.repos.Users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrDuplicateEntry)
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: hashed,
		Role:     string(domain.RoleMember),
		IsActive: true,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("user registered", zap.String("username", user.Username), zap.Uint("userId", user.ID))
	return s.issue(ctx, user)
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.repos.Users.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, forbidden("user account is inactive")
	}

	logger.Info("user logged in", zap.String("username", user.Username))
	return s.issue(ctx, user)
}

// Refresh rotates a refresh token and issues a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		return nil, tokenError(err)
	}

	stored, err := s.repos.RefreshTokens.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	// A revoked token being replayed means the pair leaked; end every session.
	if stored.IsRevoked() {
		if err := s.repos.RefreshTokens.RevokeAllByUserID(ctx, stored.UserID); err != nil {
			return nil, err
		}
		logger.Warn("revoked refresh token replayed", zap.Uint("userId", stored.UserID))
		return nil, fmt.Errorf("%w: refresh token revoked", domain.ErrTokenInvalid)
	}
	if stored.IsExpired() {
		return nil, domain.ErrTokenExpired
	}
	if stored.UserID != claims.UserID {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.repos.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, forbidden("user account is inactive")
	}

	if err := s.repos.RefreshTokens.Revoke(ctx, stored.ID); err != nil {
		return nil, err
	}

	return s.issue(ctx, user)
}

// Logout revokes the refresh token and denylists the access token until it expires
func (s *AuthService) Logout(ctx context.Context, refreshToken string, access *jwt.Claims) error {
	if refreshToken != "" {
		if err := s.repos.RefreshTokens.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
			return err
		}
	}

	if access != nil && access.ID != "" {
		if ttl := access.Remaining(); ttl > 0 {
			if err := s.denylist.Revoke(ctx, access.ID, ttl); err != nil {
				return err
			}
		}
	}

	logger.Info("user logged out", zap.Uint("userId", userIDOf(access)))
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.repos.RefreshTokens.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}
	logger.Info("all sessions revoked", zap.Uint("userId", userID))
	return nil
}

// Authenticate verifies an access token and returns the principal it carries
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.Principal, *jwt.Claims, error) {
	claims, err := jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
	if err != nil {
		return nil, nil, tokenError(err)
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, fmt.Errorf("%w: token revoked", domain.ErrTokenInvalid)
	}

	p, err := PrincipalFromClaims(claims)
	if err != nil {
		return nil, nil, err
	}
	return p, claims, nil
}

// PrincipalFromClaims converts verified claims. Unknown role names invalidate the token.
func PrincipalFromClaims(claims *jwt.Claims) (*domain.Principal, error) {
	p := &domain.Principal{
		UserID:   claims.UserID,
		MemberID: claims.MemberID,
		GroupID:  claims.GroupID,
		Username: claims.Username,
	}
	for _, name := range claims.Roles {
		role, err := domain.ParseRole(name)
		if err != nil {
			return nil, err
		}
		p.Roles = append(p.Roles, role)
	}
	for _, perm := range claims.Permissions {
		p.Permissions = append(p.Permissions, domain.Permission(perm))
	}
	return p, nil
}

// Me returns the caller's current profile, roles and permissions
func (s *AuthService) Me(ctx context.Context, p *domain.Principal) (*AuthResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	user, err := s.repos.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, lookup(err, "user")
	}
	id, err := s.resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	return id.response(), nil
}

// PurgeTokens deletes expired and revoked refresh tokens
func (s *AuthService) PurgeTokens(ctx context.Context) (int64, error) {
	return s.repos.RefreshTokens.DeleteExpired(ctx)
}

// resolve derives roles and permissions from the user's system role and,
// once approved, the role of the linked member record
func (s *AuthService) resolve(ctx context.Context, user *models.User) (*identity, error) {
	id := &identity{user: user, principal: &domain.Principal{UserID: user.ID, Username: user.Username}}

	addRole := func(r domain.Role) {
		if !id.principal.HasRole(r) {
			id.principal.Roles = append(id.principal.Roles, r)
		}
	}
	addPerm := func(perm domain.Permission) {
		for _, have := range id.principal.Permissions {
			if have == perm {
				return
			}
		}
		id.principal.Permissions = append(id.principal.Permissions, perm)
	}

	systemRole, err := domain.ParseRole(user.Role)
	if err != nil {
		systemRole = domain.RoleMember
	}
	addRole(systemRole)
	for _, perm := range systemRole.Capabilities() {
		addPerm(perm)
	}
	id.role = string(systemRole)

	member, err := s.repos.Members.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if member != nil {
		id.member = member
		id.principal.MemberID = member.ID
		id.principal.GroupID = member.GroupID

		if member.IsApproved {
			role, err := s.repos.Roles.GetByID(ctx, member.RoleID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if role != nil {
				if r, err := domain.ParseRole(role.Name); err == nil {
					addRole(r)
					// the member's group role is what the client shows
					id.role = string(r)
				}
				for _, perm := range role.DomainPermissions() {
					addPerm(perm)
				}
			}
		}
	}

	return id, nil
}

// issue builds the identity and signs a new access/refresh pair
func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	id, err := s.resolve(ctx, user)
	if err != nil {
		return nil, err
	}

	p := id.principal
	accessToken, err := jwt.GenerateAccessToken(jwt.Subject{
		UserID:      p.UserID,
		MemberID:    p.MemberID,
		GroupID:     p.GroupID,
		Username:    p.Username,
		Roles:       p.RoleNames(),
		Permissions: p.PermissionNames(),
	}, s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(user.ID, uuid.NewString(), s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshTokenDays)
	if err != nil {
		return nil, err
	}

	if err := s.repos.RefreshTokens.Create(ctx, &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}); err != nil {
		return nil, err
	}

	resp := id.response()
	resp.AccessToken = accessToken
	resp.RefreshToken = refreshToken
	return resp, nil
}

func tokenError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domain.ErrTokenExpired
	}
	return domain.ErrTokenInvalid
}

func userIDOf(c *jwt.Claims) uint {
	if c == nil {
		return 0
	}
	return c.UserID
}
