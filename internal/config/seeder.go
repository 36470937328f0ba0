package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/logger"
	"shg-finance/internal/pkg/password"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Demo credentials created when SEED_DEMO_DATA is on
const (
	DemoAdminUsername = "demo_admin"
	DemoAdminPassword = "password123"
)

var defaultSDGMappings = []models.SDGMapping{
	{Keywords: models.StringList{"business", "entrepreneurship", "shop"}, SDGGoal: 8, GoalTitle: "Decent Work and Economic Growth"},
	{Keywords: models.StringList{"education", "school", "learning"}, SDGGoal: 4, GoalTitle: "Quality Education"},
	{Keywords: models.StringList{"agriculture", "farming", "crops"}, SDGGoal: 2, GoalTitle: "Zero Hunger"},
	{Keywords: models.StringList{"health", "medical", "healthcare"}, SDGGoal: 3, GoalTitle: "Good Health and Well-being"},
	{Keywords: models.StringList{"housing", "home", "shelter"}, SDGGoal: 11, GoalTitle: "Sustainable Cities and Communities"},
}

// Seeder handles database seeding
type Seeder struct {
	repos *repositories.Repositories
	demo  bool
}

// NewSeeder creates a new seeder instance. demo adds the sample group and admin.
func NewSeeder(repos *repositories.Repositories, demo bool) *Seeder {
	return &Seeder{repos: repos, demo: demo}
}

// Run executes all seeders. Every step is idempotent.
func (s *Seeder) Run(ctx context.Context) error {
	logger.Info("running database seeders")

	if err := s.seedRoles(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := s.seedSDGMappings(ctx); err != nil {
		return fmt.Errorf("seed sdg mappings: %w", err)
	}
	if s.demo {
		if err := s.seedDemoData(ctx); err != nil {
			logger.Warn("demo seeder skipped", zap.Error(err))
		}
	}

	logger.Info("database seeding completed")
	return nil
}

// seedRoles makes sure the four fixed roles exist
func (s *Seeder) seedRoles(ctx context.Context) error {
	for _, r := range domain.AllRoles {
		_, err := s.repos.Roles.GetByName(ctx, string(r))
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		perms := make(models.StringList, 0, len(r.Capabilities()))
		for _, p := range r.Capabilities() {
			perms = append(perms, string(p))
		}
		role := &models.Role{Name: string(r), Description: r.Description(), Permissions: perms}
		if err := s.repos.Roles.Create(ctx, role); err != nil && !errors.Is(err, domain.ErrDuplicateEntry) {
			return err
		}
		logger.Info("role seeded", zap.String("role", role.Name))
	}
	return nil
}

func (s *Seeder) seedSDGMappings(ctx context.Context) error {
	existing, err := s.repos.SDG.ListMappings(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for i := range defaultSDGMappings {
		m := defaultSDGMappings[i]
		if err := s.repos.SDG.CreateMapping(ctx, &m); err != nil {
			return err
		}
	}
	logger.Info("sdg mappings seeded", zap.Int("count", len(defaultSDGMappings)))
	return nil
}

// seedDemoData creates a sample group and an approved ADMIN member.
// This is for development/testing only.
func (s *Seeder) seedDemoData(ctx context.Context) error {
	exists, err := s.repos.Users.ExistsByUsername(ctx, DemoAdminUsername)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	adminRole, err := s.repos.Roles.GetByName(ctx, string(domain.RoleAdmin))
	if err != nil {
		return err
	}

	founded := time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC)
	group := &models.Group{
		Name:        "Mahila Bachat Gat",
		Description: "Women's savings group focused on financial empowerment",
		Location:    "Village Shanti Nagar, Karnataka",
		FoundedDate: &founded,
		IsActive:    true,
	}
	if err := s.repos.Groups.Create(ctx, group); err != nil {
		return err
	}

	hashed, err := password.Hash(DemoAdminPassword)
	if err != nil {
		return err
	}
	user := &models.User{
		Username: DemoAdminUsername,
		Email:    "admin@example.com",
		Password: hashed,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return err
	}

	dob := time.Date(1985, 6, 15, 0, 0, 0, 0, time.UTC)
	member := &models.Member{
		UserID:      &user.ID,
		GroupID:     group.ID,
		RoleID:      adminRole.ID,
		Name:        "Demo Admin",
		Aadhaar:     "123456789012",
		Phone:       "+91-9876543210",
		Email:       "admin@example.com",
		Address:     "123 Main Street, Demo City",
		Gender:      "Female",
		DateOfBirth: &dob,
		IsApproved:  true,
		JoinedAt:    time.Now(),
	}
	if err := s.repos.Members.Create(ctx, member); err != nil {
		return err
	}

	logger.Info("demo data seeded", zap.String("username", user.Username), zap.Uint("groupId", group.ID))
	return nil
}
