package repositories

import (
	"errors"
	"fmt"

	"shg-finance/internal/core/domain"

	"gorm.io/gorm"
)

// translate maps driver-level unique violations onto the domain error.
// The gorm.DB must be opened with TranslateError enabled.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", domain.ErrDuplicateEntry, err)
	}
	return err
}

// NewGormRepositories wires every repository onto one database handle
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Roles:         NewRoleRepository(db),
		Groups:        NewGroupRepository(db),
		Members:       NewMemberRepository(db),
		Savings:       NewSavingRepository(db),
		Loans:         NewLoanRepository(db),
		Polls:         NewPollRepository(db),
		Meetings:      NewMeetingRepository(db),
		SDG:           NewSDGRepository(db),
	}
}
