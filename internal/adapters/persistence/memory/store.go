package memory

import (
	"fmt"
	"sync"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"
)

// Store keeps every table in process memory behind one mutex. Holding the
// lock across read-check-write gives the same per-record serialization the
// SQL repositories get from row locks.
type Store struct {
	mu  sync.RWMutex
	seq map[string]uint

	users         map[uint]*models.User
	refreshTokens map[uint]*models.RefreshToken
	roles         map[uint]*models.Role
	groups        map[uint]*models.Group
	members       map[uint]*models.Member
	deposits      map[uint]*models.SavingDeposit
	loans         map[uint]*models.LoanApplication
	repayments    map[uint]*models.LoanRepayment
	loanLogs      map[uint]*models.LoanLog
	polls         map[uint]*models.Poll
	votes         map[uint]*models.PollVote
	meetings      map[uint]*models.Meeting
	mappings      map[uint]*models.SDGMapping
	impacts       map[uint]*models.SDGImpact
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		seq:           make(map[string]uint),
		users:         make(map[uint]*models.User),
		refreshTokens: make(map[uint]*models.RefreshToken),
		roles:         make(map[uint]*models.Role),
		groups:        make(map[uint]*models.Group),
		members:       make(map[uint]*models.Member),
		deposits:      make(map[uint]*models.SavingDeposit),
		loans:         make(map[uint]*models.LoanApplication),
		repayments:    make(map[uint]*models.LoanRepayment),
		loanLogs:      make(map[uint]*models.LoanLog),
		polls:         make(map[uint]*models.Poll),
		votes:         make(map[uint]*models.PollVote),
		meetings:      make(map[uint]*models.Meeting),
		mappings:      make(map[uint]*models.SDGMapping),
		impacts:       make(map[uint]*models.SDGImpact),
	}
}

// NewRepositories returns every repository backed by a fresh store
func NewRepositories() *repositories.Repositories {
	return NewStore().Repositories()
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:         &userRepo{s},
		RefreshTokens: &refreshTokenRepo{s},
		Roles:         &roleRepo{s},
		Groups:        &groupRepo{s},
		Members:       &memberRepo{s},
		Savings:       &savingRepo{s},
		Loans:         &loanRepo{s},
		Polls:         &pollRepo{s},
		Meetings:      &meetingRepo{s},
		SDG:           &sdgRepo{s},
	}
}

// nextID must be called with the write lock held
func (s *Store) nextID(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", domain.ErrDuplicateEntry, what)
}

func stamp(created *time.Time) {
	if created.IsZero() {
		*created = time.Now()
	}
}

func cloneStrings(in models.StringList) models.StringList {
	if in == nil {
		return nil
	}
	return append(models.StringList{}, in...)
}

func cloneUints(in models.UintList) models.UintList {
	if in == nil {
		return nil
	}
	return append(models.UintList{}, in...)
}
