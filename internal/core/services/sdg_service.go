package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/logger"
	"shg-finance/internal/pkg/timeutil"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SDGService tracks how group activity maps onto UN Sustainable Development Goals
type SDGService struct {
	repos *repositories.Repositories
	now   func() time.Time
}

// NewSDGService creates a new SDG service
func NewSDGService(repos *repositories.Repositories) *SDGService {
	return &SDGService{repos: repos, now: timeutil.Now}
}

// CreateMappingInput represents create mapping input
type CreateMappingInput struct {
	Keywords  []string `json:"keywords"`
	SDGGoal   int      `json:"sdgGoal"`
	GoalTitle string   `json:"goalTitle"`
}

// RecordImpactInput represents a manual impact record
type RecordImpactInput struct {
	GroupID           uint            `json:"groupId"`
	SDGGoal           int             `json:"sdgGoal"`
	ImpactType        string          `json:"impactType"`
	Value             decimal.Decimal `json:"value"`
	Month             int             `json:"month"`
	Year              int             `json:"year"`
	RelatedEntityType string          `json:"relatedEntityType"`
	RelatedEntityID   *uint           `json:"relatedEntityId"`
}

// GoalTotal is one goal's line in an impact summary
type GoalTotal struct {
	*models.GoalSummary
	GoalTitle string `json:"goalTitle"`
}

// ImpactSummary aggregates a group's impacts per goal
type ImpactSummary struct {
	GroupID uint         `json:"groupId"`
	Goals   []*GoalTotal `json:"goals"`
	Records int64        `json:"records"`
}

// ListMappings returns every keyword mapping
func (s *SDGService) ListMappings(ctx context.Context, p *domain.Principal) ([]*models.SDGMapping, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	return s.repos.SDG.ListMappings(ctx)
}

// CreateMapping adds a keyword mapping. ADMIN only.
func (s *SDGService) CreateMapping(ctx context.Context, p *domain.Principal, input *CreateMappingInput) (*models.SDGMapping, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, forbidden("only ADMIN can create SDG mappings")
	}

	v := &domain.ValidationError{}
	keywords := make(models.StringList, 0, len(input.Keywords))
	for _, kw := range input.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		v.Add("keywords", "at least one keyword is required")
	}
	if !domain.ValidSDGGoal(input.SDGGoal) {
		v.Add("sdgGoal", fmt.Sprintf("must be between %d and %d", domain.MinSDGGoal, domain.MaxSDGGoal))
	}
	if strings.TrimSpace(input.GoalTitle) == "" {
		v.Add("goalTitle", "is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	m := &models.SDGMapping{Keywords: keywords, SDGGoal: input.SDGGoal, GoalTitle: strings.TrimSpace(input.GoalTitle)}
	if err := s.repos.SDG.CreateMapping(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListImpacts returns a group's impact records
func (s *SDGService) ListImpacts(ctx context.Context, p *domain.Principal, groupID uint) ([]*models.SDGImpact, error) {
	if err := s.canSee(p, groupID); err != nil {
		return nil, err
	}
	return s.repos.SDG.ListImpacts(ctx, groupID)
}

// Summary totals a group's impacts per goal
func (s *SDGService) Summary(ctx context.Context, p *domain.Principal, groupID uint) (*ImpactSummary, error) {
	if err := s.canSee(p, groupID); err != nil {
		return nil, err
	}

	goals, err := s.repos.SDG.SummarizeImpacts(ctx, groupID)
	if err != nil {
		return nil, err
	}
	mappings, err := s.repos.SDG.ListMappings(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[int]string, len(mappings))
	for _, m := range mappings {
		if _, ok := titles[m.SDGGoal]; !ok {
			titles[m.SDGGoal] = m.GoalTitle
		}
	}

	out := &ImpactSummary{GroupID: groupID, Goals: make([]*GoalTotal, 0, len(goals))}
	for _, g := range goals {
		out.Goals = append(out.Goals, &GoalTotal{GoalSummary: g, GoalTitle: titles[g.SDGGoal]})
		out.Records += g.RecordCount
	}
	return out, nil
}

// RecordImpact stores a manual impact record. ADMIN only.
func (s *SDGService) RecordImpact(ctx context.Context, p *domain.Principal, input *RecordImpactInput) (*models.SDGImpact, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, forbidden("only ADMIN can record SDG impact")
	}

	v := &domain.ValidationError{}
	impactType, err := domain.ParseImpactType(input.ImpactType)
	if err != nil {
		v.Add("impactType", fmt.Sprintf("unknown impact type %q", input.ImpactType))
	}
	if !domain.ValidSDGGoal(input.SDGGoal) {
		v.Add("sdgGoal", fmt.Sprintf("must be between %d and %d", domain.MinSDGGoal, domain.MaxSDGGoal))
	}
	if input.Value.IsNegative() {
		v.Add("value", "must not be negative")
	}
	now := s.now()
	if input.Month == 0 {
		input.Month = int(now.Month())
	}
	if input.Year == 0 {
		input.Year = now.Year()
	}
	if input.Month < 1 || input.Month > 12 {
		v.Add("month", "must be between 1 and 12")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.repos.Groups.GetByID(ctx, input.GroupID); err != nil {
		return nil, lookup(err, "group")
	}

	impact := &models.SDGImpact{
		GroupID:           input.GroupID,
		SDGGoal:           input.SDGGoal,
		ImpactType:        impactType,
		Value:             input.Value,
		Month:             input.Month,
		Year:              input.Year,
		RelatedEntityType: strings.ToUpper(strings.TrimSpace(input.RelatedEntityType)),
		RelatedEntityID:   input.RelatedEntityID,
	}
	if err := s.repos.SDG.CreateImpact(ctx, impact); err != nil {
		return nil, err
	}
	return impact, nil
}

// RecordLoanImpact attributes a disbursed loan to the first goal whose keywords
// match its purpose. It returns nil, nil when nothing matches.
func (s *SDGService) RecordLoanImpact(ctx context.Context, loan *models.LoanApplication) (*models.SDGImpact, error) {
	mappings, err := s.repos.SDG.ListMappings(ctx)
	if err != nil {
		return nil, err
	}

	keyed := make([]domain.KeywordMapping, 0, len(mappings))
	for _, m := range mappings {
		keyed = append(keyed, domain.KeywordMapping{Goal: m.SDGGoal, Keywords: m.Keywords})
	}
	goal, ok := domain.MatchGoal(keyed, loan.Purpose+" "+loan.PurposeDetails)
	if !ok {
		return nil, nil
	}

	at := s.now()
	if loan.DisbursedDate != nil {
		at = loan.DisbursedDate.In(timeutil.IST)
	}
	loanID := loan.ID
	impact := &models.SDGImpact{
		GroupID:           loan.GroupID,
		SDGGoal:           goal,
		ImpactType:        domain.ImpactLoanDisbursed,
		Value:             loan.Amount,
		Month:             int(at.Month()),
		Year:              at.Year(),
		RelatedEntityType: domain.RelatedLoan,
		RelatedEntityID:   &loanID,
	}
	if err := s.repos.SDG.CreateImpact(ctx, impact); err != nil {
		return nil, err
	}

	logger.Info("sdg impact recorded", zap.Uint("loanId", loan.ID), zap.Int("goal", goal))
	return impact, nil
}

func (s *SDGService) canSee(p *domain.Principal, groupID uint) error {
	if err := requireAuth(p); err != nil {
		return err
	}
	if !p.IsAdmin() && !p.InGroup(groupID) {
		return forbidden("cannot view another group's impact")
	}
	return nil
}
