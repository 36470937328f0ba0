package domain

import (
	"fmt"
	"strings"
)

// ImpactType classifies an SDG impact record
type ImpactType string

const (
	ImpactJobsCreated    ImpactType = "JOBS_CREATED"
	ImpactWomenEmpowered ImpactType = "WOMEN_EMPOWERED"
	ImpactSavingsGrowth  ImpactType = "SAVINGS_GROWTH"
	ImpactLoanDisbursed  ImpactType = "LOAN_DISBURSED"
)

// Related entity kinds for impact records
const (
	RelatedLoan    = "LOAN"
	RelatedDeposit = "DEPOSIT"
)

const (
	MinSDGGoal = 1
	MaxSDGGoal = 17
)

// ParseImpactType converts a string to an ImpactType
func ParseImpactType(s string) (ImpactType, error) {
	switch t := ImpactType(strings.ToUpper(strings.TrimSpace(s))); t {
	case ImpactJobsCreated, ImpactWomenEmpowered, ImpactSavingsGrowth, ImpactLoanDisbursed:
		return t, nil
	default:
		return "", NewValidationError("impactType", fmt.Sprintf("unknown impact type %q", s))
	}
}

// ValidSDGGoal reports whether goal is a UN SDG number
func ValidSDGGoal(goal int) bool {
	return goal >= MinSDGGoal && goal <= MaxSDGGoal
}

// KeywordMapping is the minimal view of a keyword to goal mapping
type KeywordMapping struct {
	Goal     int
	Keywords []string
}

// MatchGoal returns the first goal whose keyword occurs in text, case-insensitively
func MatchGoal(mappings []KeywordMapping, text string) (int, bool) {
	haystack := strings.ToLower(text)
	for _, m := range mappings {
		for _, kw := range m.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(haystack, kw) {
				return m.Goal, true
			}
		}
	}
	return 0, false
}
