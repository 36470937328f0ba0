package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	MinPollOptions = 2
	MaxPollOptions = 4
)

// PollOption is one selectable answer
type PollOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionResult is the tally line for one option
type OptionResult struct {
	Value      string  `json:"value"`
	Label      string  `json:"label"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// PollTally is the aggregated result of a poll
type PollTally struct {
	TotalVotes int            `json:"totalVotes"`
	Options    []OptionResult `json:"options"`
}

// ValidatePollOptions enforces 2..4 options with distinct, non-empty values
func ValidatePollOptions(options []PollOption) error {
	v := &ValidationError{}
	if len(options) < MinPollOptions || len(options) > MaxPollOptions {
		v.Add("options", fmt.Sprintf("must contain between %d and %d options", MinPollOptions, MaxPollOptions))
		return v
	}
	seen := make(map[string]bool, len(options))
	for i, opt := range options {
		value := strings.TrimSpace(opt.Value)
		if value == "" || strings.TrimSpace(opt.Label) == "" {
			v.Add(fmt.Sprintf("options[%d]", i), "value and label are required")
			continue
		}
		if seen[value] {
			v.Add(fmt.Sprintf("options[%d]", i), "duplicate option value")
		}
		seen[value] = true
	}
	return v.OrNil()
}

// HasOption reports whether value is one of options
func HasOption(options []PollOption, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// PollOpen reports whether a poll still accepts votes at now
func PollOpen(isActive bool, deadline *time.Time, now time.Time) bool {
	if !isActive {
		return false
	}
	return deadline == nil || !now.After(*deadline)
}

// Tally counts votes per option. Percentages are rounded to 2 decimals
// and all zero when nobody voted.
func Tally(options []PollOption, votes []string) PollTally {
	counts := make(map[string]int, len(options))
	total := 0
	for _, v := range votes {
		if HasOption(options, v) {
			counts[v]++
			total++
		}
	}

	result := PollTally{TotalVotes: total, Options: make([]OptionResult, 0, len(options))}
	for _, o := range options {
		line := OptionResult{Value: o.Value, Label: o.Label, Votes: counts[o.Value]}
		if total > 0 {
			line.Percentage = math.Round(float64(line.Votes)*10000/float64(total)) / 100
		}
		result.Options = append(result.Options, line)
	}
	return result
}
