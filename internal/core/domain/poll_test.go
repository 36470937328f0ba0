package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var yesNo = []PollOption{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}}

func TestValidatePollOptions(t *testing.T) {
	assert.NoError(t, ValidatePollOptions(yesNo))
	assert.ErrorIs(t, ValidatePollOptions(yesNo[:1]), ErrValidation)

	five := []PollOption{{"a", "A"}, {"b", "B"}, {"c", "C"}, {"d", "D"}, {"e", "E"}}
	assert.ErrorIs(t, ValidatePollOptions(five), ErrValidation)

	assert.ErrorIs(t, ValidatePollOptions([]PollOption{{"a", "A"}, {"a", "Again"}}), ErrValidation)
	assert.ErrorIs(t, ValidatePollOptions([]PollOption{{"a", ""}, {"b", "B"}}), ErrValidation)
}

func TestTally(t *testing.T) {
	empty := Tally(yesNo, nil)
	assert.Equal(t, 0, empty.TotalVotes)
	for _, o := range empty.Options {
		assert.Zero(t, o.Percentage)
	}

	three := []PollOption{{"a", "A"}, {"b", "B"}, {"c", "C"}}
	got := Tally(three, []string{"a", "b", "c", "ghost"})
	assert.Equal(t, 3, got.TotalVotes)
	sum := 0.0
	for _, o := range got.Options {
		assert.Equal(t, 33.33, o.Percentage)
		sum += o.Percentage
	}
	assert.InDelta(t, 100, sum, 0.02)

	split := Tally(yesNo, []string{"yes", "yes", "yes", "no"})
	assert.Equal(t, 75.0, split.Options[0].Percentage)
	assert.Equal(t, 25.0, split.Options[1].Percentage)
}

func TestPollOpen(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	assert.True(t, PollOpen(true, nil, now))
	assert.True(t, PollOpen(true, &future, now))
	assert.False(t, PollOpen(true, &past, now))
	assert.False(t, PollOpen(false, nil, now))
}

func TestMatchGoal(t *testing.T) {
	mappings := []KeywordMapping{
		{Goal: 8, Keywords: []string{"business", "shop"}},
		{Goal: 2, Keywords: []string{"agriculture", "farming"}},
	}
	goal, ok := MatchGoal(mappings, "Tailoring SHOP expansion")
	assert.True(t, ok)
	assert.Equal(t, 8, goal)

	goal, ok = MatchGoal(mappings, "agriculture: seeds")
	assert.True(t, ok)
	assert.Equal(t, 2, goal)

	_, ok = MatchGoal(mappings, "wedding")
	assert.False(t, ok)
}
