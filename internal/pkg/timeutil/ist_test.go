package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateAndBounds(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 15, d.Day())

	end := EndOfDay(d)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, d, StartOfDay(end))

	_, err = ParseDate("15/03/2024")
	assert.Error(t, err)
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2024, time.February)
	assert.Equal(t, 1, start.Day())
	assert.Equal(t, 29, end.Day())
	assert.Equal(t, time.February, end.Month())
}
