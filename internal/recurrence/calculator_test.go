package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rangeStart = time.Date(2026, time.October, 11, 0, 0, 0, 0, time.UTC) // Sunday
	rangeEnd   = time.Date(2026, time.October, 17, 23, 59, 59, 0, time.UTC)
)

func TestRRuleOccurrencesDaily(t *testing.T) {
	c := NewRRuleCalculator()
	dates, err := c.Occurrences("FREQ=DAILY", rangeStart, rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, dates, 7)
	assert.Equal(t, rangeStart, dates[0])
	assert.Equal(t, rangeStart.AddDate(0, 0, 6), dates[6])
}

func TestRRuleOccurrencesStartAtAnchor(t *testing.T) {
	c := NewRRuleCalculator()
	wed := time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)
	dates, err := c.Occurrences("FREQ=DAILY", wed, rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, dates, 4)
	assert.Equal(t, wed, dates[0])
}

func TestRRuleOccurrencesByDay(t *testing.T) {
	c := NewRRuleCalculator()
	dates, err := c.Occurrences("RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR", rangeStart, rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, time.Monday, dates[0].Weekday())
	assert.Equal(t, time.Friday, dates[2].Weekday())
}

// Weekly windows walked one after another must see each occurrence once.
func TestRRuleOccurrencesAcrossWeeks(t *testing.T) {
	c := NewRRuleCalculator()
	anchor := time.Date(2026, time.October, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		rule    string
		perWeek []int
	}{
		{"FREQ=MONTHLY", []int{1, 0, 0, 0, 1, 0}},
		{"FREQ=YEARLY", []int{1, 0, 0, 0, 0, 0}},
		{"FREQ=WEEKLY;INTERVAL=2", []int{1, 0, 1, 0, 1, 0}},
		{"FREQ=DAILY;COUNT=10", []int{7, 3, 0, 0, 0, 0}},
		{"FREQ=WEEKLY;BYDAY=MO", []int{1, 1, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			got := make([]int, len(tt.perWeek))
			for i := range got {
				start := anchor.AddDate(0, 0, 7*i)
				end := start.AddDate(0, 0, 7).Add(-time.Second)
				dates, err := c.Occurrences(tt.rule, anchor, start, end)
				require.NoError(t, err)
				got[i] = len(dates)
			}
			assert.Equal(t, tt.perWeek, got)
		})
	}
}

func TestRRuleWithOwnDTStart(t *testing.T) {
	c := NewRRuleCalculator()
	rule := "DTSTART:20261014T090000Z\nRRULE:FREQ=DAILY;COUNT=10"
	dates, err := c.Occurrences(rule, rangeStart, rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, dates, 4) // 14th through 17th
	assert.Equal(t, time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC), dates[0])
}

func TestRRuleInvertedRange(t *testing.T) {
	c := NewRRuleCalculator()
	dates, err := c.Occurrences("FREQ=DAILY", rangeStart, rangeEnd, rangeStart)
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestRRuleNext(t *testing.T) {
	c := NewRRuleCalculator()
	rule := "DTSTART:20261014T090000Z\nRRULE:FREQ=WEEKLY"
	next, ok, err := c.Next(rule, rangeStart, time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.October, 21, 9, 0, 0, 0, time.UTC), next)

	_, ok, err = c.Next("DTSTART:20261014T090000Z\nRRULE:FREQ=DAILY;COUNT=1", rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRRuleNextFollowsAnchor(t *testing.T) {
	c := NewRRuleCalculator()
	anchor := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)

	next, ok, err := c.Next("FREQ=MONTHLY", anchor, after)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestRRuleValidate(t *testing.T) {
	c := NewRRuleCalculator()
	assert.NoError(t, c.Validate("FREQ=MONTHLY;BYMONTHDAY=1"))
	assert.NoError(t, c.Validate("FREQ=DAILY"))
	assert.ErrorIs(t, c.Validate(""), ErrInvalidRule)
	assert.ErrorIs(t, c.Validate("every tuesday"), ErrInvalidRule)
	assert.ErrorIs(t, c.Validate("INTERVAL=2"), ErrInvalidRule)
}

func TestRRuleRejectsSubDaily(t *testing.T) {
	c := NewRRuleCalculator()
	for _, rule := range []string{"FREQ=HOURLY", "FREQ=MINUTELY", "FREQ=SECONDLY"} {
		assert.ErrorIs(t, c.Validate(rule), ErrInvalidRule, rule)
		_, err := c.Occurrences(rule, rangeStart, rangeStart, rangeEnd)
		assert.ErrorIs(t, err, ErrInvalidRule, rule)
	}
}

func TestAnchor(t *testing.T) {
	ny := time.FixedZone("EDT", -4*60*60)
	// 02:00 UTC on the 15th is still the 14th four hours west.
	got := Anchor(time.Date(2026, time.October, 15, 2, 0, 0, 0, time.UTC), ny)
	assert.Equal(t, time.Date(2026, time.October, 14, 0, 0, 0, 0, ny), got)
}
