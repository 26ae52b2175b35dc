package sprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForDate(t *testing.T) {
	wed := time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)
	s := ForDate(wed)
	assert.Equal(t, "2026-10-11", s.ID)
	assert.Equal(t, time.Sunday, s.Start.Weekday())
	assert.Equal(t, time.Date(2026, time.October, 11, 0, 0, 0, 0, time.UTC), s.Start)
	assert.Equal(t, time.Saturday, s.End.Weekday())
	assert.Equal(t, 23, s.End.Hour())
	assert.Equal(t, 59, s.End.Minute())
	assert.True(t, s.Contains(wed))
	assert.True(t, s.Contains(s.Start))
	assert.True(t, s.Contains(s.End))
	assert.False(t, s.Contains(s.End.Add(time.Nanosecond)))

	sunday := ForDate(s.Start)
	assert.Equal(t, s.ID, sunday.ID)
	saturday := ForDate(s.End)
	assert.Equal(t, s.ID, saturday.ID)

	assert.Equal(t, "2026-10-18", s.Next().ID)
}

func TestForDateAcrossMonth(t *testing.T) {
	s := ForDate(time.Date(2026, time.November, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-11-01", s.ID)
	s = ForDate(time.Date(2026, time.October, 31, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-10-25", s.ID)
}

func TestParseID(t *testing.T) {
	s, err := ParseID("2026-10-11", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-11", s.ID)

	_, err = ParseID("2026-10-12", time.UTC)
	assert.Error(t, err)
	_, err = ParseID("next week", time.UTC)
	assert.Error(t, err)
}

func TestCapacityOverrides(t *testing.T) {
	s := ForDate(time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 10, s.Capacity("work", 10))
	require.NoError(t, s.SetCapacity("work", 5))
	assert.Equal(t, 5, s.Capacity("work", 10))
	assert.ErrorIs(t, s.SetCapacity("work", 0), ErrInvalidCapacity)
	assert.ErrorIs(t, s.SetCapacity("work", -3), ErrInvalidCapacity)
	assert.Equal(t, 5, s.Capacity("work", 10))
	s.ClearCapacity("work")
	assert.Equal(t, 10, s.Capacity("work", 10))

	var zero Sprint
	require.NoError(t, zero.SetCapacity("x", 1))
}

func TestDaysRemaining(t *testing.T) {
	s := ForDate(time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC))
	cases := []struct {
		now  time.Time
		want int
	}{
		{s.Start, 7},
		{time.Date(2026, time.October, 14, 23, 0, 0, 0, time.UTC), 4},
		{time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC), 2},
		{s.End, 1},
		{s.End.Add(72 * time.Hour), 1},
		{s.Start.AddDate(0, 0, -3), 7},
		{s.Start.AddDate(0, 0, -30), 7},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, s.DaysRemaining(c.now), "now=%s", c.now)
	}
}
