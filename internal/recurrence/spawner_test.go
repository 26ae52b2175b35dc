package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/aanduque/checkmate/internal/effort"
	"github.com/aanduque/checkmate/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCalculator returns a fixed number of occurrences per rule.
type fixedCalculator map[string]int

func (f fixedCalculator) Occurrences(rule string, anchor, start, end time.Time) ([]time.Time, error) {
	n, ok := f[rule]
	if !ok {
		return nil, errors.New("unknown rule")
	}
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates, nil
}

func (f fixedCalculator) Next(rule string, anchor, after time.Time) (time.Time, bool, error) {
	return after.AddDate(0, 0, 1), true, nil
}

func (f fixedCalculator) Validate(rule string) error {
	if _, ok := f[rule]; !ok {
		return errors.New("unknown rule")
	}
	return nil
}

var spawnNow = time.Date(2026, time.October, 11, 8, 0, 0, 0, time.UTC)

func newTemplate(t *testing.T, title, rule string) *task.Task {
	t.Helper()
	a, err := effort.Single("home", 2)
	require.NoError(t, err)
	tpl, err := task.NewTemplate(title, a, rule, spawnNow)
	require.NoError(t, err)
	return tpl
}

func TestSpawnCountsExistingInstances(t *testing.T) {
	tpl := newTemplate(t, "Stretch", "three")
	existing, err := tpl.Spawn(spawnNow)
	require.NoError(t, err)

	s := NewSpawner(fixedCalculator{"three": 3})
	got := s.Spawn([]*task.Task{tpl}, []*task.Task{existing}, rangeStart, rangeEnd, spawnNow)

	require.Len(t, got, 2)
	for _, inst := range got {
		assert.Equal(t, tpl.ID, inst.ParentID)
		assert.Empty(t, inst.Recurrence)
		assert.True(t, inst.Location.IsBacklog())
		assert.Equal(t, task.StatusActive, inst.Status)
		assert.Equal(t, "Stretch", inst.Title)
		assert.Equal(t, 2, inst.Points())
	}
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestSpawnIsIdempotent(t *testing.T) {
	tpl := newTemplate(t, "Stretch", "FREQ=DAILY")
	s := NewSpawner(NewRRuleCalculator())

	first := s.Spawn([]*task.Task{tpl}, nil, rangeStart, rangeEnd, spawnNow)
	require.Len(t, first, 7)

	second := s.Spawn([]*task.Task{tpl}, first, rangeStart, rangeEnd, spawnNow)
	assert.Empty(t, second)
}

func TestSpawnNeverNegative(t *testing.T) {
	tpl := newTemplate(t, "Stretch", "one")
	var existing []*task.Task
	for i := 0; i < 3; i++ {
		inst, err := tpl.Spawn(spawnNow)
		require.NoError(t, err)
		existing = append(existing, inst)
	}
	got := NewSpawner(fixedCalculator{"one": 1}).Spawn([]*task.Task{tpl}, existing, rangeStart, rangeEnd, spawnNow)
	assert.Empty(t, got)
}

func TestSpawnIgnoresNonTemplates(t *testing.T) {
	a, err := effort.Single("home", 1)
	require.NoError(t, err)
	plain, err := task.New("Plain", a, spawnNow)
	require.NoError(t, err)

	canceled := newTemplate(t, "Old", "one")
	require.NoError(t, canceled.Cancel(spawnNow))

	broken := newTemplate(t, "Broken", "unknown")

	got := NewSpawner(fixedCalculator{"one": 1}).Spawn(
		[]*task.Task{plain, canceled, broken}, nil, rangeStart, rangeEnd, spawnNow)
	assert.Empty(t, got)
}

func TestSpawnInvertedRange(t *testing.T) {
	tpl := newTemplate(t, "Stretch", "one")
	got := NewSpawner(fixedCalculator{"one": 1}).Spawn([]*task.Task{tpl}, nil, rangeEnd, rangeStart, spawnNow)
	assert.Nil(t, got)
}

func TestSpawnOnlyCountsOwnChildren(t *testing.T) {
	a := newTemplate(t, "A", "two")
	b := newTemplate(t, "B", "two")
	instB, err := b.Spawn(spawnNow)
	require.NoError(t, err)

	got := NewSpawner(fixedCalculator{"two": 2}).Spawn([]*task.Task{a, b}, []*task.Task{instB}, rangeStart, rangeEnd, spawnNow)
	require.Len(t, got, 3)
	perParent := map[string]int{}
	for _, inst := range got {
		perParent[inst.ParentID]++
	}
	assert.Equal(t, 2, perParent[a.ID])
	assert.Equal(t, 1, perParent[b.ID])
}

// A monthly template walked through consecutive weekly sprints spawns once
// per month, not once per sprint.
func TestSpawnMonthlyAcrossWeeks(t *testing.T) {
	tpl := newTemplate(t, "Pay rent", "FREQ=MONTHLY")
	s := NewSpawner(NewRRuleCalculator())

	var counts []int
	for week := 0; week < 6; week++ {
		start := rangeStart.AddDate(0, 0, 7*week)
		end := start.AddDate(0, 0, 7).Add(-time.Second)
		got := s.Spawn([]*task.Task{tpl}, nil, start, end, start)
		counts = append(counts, len(got))
	}
	// Created 2026-10-11; next due 2026-11-11.
	assert.Equal(t, []int{1, 0, 0, 0, 1, 0}, counts)
}

func TestSpawnCountsFromTemplateCreation(t *testing.T) {
	a, err := effort.Single("home", 1)
	require.NoError(t, err)
	wed := time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)
	tpl, err := task.NewTemplate("Stretch", a, "FREQ=DAILY", wed)
	require.NoError(t, err)

	got := NewSpawner(NewRRuleCalculator()).Spawn([]*task.Task{tpl}, nil, rangeStart, rangeEnd, wed)
	assert.Len(t, got, 4) // Wednesday through Saturday
}
