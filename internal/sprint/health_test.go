package sprint

import (
	"testing"
	"time"

	"github.com/aanduque/checkmate/internal/effort"
	"github.com/aanduque/checkmate/internal/tag"
	"github.com/aanduque/checkmate/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var weekStart = time.Date(2026, time.October, 11, 0, 0, 0, 0, time.UTC)

// friday leaves two days (Friday and Saturday) in the sprint.
var friday = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

func sprintTask(t *testing.T, s *Sprint, values map[string]int) *task.Task {
	t.Helper()
	a, err := effort.NewAllocation(values)
	require.NoError(t, err)
	tk, err := task.New("task", a, weekStart)
	require.NoError(t, err)
	require.NoError(t, tk.MoveToSprint(s.ID))
	return tk
}

func tagWithCapacity(id string, capacity int) *tag.Tag {
	return &tag.Tag{ID: id, Name: id, Capacity: capacity}
}

func TestHealthOffTrackScenario(t *testing.T) {
	s := ForDate(weekStart)
	tasks := []*task.Task{sprintTask(t, s, map[string]int{"work": 8})}

	h := Calculate(s, tasks, []*tag.Tag{tagWithCapacity("work", 7)}, friday)

	assert.Equal(t, 2, h.DaysRemaining)
	c, ok := h.Category("work")
	require.True(t, ok)
	assert.Equal(t, 8, c.Assigned)
	assert.Equal(t, 7, c.Capacity)
	assert.InDelta(t, 4.0, c.NeededRate, 1e-9)
	assert.InDelta(t, 1.0, c.SustainableRate, 1e-9)
	assert.Equal(t, OffTrack, c.Status)
	assert.Equal(t, OffTrack, h.Status)
}

func TestClassifyThresholds(t *testing.T) {
	// capacity 14 => sustainable 2/day; 2 days remaining.
	assert.Equal(t, OffTrack, classify(6, 14, 2), "exactly 1.5x")
	assert.Equal(t, AtRisk, classify(5, 14, 2), "1.25x")
	assert.Equal(t, OnTrack, classify(4, 14, 2), "1.0x")

	// capacity 35 => sustainable 5/day; 1 day remaining.
	assert.Equal(t, AtRisk, classify(6, 35, 1), "exactly 1.2x")
	assert.Equal(t, OnTrack, classify(5, 35, 1), "below 1.2x")
	assert.Equal(t, OffTrack, classify(8, 35, 1), "1.6x")

	assert.Equal(t, OnTrack, classify(0, 0, 3), "zero assigned is always on track")
	assert.Equal(t, OffTrack, classify(1, 0, 3), "any load on zero capacity")
}

func TestHealthUsesOverrides(t *testing.T) {
	s := ForDate(weekStart)
	require.NoError(t, s.SetCapacity("work", 70))
	tasks := []*task.Task{sprintTask(t, s, map[string]int{"work": 8})}

	h := Calculate(s, tasks, []*tag.Tag{tagWithCapacity("work", 7)}, friday)
	c, _ := h.Category("work")
	assert.Equal(t, 70, c.Capacity)
	assert.Equal(t, OnTrack, c.Status)
}

func TestHealthScope(t *testing.T) {
	s := ForDate(weekStart)
	other := s.Next()

	inSprint := sprintTask(t, s, map[string]int{"work": 2, "home": 3})
	elsewhere := sprintTask(t, other, map[string]int{"work": 21})
	done := sprintTask(t, s, map[string]int{"work": 21})
	require.NoError(t, done.Complete(friday))
	a, err := effort.Single("work", 21)
	require.NoError(t, err)
	backlog, err := task.New("backlog", a, weekStart)
	require.NoError(t, err)

	tags := []*tag.Tag{tagWithCapacity("work", 70), tagWithCapacity("home", 70), tagWithCapacity("idle", 7)}
	h := Calculate(s, []*task.Task{inSprint, elsewhere, done, backlog}, tags, weekStart)

	work, _ := h.Category("work")
	home, _ := h.Category("home")
	idle, ok := h.Category("idle")
	require.True(t, ok)
	assert.Equal(t, 2, work.Assigned)
	assert.Equal(t, 3, home.Assigned)
	assert.Equal(t, 0, idle.Assigned)
	assert.Equal(t, OnTrack, idle.Status)
	assert.Equal(t, OnTrack, h.Status)
	assert.Len(t, h.Categories, 3)
}

func TestHealthOverallIsWorst(t *testing.T) {
	s := ForDate(weekStart)
	tasks := []*task.Task{
		sprintTask(t, s, map[string]int{"a": 1}),
		sprintTask(t, s, map[string]int{"b": 13}),
	}
	tags := []*tag.Tag{tagWithCapacity("a", 70), tagWithCapacity("b", 7*13*5/6/2)}
	h := Calculate(s, tasks, tags, friday)

	a, _ := h.Category("a")
	b, _ := h.Category("b")
	assert.Equal(t, OnTrack, a.Status)
	assert.Equal(t, AtRisk, b.Status)
	assert.Equal(t, AtRisk, h.Status)
}

func TestHealthUnknownCategory(t *testing.T) {
	s := ForDate(weekStart)
	tasks := []*task.Task{sprintTask(t, s, map[string]int{"ghost": 1})}
	h := Calculate(s, tasks, nil, weekStart)
	c, ok := h.Category("ghost")
	require.True(t, ok)
	assert.Equal(t, 0, c.Capacity)
	assert.Equal(t, OffTrack, h.Status)
}

func TestHealthEmptySprint(t *testing.T) {
	s := ForDate(weekStart)
	h := Calculate(s, nil, []*tag.Tag{tagWithCapacity("work", 7)}, weekStart)
	assert.Equal(t, OnTrack, h.Status)
	assert.Equal(t, 7, h.DaysRemaining)
}

func TestHealthFutureSprint(t *testing.T) {
	next := ForDate(weekStart).Next()
	tasks := []*task.Task{sprintTask(t, next, map[string]int{"work": 8})}

	// Planned on Wednesday of the week before.
	h := Calculate(next, tasks, []*tag.Tag{tagWithCapacity("work", 7)}, weekStart.AddDate(0, 0, 3))

	assert.Equal(t, Length, h.DaysRemaining)
	c, ok := h.Category("work")
	require.True(t, ok)
	assert.InDelta(t, 8.0/7, c.NeededRate, 1e-9)
	assert.Equal(t, OnTrack, c.Status)
}

func TestStatusWorse(t *testing.T) {
	assert.Equal(t, AtRisk, OnTrack.Worse(AtRisk))
	assert.Equal(t, OffTrack, OffTrack.Worse(AtRisk))
	assert.Equal(t, OnTrack, OnTrack.Worse(OnTrack))
}
