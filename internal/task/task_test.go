package task

import (
	"errors"
	"testing"
	"time"

	"github.com/aanduque/checkmate/internal/effort"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

func mustAlloc(t *testing.T, values map[string]int) effort.Allocation {
	t.Helper()
	a, err := effort.NewAllocation(values)
	require.NoError(t, err)
	return a
}

func newTestTask(t *testing.T) *Task {
	t.Helper()
	tk, err := New("Write report", mustAlloc(t, map[string]int{"work": 3}), t0)
	require.NoError(t, err)
	return tk
}

func newTestTemplate(t *testing.T) *Task {
	t.Helper()
	tk, err := NewTemplate("Water plants", mustAlloc(t, map[string]int{"home": 1}), "FREQ=DAILY", t0)
	require.NoError(t, err)
	return tk
}

// ============================================================
// Create / update
// ============================================================

func TestNew(t *testing.T) {
	tk := newTestTask(t)
	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, "Write report", tk.Title)
	assert.Equal(t, StatusActive, tk.Status)
	assert.True(t, tk.Location.IsBacklog())
	assert.Equal(t, t0, tk.CreatedAt)
	assert.Equal(t, 3, tk.Points())
	assert.False(t, tk.IsTemplate())
	assert.False(t, tk.IsInstance())
}

func TestNewValidation(t *testing.T) {
	_, err := New("   ", mustAlloc(t, map[string]int{"work": 1}), t0)
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = New("title", effort.Allocation{}, t0)
	assert.ErrorIs(t, err, ErrEmptyEffort)

	_, err = NewTemplate("title", mustAlloc(t, map[string]int{"work": 1}), " ", t0)
	assert.ErrorIs(t, err, ErrEmptyRecurrence)
}

func TestUpdateRequiresActive(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.UpdateTitle("Renamed"))
	require.NoError(t, tk.UpdateDescription("details"))
	require.NoError(t, tk.UpdateEffort(mustAlloc(t, map[string]int{"work": 8})))
	assert.Equal(t, "Renamed", tk.Title)
	assert.Equal(t, 8, tk.Points())

	assert.ErrorIs(t, tk.UpdateTitle(""), ErrEmptyTitle)
	assert.ErrorIs(t, tk.UpdateEffort(effort.Allocation{}), ErrEmptyEffort)

	require.NoError(t, tk.Complete(t0))
	assert.ErrorIs(t, tk.UpdateTitle("again"), ErrNotActive)
	assert.ErrorIs(t, tk.UpdateDescription("again"), ErrNotActive)
	assert.ErrorIs(t, tk.UpdateEffort(mustAlloc(t, map[string]int{"work": 1})), ErrNotActive)
	assert.ErrorIs(t, tk.SetOrder(3), ErrNotActive)
	assert.Equal(t, "Renamed", tk.Title)
}

// ============================================================
// Terminal states
// ============================================================

func TestCompleteClearsSkip(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.SkipForNow(t0))
	require.NoError(t, tk.Complete(t0.Add(time.Hour)))
	assert.Equal(t, StatusCompleted, tk.Status)
	require.NotNil(t, tk.CompletedAt)
	assert.Equal(t, t0.Add(time.Hour), *tk.CompletedAt)
	assert.Nil(t, tk.Skip)

	assert.ErrorIs(t, tk.Complete(t0), ErrNotActive)
	assert.ErrorIs(t, tk.Cancel(t0), ErrNotActive)
}

func TestCancel(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.SkipForDay("later", t0))
	require.NoError(t, tk.Cancel(t0))
	assert.Equal(t, StatusCanceled, tk.Status)
	assert.NotNil(t, tk.CanceledAt)
	assert.Nil(t, tk.Skip)
	assert.True(t, errors.Is(tk.SkipForNow(t0), ErrState))
}

// ============================================================
// Location
// ============================================================

func TestMoveRecordsSprintHistory(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.MoveToSprint("2026-10-11"))
	assert.Equal(t, "sprint:2026-10-11", tk.Location.String())
	assert.Empty(t, tk.SprintHistory)

	require.NoError(t, tk.MoveToSprint("2026-10-11"))
	assert.Empty(t, tk.SprintHistory, "staying in the same sprint is not leaving it")

	require.NoError(t, tk.MoveToSprint("2026-10-18"))
	assert.Equal(t, []string{"2026-10-11"}, tk.SprintHistory)

	require.NoError(t, tk.MoveToBacklog())
	assert.True(t, tk.Location.IsBacklog())
	assert.Equal(t, []string{"2026-10-11", "2026-10-18"}, tk.SprintHistory)

	require.NoError(t, tk.MoveToBacklog())
	assert.Len(t, tk.SprintHistory, 2)
}

func TestMoveClearsSkip(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.SkipForNow(t0))
	require.NoError(t, tk.MoveToSprint("s1"))
	assert.Nil(t, tk.Skip)

	require.NoError(t, tk.SkipForDay("tired", t0))
	require.NoError(t, tk.MoveToBacklog())
	assert.Nil(t, tk.Skip)
}

func TestMoveValidation(t *testing.T) {
	tk := newTestTask(t)
	assert.ErrorIs(t, tk.MoveToSprint(""), ErrEmptySprintID)

	tpl := newTestTemplate(t)
	assert.ErrorIs(t, tpl.MoveToSprint("s1"), ErrTemplateMove)
	assert.ErrorIs(t, tpl.MoveToBacklog(), ErrTemplateMove)

	require.NoError(t, tk.Cancel(t0))
	assert.ErrorIs(t, tk.MoveToSprint("s1"), ErrNotActive)
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("backlog")
	require.NoError(t, err)
	assert.True(t, loc.IsBacklog())

	loc, err = ParseLocation("sprint:abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", loc.SprintID)

	_, err = ParseLocation("sprint:")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseLocation("elsewhere")
	assert.ErrorIs(t, err, ErrValidation)
}

// ============================================================
// Skips
// ============================================================

func TestSkipForNowReplacesSkip(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.SkipForDay("busy", t0))
	require.NoError(t, tk.SkipForNow(t0.Add(time.Minute)))
	require.NotNil(t, tk.Skip)
	assert.Equal(t, SkipForNow, tk.Skip.Kind)
	assert.False(t, tk.Skip.Hidden())
	assert.True(t, tk.Skip.ReturnAt.IsZero())
}

func TestSkipForDay(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.SkipForDay("  too tired  ", t0))

	require.NotNil(t, tk.Skip)
	assert.Equal(t, SkipForDay, tk.Skip.Kind)
	assert.Equal(t, time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC), tk.Skip.ReturnAt)
	assert.False(t, tk.Skip.Returned)
	assert.True(t, tk.Skip.Hidden())

	c, ok := tk.Comment(tk.Skip.CommentID)
	require.True(t, ok, "skip must reference its justification comment")
	assert.Equal(t, "too tired", c.Text)
	assert.True(t, c.SkipJustification)
}

func TestSkipForDayRequiresJustification(t *testing.T) {
	tk := newTestTask(t)
	assert.ErrorIs(t, tk.SkipForDay(" \t\n", t0), ErrEmptyJustification)
	assert.Nil(t, tk.Skip)
	assert.Empty(t, tk.Comments, "no partial mutation on failure")
}

func TestCheckAndMarkReturn(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.SkipForDay("too tired", t0))

	assert.False(t, tk.CheckAndMarkReturn(t0.Add(-time.Hour)))
	assert.False(t, tk.Skip.Returned)

	assert.True(t, tk.CheckAndMarkReturn(t0.Add(25*time.Hour)))
	assert.True(t, tk.Skip.Returned)
	assert.True(t, tk.Skip.JustReturned())

	assert.False(t, tk.CheckAndMarkReturn(t0.Add(26*time.Hour)), "transition is reported once")
	assert.True(t, tk.Skip.Returned)
}

func TestCheckAndMarkReturnAtMidnight(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.SkipForDay("later", t0))
	assert.False(t, tk.CheckAndMarkReturn(tk.Skip.ReturnAt.Add(-time.Nanosecond)))
	assert.True(t, tk.CheckAndMarkReturn(tk.Skip.ReturnAt))
}

func TestCheckAndMarkReturnIgnoresForNow(t *testing.T) {
	tk := newTestTask(t)
	assert.False(t, tk.CheckAndMarkReturn(t0))
	require.NoError(t, tk.SkipForNow(t0))
	assert.False(t, tk.CheckAndMarkReturn(t0.Add(48*time.Hour)))
}

func TestClearSkipIdempotent(t *testing.T) {
	tk := newTestTask(t)
	tk.ClearSkip()
	require.NoError(t, tk.SkipForNow(t0))
	tk.ClearSkip()
	tk.ClearSkip()
	assert.Nil(t, tk.Skip)
}

func TestNextMidnightKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2026, time.December, 31, 23, 59, 0, 0, loc)
	got := NextMidnight(now)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, loc), got)
}

// ============================================================
// Recurrence
// ============================================================

func TestSpawn(t *testing.T) {
	tpl := newTestTemplate(t)
	tpl.Description = "all of them"

	inst, err := tpl.Spawn(t0.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, tpl.ID, inst.ID)
	assert.Equal(t, tpl.ID, inst.ParentID)
	assert.Equal(t, "Water plants", inst.Title)
	assert.Equal(t, "all of them", inst.Description)
	assert.True(t, inst.Effort.Equal(tpl.Effort))
	assert.Empty(t, inst.Recurrence)
	assert.True(t, inst.Location.IsBacklog())
	assert.Equal(t, StatusActive, inst.Status)
	assert.True(t, inst.IsInstance())
	assert.False(t, inst.IsTemplate())
}

func TestSpawnFromNonTemplate(t *testing.T) {
	tk := newTestTask(t)
	_, err := tk.Spawn(t0)
	assert.ErrorIs(t, err, ErrNotTemplate)
}

func TestSetRecurrence(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.SetRecurrence("FREQ=WEEKLY"))
	assert.True(t, tk.IsTemplate())
	require.NoError(t, tk.ClearRecurrence())
	assert.False(t, tk.IsTemplate())

	require.NoError(t, tk.MoveToSprint("s1"))
	assert.ErrorIs(t, tk.SetRecurrence("FREQ=WEEKLY"), ErrTemplateInSprint)

	inst, err := newTestTemplate(t).Spawn(t0)
	require.NoError(t, err)
	assert.ErrorIs(t, inst.SetRecurrence("FREQ=DAILY"), ErrInstanceRecurrence)
	assert.False(t, inst.IsTemplate() && inst.IsInstance())

	assert.ErrorIs(t, newTestTask(t).SetRecurrence(""), ErrEmptyRecurrence)
}

// ============================================================
// Comments
// ============================================================

func TestComments(t *testing.T) {
	tk := newTestTask(t)
	c, err := tk.AddComment("first", t0)
	require.NoError(t, err)
	assert.False(t, c.SkipJustification)

	require.NoError(t, tk.EditComment(c.ID, "edited", t0.Add(time.Minute)))
	got, ok := tk.Comment(c.ID)
	require.True(t, ok)
	assert.Equal(t, "edited", got.Text)
	require.NotNil(t, got.UpdatedAt)

	assert.ErrorIs(t, tk.EditComment("nope", "x", t0), ErrCommentNotFound)
	assert.ErrorIs(t, tk.EditComment(c.ID, " ", t0), ErrEmptyComment)
	assert.ErrorIs(t, tk.DeleteComment("nope"), ErrNotFound)

	require.NoError(t, tk.DeleteComment(c.ID))
	assert.Empty(t, tk.Comments)

	_, err = tk.AddComment("", t0)
	assert.ErrorIs(t, err, ErrEmptyComment)
}

func TestJustificationCannotBeDeletedWhileSkipped(t *testing.T) {
	tk := newTestTask(t)
	require.NoError(t, tk.SkipForDay("tired", t0))
	id := tk.Skip.CommentID
	assert.ErrorIs(t, tk.DeleteComment(id), ErrJustificationInUse)

	tk.ClearSkip()
	assert.NoError(t, tk.DeleteComment(id))
}

// ============================================================
// Sessions
// ============================================================

func TestSessionLifecycle(t *testing.T) {
	tk := newTestTask(t)
	s, err := tk.StartSession(t0)
	require.NoError(t, err)
	assert.Equal(t, SessionInProgress, s.Status)

	_, err = tk.StartSession(t0)
	assert.ErrorIs(t, err, ErrSessionInProgress)

	require.NoError(t, tk.CompleteSession(s.ID, RatingFocused, "good", t0.Add(25*time.Minute)))
	assert.ErrorIs(t, tk.CompleteSession(s.ID, RatingFocused, "", t0), ErrSessionNotInProgress)
	assert.ErrorIs(t, tk.AbandonSession(s.ID, t0), ErrSessionNotInProgress)
	assert.Equal(t, 25*time.Minute, tk.FocusedTime())

	s2, err := tk.StartSession(t0.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, tk.AbandonSession(s2.ID, t0.Add(90*time.Minute)))
	assert.Equal(t, 25*time.Minute, tk.FocusedTime(), "abandoned sessions earn no credit")

	_, ok := tk.ActiveSession()
	assert.False(t, ok)
}

func TestSessionErrors(t *testing.T) {
	tk := newTestTask(t)
	assert.ErrorIs(t, tk.CompleteSession("missing", RatingNeutral, "", t0), ErrSessionNotFound)
	assert.ErrorIs(t, tk.AbandonSession("missing", t0), ErrNotFound)

	s, err := tk.StartSession(t0)
	require.NoError(t, err)
	assert.ErrorIs(t, tk.CompleteSession(s.ID, Rating("bored"), "", t0), ErrInvalidRating)

	_, err = newTestTemplate(t).StartSession(t0)
	assert.ErrorIs(t, err, ErrTemplateSession)

	done := newTestTask(t)
	require.NoError(t, done.Complete(t0))
	_, err = done.StartSession(t0)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestLogSession(t *testing.T) {
	tk := newTestTask(t)
	s, err := tk.LogSession(t0.Add(-2*time.Hour), t0.Add(-time.Hour), RatingNeutral, "")
	require.NoError(t, err)
	assert.Equal(t, SessionCompleted, s.Status)
	assert.Equal(t, time.Hour, s.Duration())

	_, err = tk.LogSession(t0, t0, RatingNeutral, "")
	assert.ErrorIs(t, err, ErrInvalidSessionWindow)
	_, err = tk.LogSession(t0, t0.Add(MaxManualSession+time.Second), RatingNeutral, "")
	assert.ErrorIs(t, err, ErrInvalidSessionWindow)
	_, err = tk.LogSession(t0, t0.Add(MaxManualSession), RatingNeutral, "")
	assert.NoError(t, err)
}
