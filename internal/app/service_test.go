package app

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aanduque/checkmate/internal/effort"
	"github.com/aanduque/checkmate/internal/routine"
	"github.com/aanduque/checkmate/internal/sprint"
	"github.com/aanduque/checkmate/internal/store"
	"github.com/aanduque/checkmate/internal/tag"
	"github.com/aanduque/checkmate/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wednesday is inside the sprint 2026-10-11..2026-10-17.
var wednesday = time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestService(t *testing.T) (*Service, *testClock) {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := &testClock{now: wednesday}
	svc := New(Deps{
		Tasks:    st.Tasks(),
		Tags:     st.Tags(),
		Sprints:  st.Sprints(),
		Routines: st.Routines(),
		Settings: st,
		Clock:    clock.Now,
		Location: time.UTC,
	})
	return svc, clock
}

func mustTag(t *testing.T, svc *Service, name string, capacity int) *tag.Tag {
	t.Helper()
	tg, err := svc.CreateTag(name, "", capacity)
	require.NoError(t, err)
	return tg
}

func mustTask(t *testing.T, svc *Service, title, tagID string, points int) *task.Task {
	t.Helper()
	alloc, err := effort.Single(tagID, points)
	require.NoError(t, err)
	tk, err := svc.CreateTask(title, alloc)
	require.NoError(t, err)
	return tk
}

// ============================================================
// Tasks
// ============================================================

func TestCreateTaskRequiresKnownTags(t *testing.T) {
	svc, _ := newTestService(t)

	alloc, _ := effort.Single("nope", 3)
	_, err := svc.CreateTask("Orphan", alloc)
	require.ErrorIs(t, err, ErrUnknownTag)
	assert.ErrorIs(t, err, task.ErrValidation)

	tk := mustTask(t, svc, "Tidy", tag.UntaggedID, 2)
	got, err := svc.Task(tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tidy", got.Title)
	assert.True(t, got.CreatedAt.Equal(wednesday))
}

func TestResolveEffort(t *testing.T) {
	svc, _ := newTestService(t)
	work := mustTag(t, svc, "Work", 21)

	alloc, err := svc.ResolveEffort("work:5, untagged:1")
	require.NoError(t, err)
	assert.Equal(t, effort.Points(5), alloc.Get(work.ID))
	assert.Equal(t, effort.Points(1), alloc.Get(tag.UntaggedID))

	_, err = svc.ResolveEffort("gardening:3")
	assert.ErrorIs(t, err, ErrUnknownTag)

	_, err = svc.ResolveEffort("work:4")
	assert.ErrorIs(t, err, effort.ErrInvalidPoints)

	_, err = svc.ResolveEffort("work:2, Work:3")
	assert.ErrorIs(t, err, effort.ErrDuplicateCategory)
}

func TestUpdateTaskNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpdateTitle("missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFailedOperationIsNotSaved(t *testing.T) {
	svc, _ := newTestService(t)
	tk := mustTask(t, svc, "Keep me", tag.UntaggedID, 1)

	_, err := svc.UpdateTitle(tk.ID, "   ")
	require.ErrorIs(t, err, task.ErrEmptyTitle)

	got, _ := svc.Task(tk.ID)
	assert.Equal(t, "Keep me", got.Title)
}

func TestMoveToCurrentSprint(t *testing.T) {
	svc, _ := newTestService(t)
	tk := mustTask(t, svc, "Plan", tag.UntaggedID, 3)

	moved, err := svc.MoveToSprint(tk.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-11", moved.Location.SprintID)

	sprints, err := svc.Sprints()
	require.NoError(t, err)
	require.Len(t, sprints, 1)
	assert.Equal(t, "2026-10-11", sprints[0].ID)

	_, err = svc.MoveToSprint(tk.ID, "2026-10-12")
	assert.Error(t, err, "sprint ids must be Sundays")

	back, err := svc.MoveToBacklog(tk.ID)
	require.NoError(t, err)
	assert.True(t, back.Location.IsBacklog())
	assert.Equal(t, []string{"2026-10-11"}, back.SprintHistory)
}

func TestTemplateRuleValidated(t *testing.T) {
	svc, _ := newTestService(t)
	alloc, _ := effort.Single(tag.UntaggedID, 1)

	_, err := svc.CreateTemplate("Bad", alloc, "FREQ=SOMETIMES")
	assert.ErrorIs(t, err, ErrInvalidRule)

	tpl, err := svc.CreateTemplate("Review", alloc, "FREQ=WEEKLY;BYDAY=FR")
	require.NoError(t, err)
	_, err = svc.MoveToSprint(tpl.ID, "")
	assert.ErrorIs(t, err, task.ErrTemplateMove)
}

// ============================================================
// Sessions
// ============================================================

func TestOneRunningSessionAcrossTasks(t *testing.T) {
	svc, clock := newTestService(t)
	a := mustTask(t, svc, "A", tag.UntaggedID, 1)
	b := mustTask(t, svc, "B", tag.UntaggedID, 1)

	sess, err := svc.StartSession(a.ID)
	require.NoError(t, err)

	_, err = svc.StartSession(b.ID)
	assert.ErrorIs(t, err, ErrSessionRunning)

	_, err = svc.StartSession(a.ID)
	assert.ErrorIs(t, err, task.ErrSessionInProgress)

	running, got, err := svc.RunningSession()
	require.NoError(t, err)
	require.NotNil(t, running)
	assert.Equal(t, a.ID, running.ID)
	assert.Equal(t, sess.ID, got.ID)

	clock.Set(wednesday.Add(25 * time.Minute))
	done, err := svc.CompleteSession(a.ID, sess.ID, task.RatingFocused, "")
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, done.FocusedTime())

	_, err = svc.StartSession(b.ID)
	assert.NoError(t, err)
}

func TestCompleteEndsRunningSession(t *testing.T) {
	svc, clock := newTestService(t)
	tk := mustTask(t, svc, "Finish", tag.UntaggedID, 2)
	_, err := svc.StartSession(tk.ID)
	require.NoError(t, err)

	clock.Set(wednesday.Add(10 * time.Minute))
	done, err := svc.Complete(tk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, done.Status)
	_, running := done.ActiveSession()
	assert.False(t, running)
	assert.Equal(t, 10*time.Minute, done.FocusedTime())

	_, err = svc.Complete(tk.ID)
	assert.ErrorIs(t, err, task.ErrNotActive)
}

func TestLogSessionWindow(t *testing.T) {
	svc, _ := newTestService(t)
	tk := mustTask(t, svc, "Offline", tag.UntaggedID, 2)

	_, err := svc.LogSession(tk.ID, wednesday, wednesday.Add(13*time.Hour), task.RatingNeutral, "")
	assert.ErrorIs(t, err, task.ErrInvalidSessionWindow)

	sess, err := svc.LogSession(tk.ID, wednesday.Add(-time.Hour), wednesday, task.RatingNeutral, "train")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, sess.Duration())
}

// ============================================================
// Focus
// ============================================================

func TestFocusSkipForDayReturns(t *testing.T) {
	svc, clock := newTestService(t)
	first := mustTask(t, svc, "First", tag.UntaggedID, 1)
	second := mustTask(t, svc, "Second", tag.UntaggedID, 1)
	for i, tk := range []*task.Task{first, second} {
		_, err := svc.MoveToSprint(tk.ID, "")
		require.NoError(t, err)
		_, err = svc.SetOrder(tk.ID, i)
		require.NoError(t, err)
	}

	view, err := svc.Focus("", FocusOptions{})
	require.NoError(t, err)
	require.NotNil(t, view.Focus)
	assert.Equal(t, first.ID, view.Focus.ID)

	_, err = svc.SkipForDay(first.ID, "waiting on review")
	require.NoError(t, err)

	view, err = svc.Focus("", FocusOptions{})
	require.NoError(t, err)
	assert.Equal(t, second.ID, view.Focus.ID)
	assert.Empty(t, view.UpNext)
	assert.Equal(t, 1, view.Hidden)

	// Next day: the skipped task comes back ahead of everything.
	clock.Set(time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC))
	view, err = svc.Focus("", FocusOptions{})
	require.NoError(t, err)
	require.Len(t, view.Returned, 1)
	assert.Equal(t, first.ID, view.Focus.ID)
	assert.Equal(t, 0, view.Hidden)

	view, err = svc.Focus("", FocusOptions{})
	require.NoError(t, err)
	assert.Empty(t, view.Returned, "the transition is reported once")
	assert.Equal(t, first.ID, view.Focus.ID)

	stored, _ := svc.Task(first.ID)
	assert.True(t, stored.Skip.JustReturned())
}

func TestFocusEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	mustTask(t, svc, "Backlog only", tag.UntaggedID, 1)

	view, err := svc.Focus("", FocusOptions{})
	require.NoError(t, err)
	assert.True(t, view.Empty())
	assert.Equal(t, "2026-10-11", view.SprintID)
}

func TestFocusAppliesActiveRoutine(t *testing.T) {
	svc, _ := newTestService(t)
	work := mustTag(t, svc, "Work", 21)
	w := mustTask(t, svc, "Report", work.ID, 3)
	h := mustTask(t, svc, "Laundry", tag.UntaggedID, 1)
	for _, tk := range []*task.Task{w, h} {
		_, err := svc.MoveToSprint(tk.ID, "")
		require.NoError(t, err)
	}

	_, err := svc.CreateRoutine("Work hours", 5, "isWeekday && hour >= 9", `"Work" in tags`, "")
	require.NoError(t, err)

	view, err := svc.Focus("", FocusOptions{})
	require.NoError(t, err)
	require.NotNil(t, view.Routine)
	assert.Equal(t, "Work hours", view.Routine.Name)
	assert.False(t, view.Manual)
	require.NotNil(t, view.Focus)
	assert.Equal(t, w.ID, view.Focus.ID)
	assert.Empty(t, view.UpNext)

	view, err = svc.Focus("", FocusOptions{IgnoreRoutine: true})
	require.NoError(t, err)
	assert.Nil(t, view.Routine)
	assert.Len(t, view.UpNext, 1)
}

// ============================================================
// Routines
// ============================================================

func TestActiveRoutineOverride(t *testing.T) {
	svc, _ := newTestService(t)

	weekday, err := svc.CreateRoutine("Weekday", 5, "isWeekday", "", "")
	require.NoError(t, err)
	weekend, err := svc.CreateRoutine("Weekend", 5, "isWeekend", "", "")
	require.NoError(t, err)

	r, manual, err := svc.ActiveRoutine()
	require.NoError(t, err)
	assert.Equal(t, weekday.ID, r.ID)
	assert.False(t, manual)

	require.NoError(t, svc.SetRoutineOverride(weekend.ID))
	r, manual, err = svc.ActiveRoutine()
	require.NoError(t, err)
	assert.Equal(t, weekend.ID, r.ID)
	assert.True(t, manual)

	require.NoError(t, svc.DeleteRoutine(weekend.ID))
	r, manual, err = svc.ActiveRoutine()
	require.NoError(t, err)
	assert.Equal(t, weekday.ID, r.ID)
	assert.False(t, manual)

	assert.ErrorIs(t, svc.SetRoutineOverride("missing"), ErrNotFound)
}

func TestActiveRoutineTieBreak(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateRoutine("Beta", 8, "true", "", "")
	require.NoError(t, err)
	_, err = svc.CreateRoutine("Alpha", 8, "true", "", "")
	require.NoError(t, err)

	r, _, err := svc.ActiveRoutine()
	require.NoError(t, err)
	assert.Equal(t, "Alpha", r.Name)
}

func TestUpdateRoutineValidates(t *testing.T) {
	svc, _ := newTestService(t)
	r, err := svc.CreateRoutine("Morning", 3, "hour < 12", "", "")
	require.NoError(t, err)

	bad := 11
	_, err = svc.UpdateRoutine(r.ID, RoutineChange{Priority: &bad})
	assert.Error(t, err)

	broken := "hour <"
	_, err = svc.UpdateRoutine(r.ID, RoutineChange{Activation: &broken})
	assert.Error(t, err)

	typo := `"Work" in tagz`
	_, err = svc.UpdateRoutine(r.ID, RoutineChange{Filter: &typo})
	assert.ErrorIs(t, err, routine.ErrInvalidExpression)

	name := "Early"
	updated, err := svc.UpdateRoutine(r.ID, RoutineChange{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Early", updated.Name)

	stored, _ := svc.Routine(r.ID)
	assert.Equal(t, "Early", stored.Name)
	assert.Equal(t, 3, stored.Priority)
}

// ============================================================
// Sprints
// ============================================================

func TestSprintHealthOffTrack(t *testing.T) {
	svc, clock := newTestService(t)
	work := mustTag(t, svc, "Work", 7)
	tk := mustTask(t, svc, "Big push", work.ID, 8)
	_, err := svc.MoveToSprint(tk.ID, "")
	require.NoError(t, err)

	clock.Set(time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC))
	h, err := svc.SprintHealth("")
	require.NoError(t, err)
	assert.Equal(t, 2, h.DaysRemaining)
	assert.Equal(t, sprint.OffTrack, h.Status)

	_, err = svc.SetSprintCapacity("", work.ID, 70)
	require.NoError(t, err)
	h, err = svc.SprintHealth("")
	require.NoError(t, err)
	assert.Equal(t, sprint.OnTrack, h.Status)

	_, err = svc.SetSprintCapacity("", work.ID, 0)
	assert.ErrorIs(t, err, sprint.ErrInvalidCapacity)

	_, err = svc.ClearSprintCapacity("", work.ID)
	require.NoError(t, err)
	h, _ = svc.SprintHealth("")
	assert.Equal(t, sprint.OffTrack, h.Status)
}

func TestSprintDerivedWhenNotStored(t *testing.T) {
	svc, _ := newTestService(t)
	sp, err := svc.Sprint("2026-11-01")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, sp.Start.Weekday())

	all, _ := svc.Sprints()
	assert.Empty(t, all)
}

// ============================================================
// Recurring
// ============================================================

func TestSpawnForSprintIsIdempotent(t *testing.T) {
	svc, clock := newTestService(t)
	clock.Set(time.Date(2026, time.October, 11, 8, 0, 0, 0, time.UTC))
	alloc, _ := effort.Single(tag.UntaggedID, 1)
	tpl, err := svc.CreateTemplate("Stretch", alloc, "FREQ=DAILY")
	require.NoError(t, err)

	spawned, err := svc.SpawnForSprint("")
	require.NoError(t, err)
	require.Len(t, spawned, 7)
	for _, inst := range spawned {
		assert.Equal(t, tpl.ID, inst.ParentID)
		assert.False(t, inst.IsTemplate())
		assert.True(t, inst.Location.IsBacklog())
		assert.True(t, inst.IsActive())
	}

	again, err := svc.SpawnForSprint("")
	require.NoError(t, err)
	assert.Empty(t, again)

	instances, _ := svc.Instances(tpl.ID)
	assert.Len(t, instances, 7)
}

func TestSpawnAheadOfTime(t *testing.T) {
	svc, _ := newTestService(t)
	alloc, _ := effort.Single(tag.UntaggedID, 1)
	_, err := svc.CreateTemplate("Weekly review", alloc, "FREQ=WEEKLY;BYDAY=FR")
	require.NoError(t, err)

	spawned, err := svc.SpawnForSprint("2026-10-18")
	require.NoError(t, err)
	require.Len(t, spawned, 1)
	assert.Equal(t, time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC), spawned[0].CreatedAt)

	again, err := svc.SpawnForSprint("2026-10-18")
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestSpawnSkipsDaysBeforeTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	alloc, _ := effort.Single(tag.UntaggedID, 1)
	_, err := svc.CreateTemplate("Stretch", alloc, "FREQ=DAILY")
	require.NoError(t, err)

	spawned, err := svc.SpawnForSprint("")
	require.NoError(t, err)
	assert.Len(t, spawned, 4) // Wednesday through Saturday
}

func TestSpawnMonthlyOncePerMonth(t *testing.T) {
	svc, clock := newTestService(t)
	alloc, _ := effort.Single(tag.UntaggedID, 1)
	tpl, err := svc.CreateTemplate("Pay rent", alloc, "FREQ=MONTHLY")
	require.NoError(t, err)

	var counts []int
	sp := sprint.ForDate(wednesday)
	for i := 0; i < 6; i++ {
		clock.Set(sp.Start.Add(9 * time.Hour))
		spawned, err := svc.SpawnForSprint(sp.ID)
		require.NoError(t, err)
		counts = append(counts, len(spawned))
		sp = sp.Next()
	}
	// Due 2026-10-14 and 2026-11-14.
	assert.Equal(t, []int{1, 0, 0, 0, 1, 0}, counts)

	instances, _ := svc.Instances(tpl.ID)
	assert.Len(t, instances, 2)
}

func TestCreateTemplateRejectsSubDaily(t *testing.T) {
	svc, _ := newTestService(t)
	alloc, _ := effort.Single(tag.UntaggedID, 1)
	_, err := svc.CreateTemplate("Blink", alloc, "FREQ=SECONDLY")
	assert.ErrorIs(t, err, ErrInvalidRule)

	tk := mustTask(t, svc, "Stretch", tag.UntaggedID, 1)
	_, err = svc.SetRecurrence(tk.ID, "FREQ=HOURLY")
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestNextOccurrence(t *testing.T) {
	svc, _ := newTestService(t)
	alloc, _ := effort.Single(tag.UntaggedID, 1)
	tpl, err := svc.CreateTemplate("Friday review", alloc, "FREQ=WEEKLY;BYDAY=FR;BYHOUR=9;BYMINUTE=0;BYSECOND=0")
	require.NoError(t, err)

	next, ok, err := svc.NextOccurrence(tpl.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Friday, next.Weekday())
	assert.True(t, next.After(wednesday))

	plain := mustTask(t, svc, "Plain", tag.UntaggedID, 1)
	_, _, err = svc.NextOccurrence(plain.ID)
	assert.ErrorIs(t, err, task.ErrNotTemplate)
}

// ============================================================
// Tags
// ============================================================

func TestDeleteTag(t *testing.T) {
	svc, _ := newTestService(t)
	work := mustTag(t, svc, "Work", 21)
	tk := mustTask(t, svc, "Report", work.ID, 3)

	err := svc.DeleteTag(work.ID)
	assert.ErrorIs(t, err, ErrTagInUse)

	_, err = svc.Complete(tk.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTag(work.ID))

	_, err = svc.Tag(work.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.DeleteTag(tag.UntaggedID), tag.ErrProtected)
}

func TestLookupTag(t *testing.T) {
	svc, _ := newTestService(t)
	work := mustTag(t, svc, "Deep Work", 21)

	got, err := svc.LookupTag("deep work")
	require.NoError(t, err)
	assert.Equal(t, work.ID, got.ID)

	got, err = svc.LookupTag(work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deep Work", got.Name)

	_, err = svc.LookupTag("shallow")
	assert.True(t, errors.Is(err, ErrNotFound))
}

// ============================================================
// Concurrency
// ============================================================

func TestConcurrentCommentsSerialized(t *testing.T) {
	svc, _ := newTestService(t)
	tk := mustTask(t, svc, "Busy", tag.UntaggedID, 1)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.AddComment(tk.ID, fmt.Sprintf("note %d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	got, err := svc.Task(tk.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, n)
	assert.Equal(t, 0, svc.locks.size())
}
