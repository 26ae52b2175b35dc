package task

import (
	"strings"
	"time"
)

// SkipKind distinguishes the two ways of deprioritizing a task.
type SkipKind string

const (
	// SkipForNow lowers the task in the queue with no expiry.
	SkipForNow SkipKind = "for_now"
	// SkipForDay hides the task until the next midnight.
	SkipForDay SkipKind = "for_day"
)

// Skip is the temporary deprioritization state of an active task.
type Skip struct {
	Kind      SkipKind
	SkippedAt time.Time

	// Set only for SkipForDay.
	ReturnAt  time.Time
	CommentID string
	Returned  bool
}

// Hidden reports whether the skip removes the task from focus views.
func (s *Skip) Hidden() bool {
	return s != nil && s.Kind == SkipForDay && !s.Returned
}

// JustReturned reports whether a day skip has expired and been observed.
func (s *Skip) JustReturned() bool {
	return s != nil && s.Kind == SkipForDay && s.Returned
}

// NextMidnight returns the start of the calendar day after now, in now's location.
func NextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// SkipForNow moves the task down the queue. Any previous skip is replaced.
func (t *Task) SkipForNow(now time.Time) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	t.Skip = &Skip{Kind: SkipForNow, SkippedAt: now}
	return nil
}

// SkipForDay hides the task until the next midnight. The justification is
// recorded as a comment that the skip points at.
func (t *Task) SkipForDay(justification string, now time.Time) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return ErrEmptyJustification
	}
	c := newComment(justification, true, now)
	t.Comments = append(t.Comments, c)
	t.Skip = &Skip{
		Kind:      SkipForDay,
		SkippedAt: now,
		ReturnAt:  NextMidnight(now),
		CommentID: c.ID,
	}
	return nil
}

// ClearSkip removes any skip state. It is a no-op when there is none.
func (t *Task) ClearSkip() {
	t.Skip = nil
}

// CheckAndMarkReturn flips an expired day skip to returned. It reports true
// only on the call that performs the transition.
func (t *Task) CheckAndMarkReturn(now time.Time) bool {
	s := t.Skip
	if s == nil || s.Kind != SkipForDay || s.Returned {
		return false
	}
	if now.Before(s.ReturnAt) {
		return false
	}
	s.Returned = true
	return true
}
