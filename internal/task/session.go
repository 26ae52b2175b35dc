package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the state of a focus session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// Rating is the self-reported focus quality of a completed session.
type Rating string

const (
	RatingNone       Rating = ""
	RatingDistracted Rating = "distracted"
	RatingNeutral    Rating = "neutral"
	RatingFocused    Rating = "focused"
)

// IsValid returns true for the known ratings, including none.
func (r Rating) IsValid() bool {
	switch r {
	case RatingNone, RatingDistracted, RatingNeutral, RatingFocused:
		return true
	}
	return false
}

// MaxManualSession bounds the length of a manually logged session.
const MaxManualSession = 12 * time.Hour

// Session is a bounded period of work on a task.
type Session struct {
	ID        string
	Status    SessionStatus
	StartedAt time.Time
	EndedAt   *time.Time
	Rating    Rating
	Notes     string
}

// Duration returns the session length, or zero while it is running.
func (s Session) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// ActiveSession returns the in-progress session, if any.
func (t *Task) ActiveSession() (Session, bool) {
	for _, s := range t.Sessions {
		if s.Status == SessionInProgress {
			return s, true
		}
	}
	return Session{}, false
}

// FocusedTime sums the duration of completed sessions.
func (t *Task) FocusedTime() time.Duration {
	var total time.Duration
	for _, s := range t.Sessions {
		if s.Status == SessionCompleted {
			total += s.Duration()
		}
	}
	return total
}

func (t *Task) canHaveSessions() error {
	if err := t.requireActive(); err != nil {
		return err
	}
	if t.IsTemplate() {
		return ErrTemplateSession
	}
	return nil
}

// StartSession begins a focus session.
func (t *Task) StartSession(now time.Time) (Session, error) {
	if err := t.canHaveSessions(); err != nil {
		return Session{}, err
	}
	if _, ok := t.ActiveSession(); ok {
		return Session{}, ErrSessionInProgress
	}
	s := Session{
		ID:        uuid.NewString(),
		Status:    SessionInProgress,
		StartedAt: now,
	}
	t.Sessions = append(t.Sessions, s)
	return s, nil
}

// CompleteSession ends an in-progress session with a focus rating.
func (t *Task) CompleteSession(id string, rating Rating, notes string, now time.Time) error {
	if !rating.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRating, rating)
	}
	s, err := t.runningSession(id)
	if err != nil {
		return err
	}
	s.Status = SessionCompleted
	s.EndedAt = &now
	s.Rating = rating
	s.Notes = notes
	return nil
}

// AbandonSession ends an in-progress session without credit.
func (t *Task) AbandonSession(id string, now time.Time) error {
	s, err := t.runningSession(id)
	if err != nil {
		return err
	}
	s.Status = SessionAbandoned
	s.EndedAt = &now
	return nil
}

func (t *Task) runningSession(id string) (*Session, error) {
	if err := t.requireActive(); err != nil {
		return nil, err
	}
	for i := range t.Sessions {
		if t.Sessions[i].ID != id {
			continue
		}
		if t.Sessions[i].Status != SessionInProgress {
			return nil, ErrSessionNotInProgress
		}
		return &t.Sessions[i], nil
	}
	return nil, ErrSessionNotFound
}

// LogSession records a completed session after the fact.
func (t *Task) LogSession(start, end time.Time, rating Rating, notes string) (Session, error) {
	if err := t.canHaveSessions(); err != nil {
		return Session{}, err
	}
	if !rating.IsValid() {
		return Session{}, fmt.Errorf("%w: %q", ErrInvalidRating, rating)
	}
	d := end.Sub(start)
	if d <= 0 {
		return Session{}, fmt.Errorf("%w: end must be after start", ErrInvalidSessionWindow)
	}
	if d > MaxManualSession {
		return Session{}, fmt.Errorf("%w: %s exceeds %s", ErrInvalidSessionWindow, d, MaxManualSession)
	}
	s := Session{
		ID:        uuid.NewString(),
		Status:    SessionCompleted,
		StartedAt: start,
		EndedAt:   &end,
		Rating:    rating,
		Notes:     notes,
	}
	t.Sessions = append(t.Sessions, s)
	return s, nil
}
