// Package sprint models weekly capacity windows and their health.
package sprint

import (
	"errors"
	"fmt"
	"time"
)

// Length is the number of days in a sprint.
const Length = 7

// IDLayout formats a sprint id from its start date.
const IDLayout = "2006-01-02"

// ErrInvalidCapacity is returned for non-positive capacity overrides.
var ErrInvalidCapacity = errors.New("capacity override must be positive")

// Sprint is a Sunday 00:00 through Saturday 23:59 window.
type Sprint struct {
	ID        string
	Start     time.Time
	End       time.Time
	Overrides map[string]int // tag id -> weekly points
}

// ForDate returns the sprint containing t, in t's location.
func ForDate(t time.Time) *Sprint {
	y, m, d := t.Date()
	start := time.Date(y, m, d-int(t.Weekday()), 0, 0, 0, 0, t.Location())
	return &Sprint{
		ID:        start.Format(IDLayout),
		Start:     start,
		End:       EndOf(start),
		Overrides: make(map[string]int),
	}
}

// EndOf returns the last instant of the sprint starting at start.
func EndOf(start time.Time) time.Time {
	y, m, d := start.Date()
	return time.Date(y, m, d+Length, 0, 0, 0, 0, start.Location()).Add(-time.Nanosecond)
}

// ParseID returns the sprint whose id is s, in loc.
func ParseID(s string, loc *time.Location) (*Sprint, error) {
	start, err := time.ParseInLocation(IDLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("parse sprint id %q: %w", s, err)
	}
	if start.Weekday() != time.Sunday {
		return nil, fmt.Errorf("parse sprint id %q: sprints start on Sunday", s)
	}
	return ForDate(start), nil
}

// Contains reports whether t falls inside the sprint.
func (s *Sprint) Contains(t time.Time) bool {
	return !t.Before(s.Start) && !t.After(s.End)
}

// Next returns the following sprint.
func (s *Sprint) Next() *Sprint {
	return ForDate(s.Start.AddDate(0, 0, Length))
}

// SetCapacity overrides the weekly capacity of a tag for this sprint.
func (s *Sprint) SetCapacity(tagID string, points int) error {
	if points <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, points)
	}
	if s.Overrides == nil {
		s.Overrides = make(map[string]int)
	}
	s.Overrides[tagID] = points
	return nil
}

// ClearCapacity removes a tag's override.
func (s *Sprint) ClearCapacity(tagID string) {
	delete(s.Overrides, tagID)
}

// Capacity returns the override for tagID, or fallback.
func (s *Sprint) Capacity(tagID string, fallback int) int {
	if v, ok := s.Overrides[tagID]; ok {
		return v
	}
	return fallback
}

// DaysRemaining counts calendar days from now through the sprint end,
// inclusive, never less than one. A sprint that has not started yet has all
// of its days left.
func (s *Sprint) DaysRemaining(now time.Time) int {
	now = now.In(s.End.Location())
	if now.Before(s.Start) {
		now = s.Start
	}
	days := civilDay(s.End) - civilDay(now) + 1
	if days < 1 {
		return 1
	}
	return days
}

func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
