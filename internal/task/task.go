// Package task implements the Task aggregate and its lifecycle rules.
//
// A Task is mutated in place. Every operation validates its inputs and the
// task's state before touching any field, so a failed call leaves the task
// exactly as it was. Operations that depend on the clock take "now" as an
// argument.
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/aanduque/checkmate/internal/effort"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

const sprintPrefix = "sprint:"

// Location is where a task lives: the backlog or a sprint.
type Location struct {
	SprintID string // empty means backlog
}

// Backlog returns the backlog location.
func Backlog() Location { return Location{} }

// InSprint returns the location for the given sprint.
func InSprint(sprintID string) Location { return Location{SprintID: sprintID} }

// IsBacklog reports whether l is the backlog.
func (l Location) IsBacklog() bool { return l.SprintID == "" }

func (l Location) String() string {
	if l.IsBacklog() {
		return "backlog"
	}
	return sprintPrefix + l.SprintID
}

// ParseLocation reads the form produced by Location.String.
func ParseLocation(s string) (Location, error) {
	switch {
	case s == "backlog" || s == "":
		return Backlog(), nil
	case strings.HasPrefix(s, sprintPrefix) && len(s) > len(sprintPrefix):
		return InSprint(strings.TrimPrefix(s, sprintPrefix)), nil
	}
	return Location{}, fmt.Errorf("%w: unknown location %q", ErrValidation, s)
}

// Task is a unit of work.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Effort      effort.Allocation
	Location    Location
	CreatedAt   time.Time
	CompletedAt *time.Time
	CanceledAt  *time.Time
	Skip        *Skip

	// Recurrence is the rule of a recurring template; empty otherwise.
	Recurrence string
	// ParentID is the template a recurring instance was spawned from.
	ParentID string

	Comments      []Comment
	Sessions      []Session
	SprintHistory []string
	Order         int
}

// New creates an active backlog task.
func New(title string, alloc effort.Allocation, now time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if alloc.IsEmpty() {
		return nil, ErrEmptyEffort
	}
	return &Task{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    StatusActive,
		Effort:    alloc,
		Location:  Backlog(),
		CreatedAt: now,
	}, nil
}

// NewTemplate creates a recurring template in the backlog.
func NewTemplate(title string, alloc effort.Allocation, rule string, now time.Time) (*Task, error) {
	if strings.TrimSpace(rule) == "" {
		return nil, ErrEmptyRecurrence
	}
	t, err := New(title, alloc, now)
	if err != nil {
		return nil, err
	}
	t.Recurrence = strings.TrimSpace(rule)
	return t, nil
}

// IsActive reports whether the task can still be mutated.
func (t *Task) IsActive() bool { return t.Status == StatusActive }

// IsTemplate reports whether the task is a recurring template.
func (t *Task) IsTemplate() bool { return t.Recurrence != "" }

// IsInstance reports whether the task was spawned from a template.
func (t *Task) IsInstance() bool { return t.ParentID != "" }

// Points returns the total effort of the task.
func (t *Task) Points() int { return t.Effort.Total() }

func (t *Task) requireActive() error {
	if !t.IsActive() {
		return fmt.Errorf("%w (status %s)", ErrNotActive, t.Status)
	}
	return nil
}

// UpdateTitle renames the task.
func (t *Task) UpdateTitle(title string) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	t.Title = title
	return nil
}

// UpdateDescription replaces the description. An empty description clears it.
func (t *Task) UpdateDescription(description string) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	t.Description = description
	return nil
}

// UpdateEffort replaces the effort allocation.
func (t *Task) UpdateEffort(alloc effort.Allocation) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	if alloc.IsEmpty() {
		return ErrEmptyEffort
	}
	t.Effort = alloc
	return nil
}

// SetOrder sets the display order used by focus selection.
func (t *Task) SetOrder(order int) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	t.Order = order
	return nil
}

// Complete marks the task completed.
func (t *Task) Complete(now time.Time) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.Skip = nil
	return nil
}

// Cancel marks the task canceled.
func (t *Task) Cancel(now time.Time) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	t.Status = StatusCanceled
	t.CanceledAt = &now
	t.Skip = nil
	return nil
}

// MoveToSprint places the task in a sprint.
func (t *Task) MoveToSprint(sprintID string) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	if t.IsTemplate() {
		return ErrTemplateMove
	}
	if strings.TrimSpace(sprintID) == "" {
		return ErrEmptySprintID
	}
	t.moveTo(InSprint(sprintID))
	return nil
}

// MoveToBacklog returns the task to the backlog.
func (t *Task) MoveToBacklog() error {
	if err := t.requireActive(); err != nil {
		return err
	}
	if t.IsTemplate() {
		return ErrTemplateMove
	}
	t.moveTo(Backlog())
	return nil
}

func (t *Task) moveTo(loc Location) {
	if !t.Location.IsBacklog() && t.Location != loc {
		t.SprintHistory = append(t.SprintHistory, t.Location.SprintID)
	}
	t.Location = loc
	t.Skip = nil
}

// SetRecurrence turns a backlog task into a recurring template.
func (t *Task) SetRecurrence(rule string) error {
	if err := t.requireActive(); err != nil {
		return err
	}
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return ErrEmptyRecurrence
	}
	if t.IsInstance() {
		return ErrInstanceRecurrence
	}
	if !t.Location.IsBacklog() {
		return ErrTemplateInSprint
	}
	t.Recurrence = rule
	return nil
}

// ClearRecurrence turns a template back into an ordinary task.
func (t *Task) ClearRecurrence() error {
	if err := t.requireActive(); err != nil {
		return err
	}
	t.Recurrence = ""
	return nil
}

// Spawn materializes a new instance of a recurring template.
func (t *Task) Spawn(now time.Time) (*Task, error) {
	if !t.IsTemplate() {
		return nil, ErrNotTemplate
	}
	if err := t.requireActive(); err != nil {
		return nil, err
	}
	inst, err := New(t.Title, t.Effort, now)
	if err != nil {
		return nil, err
	}
	inst.Description = t.Description
	inst.ParentID = t.ID
	inst.Order = t.Order
	return inst, nil
}
