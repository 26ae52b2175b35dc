package task

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Task operation wraps exactly one of
// these, so callers can translate with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrState      = errors.New("invalid state")
	ErrNotFound   = errors.New("not found")
)

var (
	// ErrEmptyTitle is returned when a title is blank.
	ErrEmptyTitle = fmt.Errorf("%w: title cannot be empty", ErrValidation)

	// ErrEmptyEffort is returned when an allocation has no categories.
	ErrEmptyEffort = fmt.Errorf("%w: effort allocation cannot be empty", ErrValidation)

	// ErrEmptyJustification is returned when skipping for the day without a reason.
	ErrEmptyJustification = fmt.Errorf("%w: justification cannot be empty", ErrValidation)

	// ErrEmptyComment is returned when a comment body is blank.
	ErrEmptyComment = fmt.Errorf("%w: comment cannot be empty", ErrValidation)

	// ErrEmptyRecurrence is returned when setting a blank recurrence rule.
	ErrEmptyRecurrence = fmt.Errorf("%w: recurrence rule cannot be empty", ErrValidation)

	// ErrEmptySprintID is returned when moving to a sprint without an id.
	ErrEmptySprintID = fmt.Errorf("%w: sprint id cannot be empty", ErrValidation)

	// ErrInvalidRating is returned for an unknown focus rating.
	ErrInvalidRating = fmt.Errorf("%w: invalid focus rating", ErrValidation)

	// ErrInvalidSessionWindow is returned when a manual session has a bad start/end.
	ErrInvalidSessionWindow = fmt.Errorf("%w: invalid session window", ErrValidation)

	// ErrNotActive is returned when mutating a completed or canceled task.
	ErrNotActive = fmt.Errorf("%w: task is not active", ErrState)

	// ErrTemplateMove is returned when moving a recurring template.
	ErrTemplateMove = fmt.Errorf("%w: recurring templates cannot be moved", ErrState)

	// ErrTemplateSession is returned when starting a session on a template.
	ErrTemplateSession = fmt.Errorf("%w: recurring templates cannot have sessions", ErrState)

	// ErrNotTemplate is returned when spawning from a task without recurrence.
	ErrNotTemplate = fmt.Errorf("%w: task is not a recurring template", ErrState)

	// ErrInstanceRecurrence is returned when giving a spawned instance a recurrence rule.
	ErrInstanceRecurrence = fmt.Errorf("%w: recurring instances cannot be templates", ErrState)

	// ErrTemplateInSprint is returned when making a sprint task a template.
	ErrTemplateInSprint = fmt.Errorf("%w: templates must live in the backlog", ErrState)

	// ErrSessionInProgress is returned when starting a second session.
	ErrSessionInProgress = fmt.Errorf("%w: a session is already in progress", ErrState)

	// ErrSessionNotInProgress is returned when ending a session twice.
	ErrSessionNotInProgress = fmt.Errorf("%w: session is not in progress", ErrState)

	// ErrJustificationInUse is returned when deleting the comment backing a day skip.
	ErrJustificationInUse = fmt.Errorf("%w: comment justifies the current skip", ErrState)

	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)

	// ErrCommentNotFound is returned for an unknown comment id.
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
)
