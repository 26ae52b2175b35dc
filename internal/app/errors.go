package app

import (
	"fmt"

	"github.com/aanduque/checkmate/internal/task"
)

// ErrNotFound is the not-found kind shared with the domain packages.
var ErrNotFound = task.ErrNotFound

var (
	// ErrUnknownTag is returned when an effort category names no tag.
	ErrUnknownTag = fmt.Errorf("%w: unknown tag", task.ErrValidation)

	// ErrTagInUse is returned when deleting a tag that active tasks still use.
	ErrTagInUse = fmt.Errorf("%w: tag is used by active tasks", task.ErrState)

	// ErrInvalidRule is returned when a recurrence rule does not parse.
	ErrInvalidRule = fmt.Errorf("%w: invalid recurrence rule", task.ErrValidation)

	// ErrSessionRunning is returned when starting a session while another
	// task already has one in progress.
	ErrSessionRunning = fmt.Errorf("%w: another task has a session in progress", task.ErrState)
)
