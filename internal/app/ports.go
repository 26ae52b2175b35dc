package app

import (
	"github.com/aanduque/checkmate/internal/routine"
	"github.com/aanduque/checkmate/internal/sprint"
	"github.com/aanduque/checkmate/internal/tag"
	"github.com/aanduque/checkmate/internal/task"
)

// TaskRepository stores tasks. Save is an upsert, Delete is idempotent and
// FindByID returns an error matching ErrNotFound for unknown ids.
type TaskRepository interface {
	Save(t *task.Task) error
	FindByID(id string) (*task.Task, error)
	FindAll() ([]*task.Task, error)
	FindBySprint(sprintID string) ([]*task.Task, error)
	FindBacklog() ([]*task.Task, error)
	FindTemplates() ([]*task.Task, error)
	FindInstances(parentID string) ([]*task.Task, error)
	FindByStatus(status task.Status) ([]*task.Task, error)
	Delete(id string) error
}

type TagRepository interface {
	Save(t *tag.Tag) error
	FindByID(id string) (*tag.Tag, error)
	FindAll() ([]*tag.Tag, error)
	Delete(id string) error
}

type SprintRepository interface {
	Save(s *sprint.Sprint) error
	FindByID(id string) (*sprint.Sprint, error)
	FindAll() ([]*sprint.Sprint, error)
	Delete(id string) error
}

type RoutineRepository interface {
	Save(r *routine.Routine) error
	FindByID(id string) (*routine.Routine, error)
	FindAll() ([]*routine.Routine, error)
	Delete(id string) error
}

// Settings holds the manually selected routine. An empty id means the
// active routine is determined from the clock.
type Settings interface {
	RoutineOverride() (string, error)
	SetRoutineOverride(id string) error
}
