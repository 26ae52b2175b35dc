// Package app runs checkmate commands: load an aggregate, apply one domain
// operation, save it. Writes to the same aggregate id are serialized.
package app

import (
	"fmt"
	"time"

	"github.com/aanduque/checkmate/internal/recurrence"
	"github.com/aanduque/checkmate/internal/routine"
	"github.com/aanduque/checkmate/internal/task"
)

// Deps wires a Service. Evaluator, Calculator, Clock and Location default
// to the expr and rrule implementations, time.Now and time.Local.
type Deps struct {
	Tasks    TaskRepository
	Tags     TagRepository
	Sprints  SprintRepository
	Routines RoutineRepository
	Settings Settings

	Evaluator  routine.Evaluator
	Calculator recurrence.Calculator
	Clock      func() time.Time
	Location   *time.Location
}

type Service struct {
	tasks    TaskRepository
	tags     TagRepository
	sprints  SprintRepository
	routines RoutineRepository
	settings Settings

	eval    routine.Evaluator
	calc    recurrence.Calculator
	spawner *recurrence.Spawner
	clock   func() time.Time
	loc     *time.Location

	locks *keyedMutex
}

func New(d Deps) *Service {
	s := &Service{
		tasks:    d.Tasks,
		tags:     d.Tags,
		sprints:  d.Sprints,
		routines: d.Routines,
		settings: d.Settings,
		eval:     d.Evaluator,
		calc:     d.Calculator,
		clock:    d.Clock,
		loc:      d.Location,
		locks:    newKeyedMutex(),
	}
	if s.eval == nil {
		s.eval = routine.NewExprEvaluator()
	}
	if s.calc == nil {
		s.calc = recurrence.NewRRuleCalculator()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	s.spawner = recurrence.NewSpawner(s.calc)
	return s
}

// Now returns the service clock in the configured location.
func (s *Service) Now() time.Time {
	return s.clock().In(s.loc)
}

// Evaluator returns the expression evaluator routines are checked with.
func (s *Service) Evaluator() routine.Evaluator {
	return s.eval
}

// updateTask loads id under its lock, applies fn and saves the result.
// Nothing is saved when fn fails.
func (s *Service) updateTask(id string, fn func(t *task.Task, now time.Time) error) (*task.Task, error) {
	unlock := s.locks.Lock("task:" + id)
	defer unlock()

	t, err := s.tasks.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := fn(t, s.Now()); err != nil {
		return nil, err
	}
	if err := s.tasks.Save(t); err != nil {
		return nil, fmt.Errorf("save task %s: %w", id, err)
	}
	return t, nil
}
