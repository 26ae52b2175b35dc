package app

import (
	"fmt"
	"time"

	"github.com/aanduque/checkmate/internal/recurrence"
	"github.com/aanduque/checkmate/internal/task"
)

// SpawnRecurring materializes the instances every active template owes for
// [start, end] and saves them. Instances created inside the range count as
// already spawned, so re-running the same range adds nothing. Instances are
// stamped with the clock when it falls inside the range and with start
// otherwise.
func (s *Service) SpawnRecurring(start, end time.Time) ([]*task.Task, error) {
	unlock := s.locks.Lock("spawn")
	defer unlock()

	templates, err := s.tasks.FindTemplates()
	if err != nil {
		return nil, err
	}
	var existing []*task.Task
	for _, tpl := range templates {
		instances, err := s.tasks.FindInstances(tpl.ID)
		if err != nil {
			return nil, err
		}
		for _, inst := range instances {
			if !inst.CreatedAt.Before(start) && !inst.CreatedAt.After(end) {
				existing = append(existing, inst)
			}
		}
	}

	at := s.Now()
	if at.Before(start) || at.After(end) {
		at = start
	}
	spawned := s.spawner.Spawn(templates, existing, start, end, at)
	for _, inst := range spawned {
		if err := s.tasks.Save(inst); err != nil {
			return nil, fmt.Errorf("save instance of %s: %w", inst.ParentID, err)
		}
	}
	return spawned, nil
}

// SpawnForSprint spawns the instances owed for a sprint's week.
func (s *Service) SpawnForSprint(sprintID string) ([]*task.Task, error) {
	sp, err := s.Sprint(sprintID)
	if err != nil {
		return nil, err
	}
	return s.SpawnRecurring(sp.Start, sp.End)
}

// NextOccurrence returns the next date a template recurs after the clock.
// The rule counts from the day the template was created.
func (s *Service) NextOccurrence(templateID string) (time.Time, bool, error) {
	tpl, err := s.tasks.FindByID(templateID)
	if err != nil {
		return time.Time{}, false, err
	}
	if !tpl.IsTemplate() {
		return time.Time{}, false, task.ErrNotTemplate
	}
	return s.calc.Next(tpl.Recurrence, recurrence.Anchor(tpl.CreatedAt, s.loc), s.Now())
}
