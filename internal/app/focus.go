package app

import (
	"fmt"

	"github.com/aanduque/checkmate/internal/focus"
	"github.com/aanduque/checkmate/internal/routine"
	"github.com/aanduque/checkmate/internal/task"
)

// FocusView is what to work on now within a sprint.
type FocusView struct {
	SprintID string
	focus.Selection

	// Routine is the routine whose filter was applied, if any.
	Routine *routine.Routine
	// Manual is true when Routine came from the override.
	Manual bool
	// Returned lists tasks whose day skip expired on this call.
	Returned []*task.Task
}

// FocusOptions tune Focus.
type FocusOptions struct {
	// IgnoreRoutine shows every task regardless of the active routine.
	IgnoreRoutine bool
}

// Focus selects the focus task and up-next queue among the active tasks of
// a sprint (the current one when sprintID is empty). Expired day skips are
// marked returned and saved before sorting.
func (s *Service) Focus(sprintID string, opts FocusOptions) (FocusView, error) {
	if sprintID == "" {
		sprintID = s.CurrentSprintID()
	}
	view := FocusView{SprintID: sprintID}

	tasks, err := s.tasks.FindBySprint(sprintID)
	if err != nil {
		return view, err
	}

	var candidates []*task.Task
	for _, t := range tasks {
		if !t.IsActive() || t.IsTemplate() {
			continue
		}
		if t.Skip.Hidden() {
			returned, err := s.markReturn(t.ID)
			if err != nil {
				return view, err
			}
			if returned != nil {
				t = returned
				view.Returned = append(view.Returned, t)
			}
		}
		candidates = append(candidates, t)
	}

	if !opts.IgnoreRoutine {
		r, manual, err := s.ActiveRoutine()
		if err != nil {
			return view, err
		}
		if r != nil {
			names, err := s.tagNames()
			if err != nil {
				return view, err
			}
			view.Routine, view.Manual = r, manual
			candidates = routine.FilterTasks(r, candidates, s.eval, names)
		}
	}

	view.Selection = focus.Select(candidates)
	return view, nil
}

// markReturn reloads id under its lock and flips an expired day skip. It
// returns the saved task when a transition happened, nil otherwise.
func (s *Service) markReturn(id string) (*task.Task, error) {
	unlock := s.locks.Lock("task:" + id)
	defer unlock()

	t, err := s.tasks.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !t.CheckAndMarkReturn(s.Now()) {
		return nil, nil
	}
	if err := s.tasks.Save(t); err != nil {
		return nil, fmt.Errorf("save task %s: %w", id, err)
	}
	return t, nil
}
