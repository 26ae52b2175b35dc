package app

import (
	"errors"
	"fmt"

	"github.com/aanduque/checkmate/internal/routine"
)

func (s *Service) CreateRoutine(name string, priority int, activation, filter, description string) (*routine.Routine, error) {
	r, err := routine.New(name, priority, activation, filter, s.eval)
	if err != nil {
		return nil, err
	}
	r.Description = description
	if err := s.routines.Save(r); err != nil {
		return nil, fmt.Errorf("save routine: %w", err)
	}
	return r, nil
}

func (s *Service) Routine(id string) (*routine.Routine, error) {
	return s.routines.FindByID(id)
}

func (s *Service) Routines() ([]*routine.Routine, error) {
	return s.routines.FindAll()
}

// RoutineChange lists the fields to update; nil fields are kept.
type RoutineChange struct {
	Name        *string
	Description *string
	Priority    *int
	Activation  *string
	Filter      *string
}

func (s *Service) UpdateRoutine(id string, c RoutineChange) (*routine.Routine, error) {
	unlock := s.locks.Lock("routine:" + id)
	defer unlock()

	r, err := s.routines.FindByID(id)
	if err != nil {
		return nil, err
	}
	next := *r
	if c.Name != nil {
		next.Name = *c.Name
	}
	if c.Description != nil {
		next.Description = *c.Description
	}
	if c.Priority != nil {
		next.Priority = *c.Priority
	}
	if c.Activation != nil {
		next.Activation = *c.Activation
	}
	if c.Filter != nil {
		next.Filter = *c.Filter
	}
	if err := next.Validate(s.eval); err != nil {
		return nil, err
	}
	if err := s.routines.Save(&next); err != nil {
		return nil, fmt.Errorf("save routine %s: %w", id, err)
	}
	return &next, nil
}

// DeleteRoutine removes a routine and drops the override if it pointed there.
func (s *Service) DeleteRoutine(id string) error {
	unlock := s.locks.Lock("routine:" + id)
	defer unlock()

	if err := s.routines.Delete(id); err != nil {
		return err
	}
	override, err := s.settings.RoutineOverride()
	if err != nil {
		return err
	}
	if override == id {
		return s.settings.SetRoutineOverride("")
	}
	return nil
}

// ActiveRoutine returns the routine in effect now. A manual override wins
// over the clock; manual reports which applied. The result is nil when no
// routine matches.
func (s *Service) ActiveRoutine() (r *routine.Routine, manual bool, err error) {
	override, err := s.settings.RoutineOverride()
	if err != nil {
		return nil, false, err
	}
	if override != "" {
		r, err := s.routines.FindByID(override)
		switch {
		case err == nil:
			return r, true, nil
		case !errors.Is(err, ErrNotFound):
			return nil, false, err
		}
	}
	routines, err := s.routines.FindAll()
	if err != nil {
		return nil, false, err
	}
	return routine.Determine(routines, routine.NewContext(s.Now()), s.eval), false, nil
}

// SetRoutineOverride pins a routine regardless of the clock.
func (s *Service) SetRoutineOverride(id string) error {
	if _, err := s.routines.FindByID(id); err != nil {
		return err
	}
	return s.settings.SetRoutineOverride(id)
}

// ClearRoutineOverride returns to clock-based activation.
func (s *Service) ClearRoutineOverride() error {
	return s.settings.SetRoutineOverride("")
}
