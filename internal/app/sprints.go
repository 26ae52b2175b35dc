package app

import (
	"errors"
	"fmt"

	"github.com/aanduque/checkmate/internal/sprint"
)

// Sprint returns the sprint with id, or the current sprint when id is
// empty. Sprints that were never stored are derived from their id and
// carry no overrides.
func (s *Service) Sprint(id string) (*sprint.Sprint, error) {
	if id == "" {
		id = s.CurrentSprintID()
	}
	sp, err := s.sprints.FindByID(id)
	if err == nil {
		return sp, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return sprint.ParseID(id, s.loc)
}

// CurrentSprintID is the id of the week containing the service clock.
func (s *Service) CurrentSprintID() string {
	return sprint.ForDate(s.Now()).ID
}

// Sprints returns stored sprints, oldest first.
func (s *Service) Sprints() ([]*sprint.Sprint, error) {
	return s.sprints.FindAll()
}

func (s *Service) SetSprintCapacity(sprintID, tagID string, points int) (*sprint.Sprint, error) {
	if _, err := s.tags.FindByID(tagID); err != nil {
		return nil, err
	}
	return s.updateSprint(sprintID, func(sp *sprint.Sprint) error {
		return sp.SetCapacity(tagID, points)
	})
}

func (s *Service) ClearSprintCapacity(sprintID, tagID string) (*sprint.Sprint, error) {
	return s.updateSprint(sprintID, func(sp *sprint.Sprint) error {
		sp.ClearCapacity(tagID)
		return nil
	})
}

// SprintHealth computes the health of a sprint at the service clock.
func (s *Service) SprintHealth(sprintID string) (sprint.Health, error) {
	sp, err := s.Sprint(sprintID)
	if err != nil {
		return sprint.Health{}, err
	}
	tasks, err := s.tasks.FindBySprint(sp.ID)
	if err != nil {
		return sprint.Health{}, err
	}
	tags, err := s.tags.FindAll()
	if err != nil {
		return sprint.Health{}, err
	}
	return sprint.Calculate(sp, tasks, tags, s.Now()), nil
}

func (s *Service) ensureSprint(id string) (*sprint.Sprint, error) {
	return s.updateSprint(id, func(*sprint.Sprint) error { return nil })
}

func (s *Service) updateSprint(id string, fn func(sp *sprint.Sprint) error) (*sprint.Sprint, error) {
	if id == "" {
		id = s.CurrentSprintID()
	}
	unlock := s.locks.Lock("sprint:" + id)
	defer unlock()

	sp, err := s.Sprint(id)
	if err != nil {
		return nil, err
	}
	if err := fn(sp); err != nil {
		return nil, err
	}
	if err := s.sprints.Save(sp); err != nil {
		return nil, fmt.Errorf("save sprint %s: %w", sp.ID, err)
	}
	return sp, nil
}
