package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/aanduque/checkmate/internal/effort"
	"github.com/aanduque/checkmate/internal/task"
)

// CreateTask adds an active backlog task. Every effort category must be a
// known tag id.
func (s *Service) CreateTask(title string, alloc effort.Allocation) (*task.Task, error) {
	if err := s.checkCategories(alloc); err != nil {
		return nil, err
	}
	t, err := task.New(title, alloc, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Save(t); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	return t, nil
}

// CreateTemplate adds a recurring template after validating its rule.
func (s *Service) CreateTemplate(title string, alloc effort.Allocation, rule string) (*task.Task, error) {
	if err := s.checkCategories(alloc); err != nil {
		return nil, err
	}
	if err := s.validateRule(rule); err != nil {
		return nil, err
	}
	t, err := task.NewTemplate(title, alloc, rule, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Save(t); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	return t, nil
}

func (s *Service) Task(id string) (*task.Task, error) {
	return s.tasks.FindByID(id)
}

// Tasks returns all tasks in display order.
func (s *Service) Tasks() ([]*task.Task, error) {
	return s.tasks.FindAll()
}

func (s *Service) Backlog() ([]*task.Task, error) {
	return s.tasks.FindBacklog()
}

func (s *Service) SprintTasks(sprintID string) ([]*task.Task, error) {
	return s.tasks.FindBySprint(sprintID)
}

func (s *Service) Templates() ([]*task.Task, error) {
	return s.tasks.FindTemplates()
}

func (s *Service) Instances(templateID string) ([]*task.Task, error) {
	return s.tasks.FindInstances(templateID)
}

func (s *Service) TasksByStatus(status task.Status) ([]*task.Task, error) {
	return s.tasks.FindByStatus(status)
}

func (s *Service) UpdateTitle(id, title string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, _ time.Time) error {
		return t.UpdateTitle(title)
	})
}

func (s *Service) UpdateDescription(id, description string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, _ time.Time) error {
		return t.UpdateDescription(description)
	})
}

func (s *Service) UpdateEffort(id string, alloc effort.Allocation) (*task.Task, error) {
	if err := s.checkCategories(alloc); err != nil {
		return nil, err
	}
	return s.updateTask(id, func(t *task.Task, _ time.Time) error {
		return t.UpdateEffort(alloc)
	})
}

func (s *Service) SetOrder(id string, order int) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, _ time.Time) error {
		return t.SetOrder(order)
	})
}

// Complete finishes a task, ending any running session as completed.
func (s *Service) Complete(id string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, now time.Time) error {
		if sess, ok := t.ActiveSession(); ok && t.IsActive() {
			if err := t.CompleteSession(sess.ID, task.RatingNone, "", now); err != nil {
				return err
			}
		}
		return t.Complete(now)
	})
}

// Cancel cancels a task, abandoning any running session.
func (s *Service) Cancel(id string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, now time.Time) error {
		if sess, ok := t.ActiveSession(); ok && t.IsActive() {
			if err := t.AbandonSession(sess.ID, now); err != nil {
				return err
			}
		}
		return t.Cancel(now)
	})
}

// MoveToSprint moves a task into a sprint, creating the sprint record on
// first use. An empty sprintID means the current sprint.
func (s *Service) MoveToSprint(id, sprintID string) (*task.Task, error) {
	sp, err := s.ensureSprint(sprintID)
	if err != nil {
		return nil, err
	}
	return s.updateTask(id, func(t *task.Task, _ time.Time) error {
		return t.MoveToSprint(sp.ID)
	})
}

func (s *Service) MoveToBacklog(id string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, _ time.Time) error {
		return t.MoveToBacklog()
	})
}

func (s *Service) SkipForNow(id string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, now time.Time) error {
		return t.SkipForNow(now)
	})
}

func (s *Service) SkipForDay(id, justification string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, now time.Time) error {
		return t.SkipForDay(justification, now)
	})
}

func (s *Service) ClearSkip(id string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, _ time.Time) error {
		t.ClearSkip()
		return nil
	})
}

func (s *Service) AddComment(id, text string) (task.Comment, error) {
	var c task.Comment
	_, err := s.updateTask(id, func(t *task.Task, now time.Time) error {
		var err error
		c, err = t.AddComment(text, now)
		return err
	})
	return c, err
}

func (s *Service) EditComment(id, commentID, text string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, now time.Time) error {
		return t.EditComment(commentID, text, now)
	})
}

func (s *Service) DeleteComment(id, commentID string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, _ time.Time) error {
		return t.DeleteComment(commentID)
	})
}

// StartSession starts a focus session on a task. Only one session may run
// across all tasks.
func (s *Service) StartSession(id string) (task.Session, error) {
	unlock := s.locks.Lock("sessions")
	defer unlock()

	if running, _, err := s.RunningSession(); err != nil {
		return task.Session{}, err
	} else if running != nil && running.ID != id {
		return task.Session{}, fmt.Errorf("%w: %q", ErrSessionRunning, running.Title)
	}

	var sess task.Session
	_, err := s.updateTask(id, func(t *task.Task, now time.Time) error {
		var err error
		sess, err = t.StartSession(now)
		return err
	})
	return sess, err
}

func (s *Service) CompleteSession(id, sessionID string, rating task.Rating, notes string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, now time.Time) error {
		return t.CompleteSession(sessionID, rating, notes, now)
	})
}

func (s *Service) AbandonSession(id, sessionID string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, now time.Time) error {
		return t.AbandonSession(sessionID, now)
	})
}

// LogSession records a completed session that happened away from the timer.
func (s *Service) LogSession(id string, start, end time.Time, rating task.Rating, notes string) (task.Session, error) {
	var sess task.Session
	_, err := s.updateTask(id, func(t *task.Task, _ time.Time) error {
		var err error
		sess, err = t.LogSession(start, end, rating, notes)
		return err
	})
	return sess, err
}

// RunningSession returns the task with a session in progress, if any.
func (s *Service) RunningSession() (*task.Task, task.Session, error) {
	active, err := s.tasks.FindByStatus(task.StatusActive)
	if err != nil {
		return nil, task.Session{}, err
	}
	for _, t := range active {
		if sess, ok := t.ActiveSession(); ok {
			return t, sess, nil
		}
	}
	return nil, task.Session{}, nil
}

func (s *Service) SetRecurrence(id, rule string) (*task.Task, error) {
	if err := s.validateRule(rule); err != nil {
		return nil, err
	}
	return s.updateTask(id, func(t *task.Task, _ time.Time) error {
		return t.SetRecurrence(rule)
	})
}

func (s *Service) ClearRecurrence(id string) (*task.Task, error) {
	return s.updateTask(id, func(t *task.Task, _ time.Time) error {
		return t.ClearRecurrence()
	})
}

// DeleteTask removes a task permanently.
func (s *Service) DeleteTask(id string) error {
	unlock := s.locks.Lock("task:" + id)
	defer unlock()
	return s.tasks.Delete(id)
}

func (s *Service) validateRule(rule string) error {
	if strings.TrimSpace(rule) == "" {
		return task.ErrEmptyRecurrence
	}
	if err := s.calc.Validate(rule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}
