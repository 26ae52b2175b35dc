// Package routine decides which contextual task filter is active.
//
// A Routine pairs an activation expression, evaluated against the current
// time, with a filter expression, evaluated per task. Expressions are opaque
// to this package and are handed to an Evaluator.
package routine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Priority bounds.
const (
	MinPriority = 1
	MaxPriority = 10
)

var (
	// ErrEmptyName is returned when a routine name is blank.
	ErrEmptyName = errors.New("routine name cannot be empty")

	// ErrInvalidPriority is returned when priority is outside [MinPriority, MaxPriority].
	ErrInvalidPriority = fmt.Errorf("priority must be between %d and %d", MinPriority, MaxPriority)

	// ErrInvalidExpression is returned when an expression fails validation.
	ErrInvalidExpression = errors.New("invalid expression")
)

// Routine is a named, prioritized context rule.
type Routine struct {
	ID          string
	Name        string
	Description string
	Priority    int

	// Activation decides when the routine applies, e.g. "isWeekday && hour >= 9".
	Activation string
	// Filter decides which tasks it shows, e.g. "'work' in categories".
	Filter string
}

// New validates and creates a routine. Expressions are checked with ev when
// it is non-nil; blank expressions are allowed.
func New(name string, priority int, activation, filter string, ev Evaluator) (*Routine, error) {
	r := &Routine{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(name),
		Priority:   priority,
		Activation: strings.TrimSpace(activation),
		Filter:     strings.TrimSpace(filter),
	}
	if err := r.Validate(ev); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the routine's fields.
func (r *Routine) Validate(ev Evaluator) error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if err := ValidatePriority(r.Priority); err != nil {
		return err
	}
	if ev == nil {
		return nil
	}
	for _, expr := range []struct {
		scope Scope
		src   string
	}{
		{ActivationScope, r.Activation},
		{FilterScope, r.Filter},
	} {
		if strings.TrimSpace(expr.src) == "" {
			continue
		}
		if err := ev.Validate(expr.scope, expr.src); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidExpression, expr.scope, err)
		}
	}
	return nil
}

// ValidatePriority checks that p is in range.
func ValidatePriority(p int) error {
	if p < MinPriority || p > MaxPriority {
		return fmt.Errorf("%w: got %d", ErrInvalidPriority, p)
	}
	return nil
}
