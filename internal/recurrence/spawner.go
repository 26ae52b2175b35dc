package recurrence

import (
	"time"

	"github.com/aanduque/checkmate/internal/task"
)

// Spawner materializes recurring instances for a date range.
//
// Duplicates are avoided by counting: a template with N occurrences in the
// range and M existing instances gets max(0, N-M) new ones. Instances do not
// record which occurrence they stand for, so changing a template's rule after
// instances exist can make the count drift.
type Spawner struct {
	calc Calculator
}

// NewSpawner returns a Spawner using calc for occurrence dates.
func NewSpawner(calc Calculator) *Spawner {
	return &Spawner{calc: calc}
}

// Spawn returns the new instances needed to cover [start, end]. Candidates
// that are not active templates are ignored, as are templates whose rule
// cannot be evaluated. A rule counts from the day its template was created,
// in the location of start. Nothing is persisted.
func (s *Spawner) Spawn(candidates, existing []*task.Task, start, end, now time.Time) []*task.Task {
	if start.After(end) {
		return nil
	}

	children := make(map[string]int)
	for _, t := range existing {
		if t.IsInstance() {
			children[t.ParentID]++
		}
	}

	var spawned []*task.Task
	for _, tpl := range candidates {
		if !tpl.IsTemplate() || !tpl.IsActive() {
			continue
		}
		dates, err := s.calc.Occurrences(tpl.Recurrence, Anchor(tpl.CreatedAt, start.Location()), start, end)
		if err != nil {
			continue
		}
		for n := len(dates) - children[tpl.ID]; n > 0; n-- {
			inst, err := tpl.Spawn(now)
			if err != nil {
				break
			}
			spawned = append(spawned, inst)
		}
	}
	return spawned
}
