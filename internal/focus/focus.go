// Package focus picks the task to work on now and the queue behind it.
//
// Everything here is a pure function of the tasks passed in; results must be
// recomputed after any change to the set or to a task's skip state.
package focus

import (
	"slices"

	"github.com/aanduque/checkmate/internal/task"
)

// Hidden reports whether t is invisible in focus views: it carries a day
// skip that has not yet returned.
func Hidden(t *task.Task) bool {
	return t.Skip.Hidden()
}

type rank int

const (
	rankReturned rank = iota
	rankNormal
	rankSkippedForNow
)

func rankOf(t *task.Task) rank {
	switch {
	case t.Skip.JustReturned():
		return rankReturned
	case t.Skip == nil:
		return rankNormal
	default:
		return rankSkippedForNow
	}
}

// Sort returns the visible tasks in focus order. Tasks returning from a day
// skip come first, then unskipped tasks, then tasks skipped for now. Within
// a group tasks keep their display order, falling back to creation time and
// id. The input slice is not modified.
func Sort(tasks []*task.Task) []*task.Task {
	visible := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if !Hidden(t) {
			visible = append(visible, t)
		}
	}
	slices.SortStableFunc(visible, compare)
	return visible
}

func compare(a, b *task.Task) int {
	if ra, rb := rankOf(a), rankOf(b); ra != rb {
		return int(ra) - int(rb)
	}
	if a.Order != b.Order {
		if a.Order < b.Order {
			return -1
		}
		return 1
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// Selection is the focus task and the queue after it.
type Selection struct {
	Focus  *task.Task // nil when nothing is visible
	UpNext []*task.Task
	Hidden int // tasks hidden by unreturned day skips
}

// Empty reports whether there is nothing to work on.
func (s Selection) Empty() bool { return s.Focus == nil }

// Select sorts tasks and splits off the focus task.
func Select(tasks []*task.Task) Selection {
	sorted := Sort(tasks)
	sel := Selection{Hidden: len(tasks) - len(sorted)}
	if len(sorted) == 0 {
		return sel
	}
	sel.Focus = sorted[0]
	sel.UpNext = sorted[1:]
	return sel
}

// Task returns the focus task, or nil.
func Task(tasks []*task.Task) *task.Task {
	return Select(tasks).Focus
}

// UpNext returns the visible tasks after the focus task.
func UpNext(tasks []*task.Task) []*task.Task {
	return Select(tasks).UpNext
}
