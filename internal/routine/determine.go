package routine

import (
	"strings"

	"github.com/aanduque/checkmate/internal/task"
)

// Matches reports whether r's activation expression holds in ctx. Blank or
// failing expressions never match.
func Matches(r *Routine, ctx Context, ev Evaluator) bool {
	if strings.TrimSpace(r.Activation) == "" {
		return false
	}
	return ev.Evaluate(ActivationScope, r.Activation, ctx.Env())
}

// Determine returns the active routine: the matching routine with the highest
// priority, ties broken by ascending name. It returns nil when none match.
func Determine(routines []*Routine, ctx Context, ev Evaluator) *Routine {
	var best *Routine
	for _, r := range routines {
		if !Matches(r, ctx, ev) {
			continue
		}
		if best == nil || outranks(r, best) {
			best = r
		}
	}
	return best
}

func outranks(a, b *Routine) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

// TaskEnv returns the variables filter expressions see for t. names maps
// category ids to display names for the "tags" variable; ids without a name
// are passed through.
func TaskEnv(t *task.Task, names map[string]string) map[string]any {
	cats := t.Effort.Categories()
	tags := make([]string, len(cats))
	for i, id := range cats {
		if n, ok := names[id]; ok {
			tags[i] = n
		} else {
			tags[i] = id
		}
	}
	return map[string]any{
		"title":       t.Title,
		"description": t.Description,
		"points":      t.Points(),
		"categories":  cats,
		"tags":        tags,
		"inSprint":    !t.Location.IsBacklog(),
		"isTemplate":  t.IsTemplate(),
		"isInstance":  t.IsInstance(),
		"skipped":     t.Skip != nil,
		"order":       t.Order,
	}
}

// FilterTasks keeps the tasks r's filter accepts. A nil routine or a blank
// filter keeps everything; a filter that fails to compile keeps nothing.
func FilterTasks(r *Routine, tasks []*task.Task, ev Evaluator, names map[string]string) []*task.Task {
	if r == nil || strings.TrimSpace(r.Filter) == "" {
		return tasks
	}
	p, err := ev.Compile(FilterScope, r.Filter)
	if err != nil {
		return nil
	}
	var out []*task.Task
	for _, t := range tasks {
		if p.Eval(TaskEnv(t, names)) {
			out = append(out, t)
		}
	}
	return out
}
