package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aanduque/checkmate/internal/app"
	"github.com/aanduque/checkmate/internal/sprint"
	"github.com/aanduque/checkmate/internal/tag"
	"github.com/aanduque/checkmate/internal/task"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7AA2F7"))
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C63FF"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F39C12"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
)

// ErrAmbiguousID is returned when an id prefix matches several records.
var ErrAmbiguousID = errors.New("ambiguous id")

const shortIDLen = 8

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// matchID picks the id equal to ref, or the only id starting with ref.
func matchID(ids []string, ref, kind string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%s id cannot be empty", kind)
	}
	var matches []string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s %q: %w", kind, ref, app.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("%w: %s %q matches %d records", ErrAmbiguousID, kind, ref, len(matches))
}

func (e *env) resolveTask(ref string) (*task.Task, error) {
	tasks, err := e.svc.Tasks()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	id, err := matchID(ids, ref, "task")
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("task %q: %w", ref, app.ErrNotFound)
}

func resolveComment(t *task.Task, ref string) (string, error) {
	ids := make([]string, len(t.Comments))
	for i, c := range t.Comments {
		ids[i] = c.ID
	}
	return matchID(ids, ref, "comment")
}

// resolveSprint maps "", "current" and "next" to sprint ids relative to now.
func (e *env) resolveSprint(ref string) string {
	switch strings.ToLower(strings.TrimSpace(ref)) {
	case "", "current":
		return e.svc.CurrentSprintID()
	case "next":
		return sprint.ForDate(e.svc.Now()).Next().ID
	}
	return ref
}

func (e *env) tagIndex() (map[string]*tag.Tag, error) {
	tags, err := e.svc.Tags()
	if err != nil {
		return nil, err
	}
	idx := make(map[string]*tag.Tag, len(tags))
	for _, t := range tags {
		idx[t.ID] = t
	}
	return idx, nil
}

// effortString renders an allocation with tag names, sorted by name.
func effortString(t *task.Task, tags map[string]*tag.Tag) string {
	var parts []string
	for _, id := range t.Effort.Categories() {
		name := id
		if tg, ok := tags[id]; ok {
			name = tg.Name
		}
		parts = append(parts, fmt.Sprintf("%s:%d", name, t.Effort.Get(id)))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func statusMark(t *task.Task) string {
	switch {
	case t.Status == task.StatusCompleted:
		return successStyle.Render("✓")
	case t.Status == task.StatusCanceled:
		return mutedStyle.Render("✗")
	case t.IsTemplate():
		return idStyle.Render("↻")
	case t.Skip.Hidden():
		return mutedStyle.Render("⏸")
	case t.Skip != nil:
		return warningStyle.Render("↓")
	}
	return "•"
}

func printTaskLine(w io.Writer, t *task.Task, tags map[string]*tag.Tag) {
	fmt.Fprintf(w, "%s %s  %s  %s\n",
		statusMark(t),
		idStyle.Render(shortID(t.ID)),
		t.Title,
		mutedStyle.Render(fmt.Sprintf("[%s] %dpt", effortString(t, tags), t.Points())),
	)
}

func healthStyle(s sprint.Status) lipgloss.Style {
	switch s {
	case sprint.OffTrack:
		return errorStyle
	case sprint.AtRisk:
		return warningStyle
	}
	return successStyle
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

// parseWhen reads "15:04" (today), "2006-01-02 15:04" or RFC 3339, in loc.
func parseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	loc := now.Location()
	if t, err := time.ParseInLocation("15:04", s, loc); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use HH:MM, \"YYYY-MM-DD HH:MM\" or RFC 3339", s)
}
