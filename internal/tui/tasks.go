package tui

import (
	"fmt"
	"strings"

	"github.com/aanduque/checkmate/internal/app"
	"github.com/aanduque/checkmate/internal/tag"
	"github.com/aanduque/checkmate/internal/task"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type taskListMode int

const (
	listSprint taskListMode = iota
	listBacklog
)

type tasksModel struct {
	svc    *app.Service
	width  int
	height int

	mode     taskListMode
	sprintID string
	tasks    []*task.Task
	tags     map[string]*tag.Tag
	cursor   int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formTitle  *string
	formEffort *string
	formPlace  *string
	formRule   *string
}

func newTasksModel(svc *app.Service) tasksModel {
	title, effort, place, rule := "", "", "sprint", ""
	return tasksModel{
		svc:        svc,
		tags:       map[string]*tag.Tag{},
		formTitle:  &title,
		formEffort: &effort,
		formPlace:  &place,
		formRule:   &rule,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type tasksDataMsg struct {
	sprintID string
	tasks    []*task.Task
	tags     map[string]*tag.Tag
	err      error
}

func (m tasksModel) refresh() tea.Cmd {
	svc, mode := m.svc, m.mode
	return func() tea.Msg {
		sprintID := svc.CurrentSprintID()
		var (
			tasks []*task.Task
			err   error
		)
		if mode == listBacklog {
			tasks, err = svc.Backlog()
		} else {
			tasks, err = svc.SprintTasks(sprintID)
		}
		if err != nil {
			return tasksDataMsg{err: err}
		}
		tags, err := tagIndex(svc)
		if err != nil {
			return tasksDataMsg{err: err}
		}
		var open []*task.Task
		for _, t := range tasks {
			if t.IsActive() {
				open = append(open, t)
			}
		}
		return tasksDataMsg{sprintID: sprintID, tasks: open, tags: tags}
	}
}

func (m tasksModel) selected() *task.Task {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return nil
	}
	return m.tasks[m.cursor]
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		if msg.err != nil {
			return m, func() tea.Msg { return errStatus(msg.err) }
		}
		m.sprintID = msg.sprintID
		m.tasks = msg.tasks
		m.tags = msg.tags
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateList(msg)
	}
	return m, nil
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		if m.mode == listSprint {
			m.mode = listBacklog
		} else {
			m.mode = listSprint
		}
		m.cursor = 0
		return m, m.refresh()
	case key.Matches(msg, keys.New):
		return m.showNewTaskForm()
	case key.Matches(msg, keys.Move):
		return m.apply(func(t *task.Task) (*task.Task, string, error) {
			if t.Location.IsBacklog() {
				moved, err := m.svc.MoveToSprint(t.ID, "")
				return moved, "Planned " + t.Title + " into this sprint", err
			}
			moved, err := m.svc.MoveToBacklog(t.ID)
			return moved, "Moved " + t.Title + " to the backlog", err
		})
	case key.Matches(msg, keys.Done):
		return m.apply(func(t *task.Task) (*task.Task, string, error) {
			done, err := m.svc.Complete(t.ID)
			return done, "Completed " + t.Title, err
		})
	case key.Matches(msg, keys.Delete):
		return m.apply(func(t *task.Task) (*task.Task, string, error) {
			canceled, err := m.svc.Cancel(t.ID)
			return canceled, "Canceled " + t.Title, err
		})
	case key.Matches(msg, keys.Skip):
		return m.apply(func(t *task.Task) (*task.Task, string, error) {
			if t.Skip != nil {
				cleared, err := m.svc.ClearSkip(t.ID)
				return cleared, "Unskipped " + t.Title, err
			}
			skipped, err := m.svc.SkipForNow(t.ID)
			return skipped, "Skipped " + t.Title + " for now", err
		})
	}
	return m, nil
}

// apply runs op on the selected task and reloads the list.
func (m tasksModel) apply(op func(t *task.Task) (*task.Task, string, error)) (tasksModel, tea.Cmd) {
	t := m.selected()
	if t == nil {
		return m, nil
	}
	_, text, err := op(t)
	if err != nil {
		return m, func() tea.Msg { return errStatus(err) }
	}
	return m, tea.Batch(m.refresh(), func() tea.Msg { return taskChangedMsg{text: text} })
}

func (m tasksModel) showNewTaskForm() (tasksModel, tea.Cmd) {
	*m.formTitle = ""
	*m.formEffort = ""
	*m.formRule = ""
	*m.formPlace = "sprint"
	if m.mode == listBacklog {
		*m.formPlace = "backlog"
	}

	svc := m.svc
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return task.ErrEmptyTitle
					}
					return nil
				}),
			huh.NewInput().Title("Effort (tag:points, e.g. work:3,home:1)").Value(m.formEffort).
				Validate(func(s string) error {
					_, err := svc.ResolveEffort(s)
					return err
				}),
			huh.NewSelect[string]().Title("Place in").
				Options(
					huh.NewOption("This sprint", "sprint"),
					huh.NewOption("Backlog", "backlog"),
				).Value(m.formPlace),
			huh.NewInput().Title("Repeat (RRULE, optional)").Value(m.formRule),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		m.form = nil
		t, err := m.createFromForm()
		if err != nil {
			return m, func() tea.Msg { return errStatus(err) }
		}
		return m, tea.Batch(m.refresh(), func() tea.Msg { return taskChangedMsg{text: "Created " + t.Title} })
	}

	return m, cmd
}

func (m tasksModel) createFromForm() (*task.Task, error) {
	alloc, err := m.svc.ResolveEffort(*m.formEffort)
	if err != nil {
		return nil, err
	}
	if rule := strings.TrimSpace(*m.formRule); rule != "" {
		return m.svc.CreateTemplate(*m.formTitle, alloc, rule)
	}
	t, err := m.svc.CreateTask(*m.formTitle, alloc)
	if err != nil {
		return nil, err
	}
	if *m.formPlace == "sprint" {
		return m.svc.MoveToSprint(t.ID, "")
	}
	return t, nil
}

func (m tasksModel) view() string {
	w := m.width - 4
	if m.formActive && m.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Task"), "", m.form.View())
		return activePanelStyle.Width(w).Render(content)
	}

	sprintTab := inactiveTabStyle.Render("Sprint " + m.sprintID)
	backlogTab := inactiveTabStyle.Render("Backlog")
	if m.mode == listSprint {
		sprintTab = activeTabStyle.Render("Sprint " + m.sprintID)
	} else {
		backlogTab = activeTabStyle.Render("Backlog")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Tasks"), "  ", sprintTab, backlogTab)

	if len(m.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			mutedStyle.Render("No open tasks here. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{header, ""}
	total := 0
	for i, t := range m.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := " "
		switch {
		case t.IsTemplate():
			mark = "↻"
		case t.Skip.Hidden():
			mark = "⏸"
		case t.Skip != nil:
			mark = "↓"
		}
		total += t.Points()
		row := style.Render(fmt.Sprintf("%s%s %-36s %6s", cursor, mark, truncate(t.Title, 36), formatPoints(t.Points())))
		rows = append(rows, row+"  "+effortLine(t, m.tags))
	}
	rows = append(rows, "", mutedStyle.Render(fmt.Sprintf("  %d task(s), %s", len(m.tasks), formatPoints(total))))
	rows = append(rows, mutedStyle.Render("  n: new  m: sprint/backlog  c: complete  d: cancel  z: skip  ←/→: switch list"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
