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

type focusModel struct {
	svc    *app.Service
	timer  timerModel
	width  int
	height int

	upNextLimit int
	queue       app.FocusView
	tags        map[string]*tag.Tag
	loaded      bool

	formActive bool
	form       *huh.Form
	formType   string // "skip_day", "rating"
	formTaskID string

	// Form values as pointers (survive value copies)
	formReason *string
	formRating *string
}

func newFocusModel(svc *app.Service, upNextLimit int) focusModel {
	reason, rating := "", ""
	return focusModel{
		svc:         svc,
		timer:       newTimerModel(svc),
		upNextLimit: upNextLimit,
		tags:        map[string]*tag.Tag{},
		formReason:  &reason,
		formRating:  &rating,
	}
}

func (f focusModel) Init() tea.Cmd {
	return f.loadData()
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

func (f focusModel) isRunning() bool { return f.timer.running() }

type focusDataMsg struct {
	view    app.FocusView
	tags    map[string]*tag.Tag
	running *task.Task
	session task.Session
	err     error
}

func (f focusModel) loadData() tea.Cmd {
	svc := f.svc
	return func() tea.Msg {
		view, err := svc.Focus("", app.FocusOptions{})
		if err != nil {
			return focusDataMsg{err: err}
		}
		tags, err := tagIndex(svc)
		if err != nil {
			return focusDataMsg{err: err}
		}
		running, sess, err := svc.RunningSession()
		if err != nil {
			return focusDataMsg{err: err}
		}
		return focusDataMsg{view: view, tags: tags, running: running, session: sess}
	}
}

func tagIndex(svc *app.Service) (map[string]*tag.Tag, error) {
	tags, err := svc.Tags()
	if err != nil {
		return nil, err
	}
	idx := make(map[string]*tag.Tag, len(tags))
	for _, t := range tags {
		idx[t.ID] = t
	}
	return idx, nil
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	if f.formActive && f.form != nil {
		switch msg.(type) {
		case focusDataMsg, tickMsg:
		default:
			return f.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case focusDataMsg:
		if msg.err != nil {
			return f, func() tea.Msg { return errStatus(msg.err) }
		}
		f.queue = msg.view
		f.tags = msg.tags
		f.loaded = true
		if msg.running != nil {
			f.timer.adopt(msg.running, msg.session)
		} else {
			f.timer.reset()
		}
		var cmds []tea.Cmd
		for _, t := range msg.view.Returned {
			title := t.Title
			cmds = append(cmds, func() tea.Msg {
				return statusMsg{text: title + " is back from its day skip"}
			})
		}
		return f, tea.Batch(cmds...)

	case tickMsg:
		f.timer.tick()
		return f, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			return f.startSession()
		case key.Matches(msg, keys.Stop):
			if !f.timer.running() {
				return f, nil
			}
			return f.showRatingForm()
		case key.Matches(msg, keys.Abandon):
			return f.abandonSession()
		case key.Matches(msg, keys.Skip):
			return f.skipForNow()
		case key.Matches(msg, keys.SkipDay):
			if f.queue.Focus == nil {
				return f, nil
			}
			return f.showSkipForm(f.queue.Focus.ID)
		case key.Matches(msg, keys.Done):
			return f.completeFocus()
		}
	}
	return f, nil
}

func (f focusModel) startSession() (focusModel, tea.Cmd) {
	if f.timer.running() {
		return f, func() tea.Msg {
			return statusMsg{text: "A session is already running on " + f.timer.taskTitle, isError: true}
		}
	}
	if f.queue.Focus == nil {
		return f, func() tea.Msg {
			return statusMsg{text: "Nothing to focus on. Press 2 to plan tasks into this sprint.", isError: true}
		}
	}
	tk := f.queue.Focus
	sess, err := f.timer.start(tk)
	if err != nil {
		return f, func() tea.Msg { return errStatus(err) }
	}
	return f, func() tea.Msg { return sessionStartedMsg{task: tk, session: sess} }
}

func (f focusModel) stopSession(rating task.Rating) (focusModel, tea.Cmd) {
	tk, err := f.timer.stop(rating)
	if err != nil {
		return f, func() tea.Msg { return errStatus(err) }
	}
	if tk == nil {
		return f, nil
	}
	return f, tea.Batch(
		f.loadData(),
		func() tea.Msg { return sessionEndedMsg{task: tk} },
	)
}

func (f focusModel) abandonSession() (focusModel, tea.Cmd) {
	tk, err := f.timer.abandon()
	if err != nil {
		return f, func() tea.Msg { return errStatus(err) }
	}
	if tk == nil {
		return f, nil
	}
	return f, tea.Batch(
		f.loadData(),
		func() tea.Msg { return sessionEndedMsg{task: tk, abandoned: true} },
	)
}

func (f focusModel) skipForNow() (focusModel, tea.Cmd) {
	if f.queue.Focus == nil {
		return f, nil
	}
	tk, err := f.svc.SkipForNow(f.queue.Focus.ID)
	if err != nil {
		return f, func() tea.Msg { return errStatus(err) }
	}
	return f, tea.Batch(
		f.loadData(),
		func() tea.Msg { return taskChangedMsg{text: "Skipped " + tk.Title + " for now"} },
	)
}

func (f focusModel) completeFocus() (focusModel, tea.Cmd) {
	if f.queue.Focus == nil {
		return f, nil
	}
	tk, err := f.svc.Complete(f.queue.Focus.ID)
	if err != nil {
		return f, func() tea.Msg { return errStatus(err) }
	}
	if f.timer.taskID == tk.ID {
		f.timer.reset()
	}
	return f, tea.Batch(
		f.loadData(),
		func() tea.Msg { return taskChangedMsg{text: "Completed " + tk.Title} },
	)
}

func (f focusModel) showSkipForm(taskID string) (focusModel, tea.Cmd) {
	*f.formReason = ""
	f.formType = "skip_day"
	f.formTaskID = taskID

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Why skip this until tomorrow?").
				Value(f.formReason).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a reason is required")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	f.formActive = true
	return f, f.form.Init()
}

func (f focusModel) showRatingForm() (focusModel, tea.Cmd) {
	*f.formRating = string(task.RatingNone)
	f.formType = "rating"

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("How focused were you?").
				Options(
					huh.NewOption("Focused", string(task.RatingFocused)),
					huh.NewOption("Neutral", string(task.RatingNeutral)),
					huh.NewOption("Distracted", string(task.RatingDistracted)),
					huh.NewOption("No rating", string(task.RatingNone)),
				).Value(f.formRating),
		),
	).WithShowHelp(true).WithShowErrors(true)

	f.formActive = true
	return f, f.form.Init()
}

func (f focusModel) updateForm(msg tea.Msg) (focusModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			f.formActive = false
			f.form = nil
			return f, nil
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		f.formActive = false
		f.form = nil
		return f.submitForm()
	}
	return f, cmd
}

func (f focusModel) submitForm() (focusModel, tea.Cmd) {
	switch f.formType {
	case "skip_day":
		tk, err := f.svc.SkipForDay(f.formTaskID, *f.formReason)
		if err != nil {
			return f, func() tea.Msg { return errStatus(err) }
		}
		return f, tea.Batch(
			f.loadData(),
			func() tea.Msg { return taskChangedMsg{text: "Skipped " + tk.Title + " until tomorrow"} },
		)
	case "rating":
		return f.stopSession(task.Rating(*f.formRating))
	}
	return f, nil
}

func (f focusModel) view() string {
	if f.width < 20 {
		return "Terminal too small"
	}
	contentWidth := f.width - 4

	if f.formActive && f.form != nil {
		title := titleStyle.Render("Skip for today")
		if f.formType == "rating" {
			title = titleStyle.Render("Finish session")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", f.form.View())
		return activePanelStyle.Width(contentWidth).Render(content)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		f.renderTimerPanel(contentWidth),
		f.renderFocusPanel(contentWidth),
		f.renderUpNextPanel(contentWidth),
	)
}

func (f focusModel) renderTimerPanel(w int) string {
	if f.timer.running() {
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(f.timer.currentElapsed()))
		indicator := successStyle.Render("●  IN SESSION")
		taskLine := highlightStyle.Render(f.timer.taskTitle)
		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, taskLine)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  NO SESSION")
	hint := mutedStyle.Render("Press s to start a session on the focus task")
	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, hint)
	return panelStyle.Width(w).Render(content)
}

func (f focusModel) renderFocusPanel(w int) string {
	header := titleStyle.Render("Focus") + "  " + mutedStyle.Render("sprint "+f.queue.SprintID)
	if r := f.queue.Routine; r != nil {
		label := r.Name
		if f.queue.Manual {
			label += " (manual)"
		}
		header += "  " + accentStyle.Render("◆ "+label)
	}

	if !f.loaded {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, header, mutedStyle.Render("Loading...")))
	}
	if f.queue.Empty() {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("Nothing to focus on. Plan tasks into this sprint from the Tasks view."),
		))
	}

	t := f.queue.Focus
	title := focusTitleStyle.Render("▶ " + truncate(t.Title, w-10))
	details := mutedStyle.Render(fmt.Sprintf("%s · %s · focused %s",
		effortLine(t, f.tags), formatPoints(t.Points()), formatDuration(t.FocusedTime())))
	lines := []string{header, "", title, details}
	if t.Skip != nil && t.Skip.JustReturned() {
		lines = append(lines, warningStyle.Render("↩ back from yesterday's skip"))
	}
	if t.Description != "" {
		lines = append(lines, subtitleStyle.Render(truncate(t.Description, w-8)))
	}
	lines = append(lines, "", mutedStyle.Render("s: start  x: finish  z: skip  Z: skip today  c: complete"))
	return activePanelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func (f focusModel) renderUpNextPanel(w int) string {
	title := titleStyle.Render("Up Next")
	next := f.queue.UpNext
	if len(next) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("Queue is empty")))
	}

	limit := f.upNextLimit
	if limit <= 0 || limit > len(next) {
		limit = len(next)
	}
	rows := []string{title}
	for i, t := range next[:limit] {
		mark := fmt.Sprintf("%d.", i+1)
		style := normalItemStyle
		if t.Skip != nil {
			mark = "↓"
			style = mutedStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("  %-3s %-32s %s", mark, truncate(t.Title, 32), formatPoints(t.Points()))))
	}
	if more := len(next) - limit; more > 0 {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d more", more)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// effortLine renders an allocation as colored tag names with points.
func effortLine(t *task.Task, tags map[string]*tag.Tag) string {
	var parts []string
	for _, id := range t.Effort.Categories() {
		name, color := id, string(colorMuted)
		if tg, ok := tags[id]; ok {
			name, color = tg.Name, tg.Color
		}
		parts = append(parts, fmt.Sprintf("%s %s:%d", tagDot(color), name, t.Effort.Get(id)))
	}
	return strings.Join(parts, " ")
}
