package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aanduque/checkmate/internal/app"
	"github.com/aanduque/checkmate/internal/routine"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type routinesModel struct {
	svc    *app.Service
	width  int
	height int

	routines []*routine.Routine
	active   *routine.Routine
	manual   bool
	cursor   int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	formName       *string
	formPriority   *string
	formActivation *string
	formFilter     *string
}

func newRoutinesModel(svc *app.Service) routinesModel {
	name, prio, act, filter := "", "", "", ""
	return routinesModel{
		svc:            svc,
		formName:       &name,
		formPriority:   &prio,
		formActivation: &act,
		formFilter:     &filter,
	}
}

func (r *routinesModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type routinesDataMsg struct {
	routines []*routine.Routine
	active   *routine.Routine
	manual   bool
	err      error
}

func (r routinesModel) refresh() tea.Cmd {
	svc := r.svc
	return func() tea.Msg {
		routines, err := svc.Routines()
		if err != nil {
			return routinesDataMsg{err: err}
		}
		active, manual, err := svc.ActiveRoutine()
		if err != nil {
			return routinesDataMsg{err: err}
		}
		return routinesDataMsg{routines: routines, active: active, manual: manual}
	}
}

func (r routinesModel) update(msg tea.Msg) (routinesModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	switch msg := msg.(type) {
	case routinesDataMsg:
		if msg.err != nil {
			return r, func() tea.Msg { return errStatus(msg.err) }
		}
		r.routines = msg.routines
		r.active = msg.active
		r.manual = msg.manual
		if r.cursor >= len(r.routines) {
			r.cursor = max(0, len(r.routines)-1)
		}
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < len(r.routines)-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if len(r.routines) == 0 {
				return r, nil
			}
			sel := r.routines[r.cursor]
			if err := r.svc.SetRoutineOverride(sel.ID); err != nil {
				return r, func() tea.Msg { return errStatus(err) }
			}
			return r, tea.Batch(r.refresh(), func() tea.Msg {
				return statusMsg{text: "Using routine " + sel.Name}
			})
		case key.Matches(msg, keys.Auto):
			if err := r.svc.ClearRoutineOverride(); err != nil {
				return r, func() tea.Msg { return errStatus(err) }
			}
			return r, tea.Batch(r.refresh(), func() tea.Msg {
				return statusMsg{text: "Routines follow the clock"}
			})
		case key.Matches(msg, keys.Delete):
			if len(r.routines) == 0 {
				return r, nil
			}
			sel := r.routines[r.cursor]
			if err := r.svc.DeleteRoutine(sel.ID); err != nil {
				return r, func() tea.Msg { return errStatus(err) }
			}
			return r, r.refresh()
		case key.Matches(msg, keys.New):
			return r.showForm()
		}
	}
	return r, nil
}

func (r routinesModel) showForm() (routinesModel, tea.Cmd) {
	*r.formName = ""
	*r.formPriority = strconv.Itoa(routine.MinPriority)
	*r.formActivation = ""
	*r.formFilter = ""

	ev := r.svc.Evaluator()
	validExpr := func(scope routine.Scope) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return nil
			}
			return ev.Validate(scope, s)
		}
	}

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(r.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return routine.ErrEmptyName
					}
					return nil
				}),
			huh.NewInput().Title("Priority (1-10, higher wins)").Value(r.formPriority).
				Validate(func(s string) error {
					p, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("priority must be a number")
					}
					return routine.ValidatePriority(p)
				}),
		).Title("Routine"),
		huh.NewGroup(
			huh.NewInput().Title("Active when").
				Description("e.g. isWeekday && hour >= 9 && hour < 17").
				Value(r.formActivation).Validate(validExpr(routine.ActivationScope)),
			huh.NewInput().Title("Show tasks where").
				Description(`e.g. "work" in tags`).
				Value(r.formFilter).Validate(validExpr(routine.FilterScope)),
		).Title("Expressions"),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r routinesModel) updateForm(msg tea.Msg) (routinesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			r.formActive = false
			r.form = nil
			return r, nil
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted {
		r.formActive = false
		r.form = nil
		prio, _ := strconv.Atoi(strings.TrimSpace(*r.formPriority))
		created, err := r.svc.CreateRoutine(*r.formName, prio, *r.formActivation, *r.formFilter, "")
		if err != nil {
			return r, func() tea.Msg { return errStatus(err) }
		}
		return r, tea.Batch(r.refresh(), func() tea.Msg {
			return statusMsg{text: "Created routine " + created.Name}
		})
	}

	return r, cmd
}

func (r routinesModel) view() string {
	w := r.width - 4
	title := titleStyle.Render("Routines")

	if r.formActive && r.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Routine"), "", r.form.View()),
		)
	}

	state := mutedStyle.Render("no routine active")
	if r.active != nil {
		how := "by schedule"
		if r.manual {
			how = "pinned"
		}
		state = accentStyle.Render("◆ "+r.active.Name) + " " + mutedStyle.Render("("+how+")")
	}
	rows := []string{title + "  " + state, ""}

	if len(r.routines) == 0 {
		rows = append(rows, mutedStyle.Render("No routines yet. Press n to create one."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	for i, rt := range r.routines {
		cursor := "  "
		style := normalItemStyle
		if i == r.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := " "
		if r.active != nil && r.active.ID == rt.ID {
			mark = "◆"
		}
		label := lipgloss.NewStyle().Width(24).Render(rt.Name)
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %2d  %s", cursor, mark, rt.Priority, label))+
			mutedStyle.Render(" "+truncate(rt.Activation, max(w-40, 10))))
	}

	rows = append(rows, "", mutedStyle.Render("  enter: pin  u: follow clock  n: new  d: delete"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
