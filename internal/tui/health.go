package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/aanduque/checkmate/internal/app"
	"github.com/aanduque/checkmate/internal/sprint"
	"github.com/aanduque/checkmate/internal/tag"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type healthModel struct {
	svc    *app.Service
	width  int
	height int

	offset int // sprints relative to the current one
	health sprint.Health
	tags   map[string]*tag.Tag
	loaded bool

	chart barchart.Model
}

func newHealthModel(svc *app.Service) healthModel {
	return healthModel{
		svc:   svc,
		tags:  map[string]*tag.Tag{},
		chart: barchart.New(60, 12),
	}
}

func (h *healthModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
}

type healthDataMsg struct {
	health sprint.Health
	tags   map[string]*tag.Tag
	err    error
}

func (h healthModel) sprintID() string {
	return sprint.ForDate(h.svc.Now().AddDate(0, 0, sprint.Length*h.offset)).ID
}

func (h healthModel) refresh() tea.Cmd {
	svc, id := h.svc, h.sprintID()
	return func() tea.Msg {
		hl, err := svc.SprintHealth(id)
		if err != nil {
			return healthDataMsg{err: err}
		}
		tags, err := tagIndex(svc)
		if err != nil {
			return healthDataMsg{err: err}
		}
		return healthDataMsg{health: hl, tags: tags}
	}
}

func (h healthModel) update(msg tea.Msg) (healthModel, tea.Cmd) {
	switch msg := msg.(type) {
	case healthDataMsg:
		if msg.err != nil {
			return h, func() tea.Msg { return errStatus(msg.err) }
		}
		h.health = msg.health
		h.tags = msg.tags
		h.loaded = true
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			h.offset--
			return h, h.refresh()
		case key.Matches(msg, keys.Right):
			h.offset++
			return h, h.refresh()
		case key.Matches(msg, keys.Back):
			if h.offset != 0 {
				h.offset = 0
				return h, h.refresh()
			}
		}
	}
	return h, nil
}

// buildChart draws one bar per category: points within capacity in the tag
// color, points over capacity in the error color.
func (h *healthModel) buildChart() {
	chartWidth := h.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if h.height > 30 {
		chartHeight = 16
	}

	h.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, c := range h.health.Categories {
		color := colorSubtle
		if t, ok := h.tags[c.TagID]; ok {
			color = lipgloss.Color(t.Color)
		}
		within := min(c.Assigned, c.Capacity)
		values := []barchart.BarValue{{
			Name:  c.Name,
			Value: float64(within),
			Style: lipgloss.NewStyle().Foreground(color),
		}}
		if over := c.Assigned - within; over > 0 {
			values = append(values, barchart.BarValue{
				Name:  c.Name + " over",
				Value: float64(over),
				Style: lipgloss.NewStyle().Foreground(colorError),
			})
		}
		bars = append(bars, barchart.BarData{
			Label:  truncate(c.Name, 8),
			Values: values,
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h healthModel) view() string {
	w := h.width - 4

	id := h.sprintID()
	label := "this sprint"
	switch {
	case h.offset < 0:
		label = fmt.Sprintf("%d sprint(s) ago", -h.offset)
	case h.offset > 0:
		label = fmt.Sprintf("in %d sprint(s)", h.offset)
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Sprint Health"), "  ",
		highlightStyle.Render(id), "  ",
		mutedStyle.Render(label),
	)

	if !h.loaded {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render("Loading...")))
	}

	status := healthStyle(h.health.Status).Render(strings.ToUpper(strings.ReplaceAll(string(h.health.Status), "_", " ")))
	summary := fmt.Sprintf("%s  %s", status, mutedStyle.Render(fmt.Sprintf("%d day(s) remaining", h.health.DaysRemaining)))

	nav := mutedStyle.Render("  ←/→: previous/next sprint  esc: this sprint")

	if len(h.health.Categories) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, summary, "", mutedStyle.Render("  No categories"), "", nav))
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, summary, "", h.chart.View(), "", h.renderTable(w), "", nav,
		),
	)
}

func (h healthModel) renderTable(w int) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-18s %8s %8s %9s %9s  %s",
		"Category", "Assigned", "Capacity", "Need/day", "Can/day", "Status")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 66))))

	for _, c := range h.health.Categories {
		color := colorSubtle
		if t, ok := h.tags[c.TagID]; ok {
			color = lipgloss.Color(t.Color)
		}
		rows = append(rows, fmt.Sprintf("  %s %-16s %8d %8d %9.2f %9.2f  %s",
			tagDot(string(color)), truncate(c.Name, 16), c.Assigned, c.Capacity,
			c.NeededRate, c.SustainableRate,
			healthStyle(c.Status).Render(string(c.Status)),
		))
	}
	return strings.Join(rows, "\n")
}
