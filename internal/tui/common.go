package tui

import (
	"fmt"
	"time"

	"github.com/aanduque/checkmate/internal/task"
)

// viewState represents the currently active view.
type viewState int

const (
	viewFocus viewState = iota
	viewTasks
	viewHealth
	viewRoutines
)

var viewNames = []string{"Focus", "Tasks", "Health", "Routines"}

// --- Messages ---

type sessionStartedMsg struct {
	task    *task.Task
	session task.Session
}

type sessionEndedMsg struct {
	task      *task.Task
	abandoned bool
}

type taskChangedMsg struct {
	text string
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

func errStatus(err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatPoints(p int) string {
	if p == 1 {
		return "1pt"
	}
	return fmt.Sprintf("%dpts", p)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
