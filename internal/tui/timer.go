package tui

import (
	"time"

	"github.com/aanduque/checkmate/internal/app"
	"github.com/aanduque/checkmate/internal/task"
)

// timerModel mirrors the one focus session that may run at a time. The
// session itself lives in the store; the timer only tracks what to display.
type timerModel struct {
	svc *app.Service

	taskID    string
	taskTitle string
	sessionID string
	startedAt time.Time
	elapsed   time.Duration
}

func newTimerModel(svc *app.Service) timerModel {
	return timerModel{svc: svc}
}

// sync adopts the running session from the store, e.g. one started from the
// command line before the dashboard opened.
func (t *timerModel) sync() error {
	tk, sess, err := t.svc.RunningSession()
	if err != nil {
		return err
	}
	if tk == nil {
		t.reset()
		return nil
	}
	t.adopt(tk, sess)
	return nil
}

func (t *timerModel) adopt(tk *task.Task, sess task.Session) {
	t.taskID = tk.ID
	t.taskTitle = tk.Title
	t.sessionID = sess.ID
	t.startedAt = sess.StartedAt
	t.tick()
}

func (t *timerModel) reset() {
	t.taskID, t.taskTitle, t.sessionID = "", "", ""
	t.startedAt = time.Time{}
	t.elapsed = 0
}

func (t *timerModel) start(tk *task.Task) (task.Session, error) {
	sess, err := t.svc.StartSession(tk.ID)
	if err != nil {
		return task.Session{}, err
	}
	t.adopt(tk, sess)
	return sess, nil
}

// stop completes the running session. It returns nil when nothing runs.
func (t *timerModel) stop(rating task.Rating) (*task.Task, error) {
	if !t.running() {
		return nil, nil
	}
	tk, err := t.svc.CompleteSession(t.taskID, t.sessionID, rating, "")
	if err != nil {
		return nil, err
	}
	t.reset()
	return tk, nil
}

func (t *timerModel) abandon() (*task.Task, error) {
	if !t.running() {
		return nil, nil
	}
	tk, err := t.svc.AbandonSession(t.taskID, t.sessionID)
	if err != nil {
		return nil, err
	}
	t.reset()
	return tk, nil
}

func (t *timerModel) tick() {
	if t.running() {
		t.elapsed = t.svc.Now().Sub(t.startedAt)
	}
}

func (t timerModel) running() bool {
	return t.sessionID != ""
}

func (t timerModel) currentElapsed() time.Duration {
	if !t.running() {
		return 0
	}
	return t.elapsed
}
