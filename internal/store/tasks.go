package store

import (
	"database/sql"
	"fmt"

	"github.com/aanduque/checkmate/internal/effort"
	"github.com/aanduque/checkmate/internal/task"
)

// TaskRepo persists tasks with their effort, comments, sessions and sprint
// history.
type TaskRepo struct {
	db *sql.DB
}

// Tasks returns the task repository.
func (s *Store) Tasks() *TaskRepo {
	return &TaskRepo{db: s.db}
}

const taskColumns = `id, title, description, status, sprint_id, created_at, completed_at, canceled_at,
	recurrence, parent_id, sort_order, skip_kind, skipped_at, skip_return_at, skip_comment_id, skip_returned`

// Save inserts or replaces t and all of its children.
func (r *TaskRepo) Save(t *task.Task) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save task: %w", err)
	}
	defer tx.Rollback()

	var (
		skipKind, skipComment string
		skippedAt, returnAt   any
		skipReturned          bool
	)
	if sk := t.Skip; sk != nil {
		skipKind = string(sk.Kind)
		skippedAt = formatTime(sk.SkippedAt)
		if !sk.ReturnAt.IsZero() {
			returnAt = formatTime(sk.ReturnAt)
		}
		skipComment = sk.CommentID
		skipReturned = sk.Returned
	}

	_, err = tx.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			sprint_id = excluded.sprint_id,
			completed_at = excluded.completed_at,
			canceled_at = excluded.canceled_at,
			recurrence = excluded.recurrence,
			parent_id = excluded.parent_id,
			sort_order = excluded.sort_order,
			skip_kind = excluded.skip_kind,
			skipped_at = excluded.skipped_at,
			skip_return_at = excluded.skip_return_at,
			skip_comment_id = excluded.skip_comment_id,
			skip_returned = excluded.skip_returned`,
		t.ID, t.Title, t.Description, string(t.Status), t.Location.SprintID,
		formatTime(t.CreatedAt), formatTimePtr(t.CompletedAt), formatTimePtr(t.CanceledAt),
		t.Recurrence, t.ParentID, t.Order,
		skipKind, skippedAt, returnAt, skipComment, boolInt(skipReturned),
	)
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", t.ID, err)
	}

	for _, table := range []string{"task_effort", "task_sprint_history", "task_comments", "focus_sessions"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE task_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear %s for task %s: %w", table, t.ID, err)
		}
	}

	for _, cat := range t.Effort.Categories() {
		if _, err := tx.Exec(
			`INSERT INTO task_effort (task_id, category, points) VALUES (?, ?, ?)`,
			t.ID, cat, int(t.Effort.Get(cat)),
		); err != nil {
			return fmt.Errorf("insert effort %s for task %s: %w", cat, t.ID, err)
		}
	}
	for i, id := range t.SprintHistory {
		if _, err := tx.Exec(
			`INSERT INTO task_sprint_history (task_id, seq, sprint_id) VALUES (?, ?, ?)`,
			t.ID, i, id,
		); err != nil {
			return fmt.Errorf("insert sprint history for task %s: %w", t.ID, err)
		}
	}
	for i, c := range t.Comments {
		if _, err := tx.Exec(
			`INSERT INTO task_comments (id, task_id, seq, body, created_at, updated_at, skip_justification)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, t.ID, i, c.Text, formatTime(c.CreatedAt), formatTimePtr(c.UpdatedAt), boolInt(c.SkipJustification),
		); err != nil {
			return fmt.Errorf("insert comment %s: %w", c.ID, err)
		}
	}
	for i, sess := range t.Sessions {
		if _, err := tx.Exec(
			`INSERT INTO focus_sessions (id, task_id, seq, status, started_at, ended_at, rating, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, t.ID, i, string(sess.Status), formatTime(sess.StartedAt), formatTimePtr(sess.EndedAt),
			string(sess.Rating), sess.Notes,
		); err != nil {
			return fmt.Errorf("insert session %s: %w", sess.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task %s: %w", t.ID, err)
	}
	return nil
}

// FindByID returns the task with id, or ErrNotFound.
func (r *TaskRepo) FindByID(id string) (*task.Task, error) {
	tasks, err := r.find(`id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	return tasks[0], nil
}

// FindAll returns every task in display order.
func (r *TaskRepo) FindAll() ([]*task.Task, error) {
	return r.find(`1 = 1`)
}

// FindBySprint returns the tasks located in a sprint.
func (r *TaskRepo) FindBySprint(sprintID string) ([]*task.Task, error) {
	return r.find(`sprint_id = ?`, sprintID)
}

// FindBacklog returns the tasks in the backlog, templates included.
func (r *TaskRepo) FindBacklog() ([]*task.Task, error) {
	return r.find(`sprint_id = ''`)
}

// FindTemplates returns recurring templates.
func (r *TaskRepo) FindTemplates() ([]*task.Task, error) {
	return r.find(`recurrence <> ''`)
}

// FindInstances returns the instances spawned from parentID.
func (r *TaskRepo) FindInstances(parentID string) ([]*task.Task, error) {
	return r.find(`parent_id = ?`, parentID)
}

// FindByStatus returns the tasks with the given status.
func (r *TaskRepo) FindByStatus(status task.Status) ([]*task.Task, error) {
	return r.find(`status = ?`, string(status))
}

// Delete removes a task. Deleting a missing task is not an error.
func (r *TaskRepo) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// find loads the tasks matching where, then their children with one query
// per child table. Rows are fully read before the next query runs since the
// pool holds a single connection.
func (r *TaskRepo) find(where string, args ...any) ([]*task.Task, error) {
	rows, err := r.db.Query(
		`SELECT `+taskColumns+` FROM tasks WHERE `+where+` ORDER BY sort_order, created_at, id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var tasks []*task.Task
	byID := make(map[string]*task.Task)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		tasks = append(tasks, t)
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(tasks) == 0 {
		return nil, nil
	}

	scope := `task_id IN (SELECT id FROM tasks WHERE ` + where + `)`
	if err := r.loadEffort(scope, args, byID); err != nil {
		return nil, err
	}
	if err := r.loadHistory(scope, args, byID); err != nil {
		return nil, err
	}
	if err := r.loadComments(scope, args, byID); err != nil {
		return nil, err
	}
	if err := r.loadSessions(scope, args, byID); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanTask(rows *sql.Rows) (*task.Task, error) {
	var (
		t                           task.Task
		status, createdAt, skipKind string
		completedAt, canceledAt     sql.NullString
		skippedAt, returnAt         sql.NullString
		skipComment                 string
		skipReturned                int
	)
	if err := rows.Scan(
		&t.ID, &t.Title, &t.Description, &status, &t.Location.SprintID,
		&createdAt, &completedAt, &canceledAt,
		&t.Recurrence, &t.ParentID, &t.Order,
		&skipKind, &skippedAt, &returnAt, &skipComment, &skipReturned,
	); err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.Status = task.Status(status)
	t.CreatedAt = parseTime(createdAt)
	t.CompletedAt = parseTimePtr(completedAt)
	t.CanceledAt = parseTimePtr(canceledAt)
	if skipKind != "" {
		sk := &task.Skip{
			Kind:      task.SkipKind(skipKind),
			CommentID: skipComment,
			Returned:  skipReturned == 1,
		}
		if at := parseTimePtr(skippedAt); at != nil {
			sk.SkippedAt = *at
		}
		if at := parseTimePtr(returnAt); at != nil {
			sk.ReturnAt = *at
		}
		t.Skip = sk
	}
	return &t, nil
}

func (r *TaskRepo) loadEffort(scope string, args []any, byID map[string]*task.Task) error {
	rows, err := r.db.Query(`SELECT task_id, category, points FROM task_effort WHERE `+scope, args...)
	if err != nil {
		return fmt.Errorf("list effort: %w", err)
	}
	defer rows.Close()

	values := make(map[string]map[string]int)
	for rows.Next() {
		var id, cat string
		var points int
		if err := rows.Scan(&id, &cat, &points); err != nil {
			return fmt.Errorf("scan effort: %w", err)
		}
		if values[id] == nil {
			values[id] = make(map[string]int)
		}
		values[id][cat] = points
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for id, v := range values {
		t, ok := byID[id]
		if !ok {
			continue
		}
		alloc, err := effort.NewAllocation(v)
		if err != nil {
			return fmt.Errorf("decode effort for task %s: %w", id, err)
		}
		t.Effort = alloc
	}
	return nil
}

func (r *TaskRepo) loadHistory(scope string, args []any, byID map[string]*task.Task) error {
	rows, err := r.db.Query(
		`SELECT task_id, sprint_id FROM task_sprint_history WHERE `+scope+` ORDER BY task_id, seq`, args...,
	)
	if err != nil {
		return fmt.Errorf("list sprint history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, sprintID string
		if err := rows.Scan(&id, &sprintID); err != nil {
			return fmt.Errorf("scan sprint history: %w", err)
		}
		if t, ok := byID[id]; ok {
			t.SprintHistory = append(t.SprintHistory, sprintID)
		}
	}
	return rows.Err()
}

func (r *TaskRepo) loadComments(scope string, args []any, byID map[string]*task.Task) error {
	rows, err := r.db.Query(
		`SELECT id, task_id, body, created_at, updated_at, skip_justification
		 FROM task_comments WHERE `+scope+` ORDER BY task_id, seq`, args...,
	)
	if err != nil {
		return fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c               task.Comment
			taskID, created string
			updated         sql.NullString
			justification   int
		)
		if err := rows.Scan(&c.ID, &taskID, &c.Text, &created, &updated, &justification); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = parseTime(created)
		c.UpdatedAt = parseTimePtr(updated)
		c.SkipJustification = justification == 1
		if t, ok := byID[taskID]; ok {
			t.Comments = append(t.Comments, c)
		}
	}
	return rows.Err()
}

func (r *TaskRepo) loadSessions(scope string, args []any, byID map[string]*task.Task) error {
	rows, err := r.db.Query(
		`SELECT id, task_id, status, started_at, ended_at, rating, notes
		 FROM focus_sessions WHERE `+scope+` ORDER BY task_id, seq`, args...,
	)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sess                    task.Session
			taskID, status, started string
			rating                  string
			ended                   sql.NullString
		)
		if err := rows.Scan(&sess.ID, &taskID, &status, &started, &ended, &rating, &sess.Notes); err != nil {
			return fmt.Errorf("scan session: %w", err)
		}
		sess.Status = task.SessionStatus(status)
		sess.StartedAt = parseTime(started)
		sess.EndedAt = parseTimePtr(ended)
		sess.Rating = task.Rating(rating)
		if t, ok := byID[taskID]; ok {
			t.Sessions = append(t.Sessions, sess)
		}
	}
	return rows.Err()
}
