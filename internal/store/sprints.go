package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aanduque/checkmate/internal/sprint"
)

// SprintRepo persists sprints and their capacity overrides. Sprint bounds
// are derived from the id in the store's location.
type SprintRepo struct {
	db  *sql.DB
	loc *time.Location
}

// Sprints returns the sprint repository.
func (s *Store) Sprints() *SprintRepo {
	return &SprintRepo{db: s.db, loc: s.loc}
}

func (r *SprintRepo) Save(sp *sprint.Sprint) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save sprint: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sprints (id, start_at, end_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET start_at = excluded.start_at, end_at = excluded.end_at`,
		sp.ID, formatTime(sp.Start), formatTime(sp.End),
	)
	if err != nil {
		return fmt.Errorf("upsert sprint %s: %w", sp.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM sprint_capacity WHERE sprint_id = ?`, sp.ID); err != nil {
		return fmt.Errorf("clear capacity for sprint %s: %w", sp.ID, err)
	}
	for tagID, points := range sp.Overrides {
		if _, err := tx.Exec(
			`INSERT INTO sprint_capacity (sprint_id, tag_id, points) VALUES (?, ?, ?)`,
			sp.ID, tagID, points,
		); err != nil {
			return fmt.Errorf("insert capacity %s for sprint %s: %w", tagID, sp.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sprint %s: %w", sp.ID, err)
	}
	return nil
}

func (r *SprintRepo) FindByID(id string) (*sprint.Sprint, error) {
	var exists int
	err := r.db.QueryRow(`SELECT 1 FROM sprints WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("get sprint %s: %w", id, notFound(err))
	}
	sp, err := sprint.ParseID(id, r.loc)
	if err != nil {
		return nil, fmt.Errorf("get sprint %s: %w", id, err)
	}
	if err := r.loadOverrides(sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// FindAll returns every stored sprint, oldest first.
func (r *SprintRepo) FindAll() ([]*sprint.Sprint, error) {
	rows, err := r.db.Query(`SELECT id FROM sprints ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	sprints := make([]*sprint.Sprint, 0, len(ids))
	for _, id := range ids {
		sp, err := sprint.ParseID(id, r.loc)
		if err != nil {
			return nil, fmt.Errorf("list sprints: %w", err)
		}
		if err := r.loadOverrides(sp); err != nil {
			return nil, err
		}
		sprints = append(sprints, sp)
	}
	return sprints, nil
}

func (r *SprintRepo) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM sprints WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete sprint %s: %w", id, err)
	}
	return nil
}

func (r *SprintRepo) loadOverrides(sp *sprint.Sprint) error {
	rows, err := r.db.Query(`SELECT tag_id, points FROM sprint_capacity WHERE sprint_id = ?`, sp.ID)
	if err != nil {
		return fmt.Errorf("list capacity for sprint %s: %w", sp.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tagID string
		var points int
		if err := rows.Scan(&tagID, &points); err != nil {
			return err
		}
		sp.Overrides[tagID] = points
	}
	return rows.Err()
}
