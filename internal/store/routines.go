package store

import (
	"database/sql"
	"fmt"

	"github.com/aanduque/checkmate/internal/routine"
)

// RoutineRepo persists routines.
type RoutineRepo struct {
	db *sql.DB
}

// Routines returns the routine repository.
func (s *Store) Routines() *RoutineRepo {
	return &RoutineRepo{db: s.db}
}

const routineColumns = `id, name, description, priority, activation, filter`

func (r *RoutineRepo) Save(rt *routine.Routine) error {
	_, err := r.db.Exec(
		`INSERT INTO routines (`+routineColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			priority = excluded.priority,
			activation = excluded.activation,
			filter = excluded.filter`,
		rt.ID, rt.Name, rt.Description, rt.Priority, rt.Activation, rt.Filter,
	)
	if err != nil {
		return fmt.Errorf("upsert routine %s: %w", rt.ID, err)
	}
	return nil
}

func (r *RoutineRepo) FindByID(id string) (*routine.Routine, error) {
	rt := &routine.Routine{}
	err := r.db.QueryRow(`SELECT `+routineColumns+` FROM routines WHERE id = ?`, id).
		Scan(&rt.ID, &rt.Name, &rt.Description, &rt.Priority, &rt.Activation, &rt.Filter)
	if err != nil {
		return nil, fmt.Errorf("get routine %s: %w", id, notFound(err))
	}
	return rt, nil
}

// FindAll returns routines by descending priority, then name.
func (r *RoutineRepo) FindAll() ([]*routine.Routine, error) {
	rows, err := r.db.Query(`SELECT ` + routineColumns + ` FROM routines ORDER BY priority DESC, name, id`)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	defer rows.Close()

	var routines []*routine.Routine
	for rows.Next() {
		rt := &routine.Routine{}
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.Description, &rt.Priority, &rt.Activation, &rt.Filter); err != nil {
			return nil, err
		}
		routines = append(routines, rt)
	}
	return routines, rows.Err()
}

func (r *RoutineRepo) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM routines WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete routine %s: %w", id, err)
	}
	return nil
}
