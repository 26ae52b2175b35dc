package store

import (
	"database/sql"
	"fmt"

	"github.com/aanduque/checkmate/internal/tag"
)

// TagRepo persists effort categories.
type TagRepo struct {
	db *sql.DB
}

// Tags returns the tag repository.
func (s *Store) Tags() *TagRepo {
	return &TagRepo{db: s.db}
}

func (r *TagRepo) Save(t *tag.Tag) error {
	_, err := r.db.Exec(
		`INSERT INTO tags (id, name, color, capacity) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, color = excluded.color, capacity = excluded.capacity`,
		t.ID, t.Name, t.Color, t.Capacity,
	)
	if err != nil {
		return fmt.Errorf("upsert tag %s: %w", t.ID, err)
	}
	return nil
}

func (r *TagRepo) FindByID(id string) (*tag.Tag, error) {
	t := &tag.Tag{}
	err := r.db.QueryRow(
		`SELECT id, name, color, capacity FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Color, &t.Capacity)
	if err != nil {
		return nil, fmt.Errorf("get tag %s: %w", id, notFound(err))
	}
	return t, nil
}

// FindAll returns every tag ordered by name.
func (r *TagRepo) FindAll() ([]*tag.Tag, error) {
	rows, err := r.db.Query(`SELECT id, name, color, capacity FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []*tag.Tag
	for rows.Next() {
		t := &tag.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Capacity); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *TagRepo) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete tag %s: %w", id, err)
	}
	return nil
}
