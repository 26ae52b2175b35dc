package store

import (
	"errors"
	"fmt"
)

// GetSetting returns the value of key, or ErrNotFound.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, notFound(err))
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) DeleteSetting(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// RoutineOverrideKey names the manual routine override setting.
const RoutineOverrideKey = "routine_override"

// RoutineOverride returns the manually selected routine id, or "" when the
// active routine is determined automatically.
func (s *Store) RoutineOverride() (string, error) {
	v, err := s.GetSetting(RoutineOverrideKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetRoutineOverride stores id as the manual routine. An empty id clears it.
func (s *Store) SetRoutineOverride(id string) error {
	if id == "" {
		return s.DeleteSetting(RoutineOverrideKey)
	}
	return s.SetSetting(RoutineOverrideKey, id)
}
