// Package tag defines effort categories.
package tag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UntaggedID is the id of the protected catch-all category.
const UntaggedID = "untagged"

// DefaultColor is used when a tag is created without a color.
const DefaultColor = "#6C63FF"

var (
	// ErrEmptyName is returned when a tag name is blank.
	ErrEmptyName = errors.New("tag name cannot be empty")

	// ErrInvalidCapacity is returned when a capacity is not positive.
	ErrInvalidCapacity = errors.New("capacity must be positive")

	// ErrProtected is returned when renaming or deleting the untagged category.
	ErrProtected = errors.New("the untagged category cannot be changed or deleted")
)

// Tag is a named, colored effort category with a weekly point capacity.
type Tag struct {
	ID       string
	Name     string
	Color    string
	Capacity int // default weekly points
}

// New validates and creates a tag.
func New(name, color string, capacity int) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if color == "" {
		color = DefaultColor
	}
	return &Tag{ID: uuid.NewString(), Name: name, Color: color, Capacity: capacity}, nil
}

// Untagged returns the protected category with the given capacity.
func Untagged(capacity int) *Tag {
	return &Tag{ID: UntaggedID, Name: "Untagged", Color: "#666666", Capacity: capacity}
}

// IsProtected reports whether the tag is the untagged category.
func (t *Tag) IsProtected() bool { return t.ID == UntaggedID }

// Rename changes the tag name.
func (t *Tag) Rename(name string) error {
	if t.IsProtected() {
		return ErrProtected
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	t.Name = name
	return nil
}

// SetCapacity changes the default weekly capacity.
func (t *Tag) SetCapacity(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	t.Capacity = capacity
	return nil
}

// CanDelete reports an error if the tag may not be deleted.
func (t *Tag) CanDelete() error {
	if t.IsProtected() {
		return ErrProtected
	}
	return nil
}
