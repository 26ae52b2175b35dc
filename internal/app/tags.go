package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aanduque/checkmate/internal/effort"
	"github.com/aanduque/checkmate/internal/tag"
	"github.com/aanduque/checkmate/internal/task"
)

func (s *Service) CreateTag(name, color string, capacity int) (*tag.Tag, error) {
	t, err := tag.New(name, color, capacity)
	if err != nil {
		return nil, err
	}
	if err := s.tags.Save(t); err != nil {
		return nil, fmt.Errorf("save tag: %w", err)
	}
	return t, nil
}

func (s *Service) Tag(id string) (*tag.Tag, error) {
	return s.tags.FindByID(id)
}

func (s *Service) Tags() ([]*tag.Tag, error) {
	return s.tags.FindAll()
}

func (s *Service) RenameTag(id, name string) (*tag.Tag, error) {
	return s.updateTag(id, func(t *tag.Tag) error { return t.Rename(name) })
}

func (s *Service) SetTagCapacity(id string, capacity int) (*tag.Tag, error) {
	return s.updateTag(id, func(t *tag.Tag) error { return t.SetCapacity(capacity) })
}

func (s *Service) SetTagColor(id, color string) (*tag.Tag, error) {
	return s.updateTag(id, func(t *tag.Tag) error {
		if color == "" {
			color = tag.DefaultColor
		}
		t.Color = color
		return nil
	})
}

// DeleteTag removes a tag that no active task allocates effort to.
func (s *Service) DeleteTag(id string) error {
	unlock := s.locks.Lock("tag:" + id)
	defer unlock()

	t, err := s.tags.FindByID(id)
	if err != nil {
		return err
	}
	if err := t.CanDelete(); err != nil {
		return err
	}
	active, err := s.tasks.FindByStatus(task.StatusActive)
	if err != nil {
		return err
	}
	for _, tk := range active {
		if tk.Effort.Get(id) > 0 {
			return fmt.Errorf("%w: %q", ErrTagInUse, tk.Title)
		}
	}
	return s.tags.Delete(id)
}

// ResolveEffort parses "name:points,name:points" and maps each category to
// a tag, matching by id first and then by case-insensitive name.
func (s *Service) ResolveEffort(spec string) (effort.Allocation, error) {
	raw, err := effort.Parse(spec)
	if err != nil {
		return effort.Allocation{}, err
	}
	tags, err := s.tags.FindAll()
	if err != nil {
		return effort.Allocation{}, err
	}
	resolved := make(map[string]int)
	for _, cat := range raw.Categories() {
		t := lookupTag(tags, cat)
		if t == nil {
			return effort.Allocation{}, fmt.Errorf("%w: %q", ErrUnknownTag, cat)
		}
		if _, dup := resolved[t.ID]; dup {
			return effort.Allocation{}, fmt.Errorf("%w: %q", effort.ErrDuplicateCategory, t.Name)
		}
		resolved[t.ID] = int(raw.Get(cat))
	}
	return effort.NewAllocation(resolved)
}

// LookupTag finds a tag by id or case-insensitive name.
func (s *Service) LookupTag(ref string) (*tag.Tag, error) {
	tags, err := s.tags.FindAll()
	if err != nil {
		return nil, err
	}
	if t := lookupTag(tags, ref); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("tag %q: %w", ref, ErrNotFound)
}

func lookupTag(tags []*tag.Tag, ref string) *tag.Tag {
	for _, t := range tags {
		if t.ID == ref {
			return t
		}
	}
	for _, t := range tags {
		if strings.EqualFold(t.Name, ref) {
			return t
		}
	}
	return nil
}

func (s *Service) updateTag(id string, fn func(t *tag.Tag) error) (*tag.Tag, error) {
	unlock := s.locks.Lock("tag:" + id)
	defer unlock()

	t, err := s.tags.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := s.tags.Save(t); err != nil {
		return nil, fmt.Errorf("save tag %s: %w", id, err)
	}
	return t, nil
}

// tagNames maps tag ids to names for routine filters.
func (s *Service) tagNames() (map[string]string, error) {
	tags, err := s.tags.FindAll()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}
	return names, nil
}

func (s *Service) checkCategories(alloc effort.Allocation) error {
	for _, cat := range alloc.Categories() {
		if _, err := s.tags.FindByID(cat); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: %q", ErrUnknownTag, cat)
			}
			return err
		}
	}
	return nil
}
