// Package effort models point-based effort estimates.
//
// A task's effort is an Allocation: a mapping from category id to Points.
// Points are restricted to a Fibonacci-like scale so estimates stay coarse.
package effort

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Points is a single effort estimate on the allowed scale.
type Points int

// Scale lists the allowed point values in ascending order.
var Scale = []Points{1, 2, 3, 5, 8, 13, 21}

var (
	// ErrInvalidPoints is returned when a value is not on the allowed scale.
	ErrInvalidPoints = errors.New("points must be one of 1, 2, 3, 5, 8, 13, 21")

	// ErrEmptyAllocation is returned when an allocation has no categories.
	ErrEmptyAllocation = errors.New("effort allocation cannot be empty")

	// ErrEmptyCategory is returned when a category id is blank.
	ErrEmptyCategory = errors.New("category id cannot be empty")

	// ErrDuplicateCategory is returned when a category is estimated twice.
	ErrDuplicateCategory = errors.New("category listed more than once")
)

// NewPoints validates v against the allowed scale.
func NewPoints(v int) (Points, error) {
	p := Points(v)
	if !p.IsValid() {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPoints, v)
	}
	return p, nil
}

// IsValid reports whether p is on the allowed scale.
func (p Points) IsValid() bool {
	for _, s := range Scale {
		if p == s {
			return true
		}
	}
	return false
}

// Allocation maps category ids to points. The zero value is empty and
// therefore invalid for an active task; construct with NewAllocation.
type Allocation struct {
	points map[string]Points
}

// NewAllocation validates values and returns an allocation.
func NewAllocation(values map[string]int) (Allocation, error) {
	if len(values) == 0 {
		return Allocation{}, ErrEmptyAllocation
	}
	points := make(map[string]Points, len(values))
	for category, v := range values {
		if strings.TrimSpace(category) == "" {
			return Allocation{}, ErrEmptyCategory
		}
		p, err := NewPoints(v)
		if err != nil {
			return Allocation{}, fmt.Errorf("category %s: %w", category, err)
		}
		points[category] = p
	}
	return Allocation{points: points}, nil
}

// Single is shorthand for an allocation with one category.
func Single(category string, v int) (Allocation, error) {
	return NewAllocation(map[string]int{category: v})
}

// IsEmpty reports whether the allocation has no categories.
func (a Allocation) IsEmpty() bool {
	return len(a.points) == 0
}

// Total returns the sum of points across categories.
func (a Allocation) Total() int {
	total := 0
	for _, p := range a.points {
		total += int(p)
	}
	return total
}

// Get returns the points allocated to category, or 0.
func (a Allocation) Get(category string) Points {
	return a.points[category]
}

// Categories returns the category ids in sorted order.
func (a Allocation) Categories() []string {
	ids := make([]string, 0, len(a.points))
	for id := range a.points {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Map returns a copy of the allocation as plain integers.
func (a Allocation) Map() map[string]int {
	out := make(map[string]int, len(a.points))
	for id, p := range a.points {
		out[id] = int(p)
	}
	return out
}

// With returns a copy of a with category set to v.
func (a Allocation) With(category string, v int) (Allocation, error) {
	m := a.Map()
	m[category] = v
	return NewAllocation(m)
}

// Without returns a copy of a with category removed. Removing the last
// category is an error.
func (a Allocation) Without(category string) (Allocation, error) {
	m := a.Map()
	delete(m, category)
	return NewAllocation(m)
}

// Equal reports whether both allocations hold the same points.
func (a Allocation) Equal(b Allocation) bool {
	if len(a.points) != len(b.points) {
		return false
	}
	for id, p := range a.points {
		if b.points[id] != p {
			return false
		}
	}
	return true
}

func (a Allocation) String() string {
	var parts []string
	for _, id := range a.Categories() {
		parts = append(parts, fmt.Sprintf("%s:%d", id, a.points[id]))
	}
	return strings.Join(parts, ",")
}

// Parse reads the "category:points,category:points" form produced by String.
func Parse(s string) (Allocation, error) {
	values := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		category, raw, ok := strings.Cut(part, ":")
		if !ok {
			return Allocation{}, fmt.Errorf("parse effort %q: expected category:points", part)
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Allocation{}, fmt.Errorf("parse effort %q: %w", part, err)
		}
		category = strings.TrimSpace(category)
		if _, dup := values[category]; dup {
			return Allocation{}, fmt.Errorf("parse effort %q: %w", part, ErrDuplicateCategory)
		}
		values[category] = v
	}
	return NewAllocation(values)
}
