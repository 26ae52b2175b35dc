package sprint

import (
	"sort"
	"time"

	"github.com/aanduque/checkmate/internal/tag"
	"github.com/aanduque/checkmate/internal/task"
)

// Status classifies how realistic a sprint's load is.
type Status string

const (
	OnTrack  Status = "on_track"
	AtRisk   Status = "at_risk"
	OffTrack Status = "off_track"
)

func (s Status) severity() int {
	switch s {
	case AtRisk:
		return 1
	case OffTrack:
		return 2
	}
	return 0
}

// Worse returns the more severe of s and o.
func (s Status) Worse(o Status) Status {
	if o.severity() > s.severity() {
		return o
	}
	return s
}

// Thresholds on needed/sustainable burn rate, as fractions num/den.
const (
	offTrackNum, offTrackDen = 3, 2 // 1.5x
	atRiskNum, atRiskDen     = 6, 5 // 1.2x
)

// CategoryHealth is the load of one category.
type CategoryHealth struct {
	TagID           string
	Name            string
	Assigned        int
	Capacity        int
	NeededRate      float64 // points per day to finish on time
	SustainableRate float64 // capacity / 7
	Status          Status
}

// Health is the computed state of a sprint at an instant.
type Health struct {
	SprintID      string
	DaysRemaining int
	Status        Status
	Categories    []CategoryHealth
}

// Category returns the health of tagID.
func (h Health) Category(tagID string) (CategoryHealth, bool) {
	for _, c := range h.Categories {
		if c.TagID == tagID {
			return c, true
		}
	}
	return CategoryHealth{}, false
}

// Calculate computes sprint health. Only active tasks located in s count.
// Categories used by tasks but missing from tags are evaluated with zero
// capacity. The result depends on now and must not be stored.
func Calculate(s *Sprint, tasks []*task.Task, tags []*tag.Tag, now time.Time) Health {
	assigned := make(map[string]int)
	for _, t := range tasks {
		if !t.IsActive() || t.Location.SprintID != s.ID {
			continue
		}
		for _, id := range t.Effort.Categories() {
			assigned[id] += int(t.Effort.Get(id))
		}
	}

	known := make(map[string]*tag.Tag, len(tags))
	for _, tg := range tags {
		known[tg.ID] = tg
	}
	ids := make([]string, 0, len(known)+len(assigned))
	for id := range known {
		ids = append(ids, id)
	}
	for id := range assigned {
		if _, ok := known[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	days := s.DaysRemaining(now)
	h := Health{SprintID: s.ID, DaysRemaining: days, Status: OnTrack}
	for _, id := range ids {
		name, fallback := id, 0
		if tg, ok := known[id]; ok {
			name, fallback = tg.Name, tg.Capacity
		}
		c := CategoryHealth{
			TagID:    id,
			Name:     name,
			Assigned: assigned[id],
			Capacity: s.Capacity(id, fallback),
		}
		c.NeededRate = float64(c.Assigned) / float64(days)
		c.SustainableRate = float64(c.Capacity) / Length
		c.Status = classify(c.Assigned, c.Capacity, days)
		h.Status = h.Status.Worse(c.Status)
		h.Categories = append(h.Categories, c)
	}
	return h
}

// classify compares assigned/days against k*capacity/7 without rounding:
// assigned/days >= (num/den)*capacity/7  <=>  assigned*7*den >= num*capacity*days.
func classify(assigned, capacity, days int) Status {
	if assigned <= 0 {
		return OnTrack
	}
	switch {
	case assigned*Length*offTrackDen >= offTrackNum*capacity*days:
		return OffTrack
	case assigned*Length*atRiskDen >= atRiskNum*capacity*days:
		return AtRisk
	}
	return OnTrack
}
