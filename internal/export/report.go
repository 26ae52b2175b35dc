// Package export writes tasks, focus sessions and sprint health to CSV,
// JSON and YAML.
package export

import (
	"fmt"
	"time"

	"github.com/aanduque/checkmate/internal/sprint"
	"github.com/aanduque/checkmate/internal/tag"
	"github.com/aanduque/checkmate/internal/task"
)

// Report is the exported document.
type Report struct {
	ExportedAt string        `json:"exported_at" yaml:"exported_at"`
	Count      int           `json:"count" yaml:"count"`
	Tasks      []TaskRecord  `json:"tasks" yaml:"tasks"`
	Health     *HealthRecord `json:"health,omitempty" yaml:"health,omitempty"`
}

type TaskRecord struct {
	ID          string          `json:"id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string          `json:"status" yaml:"status"`
	Location    string          `json:"location" yaml:"location"`
	Points      int             `json:"points" yaml:"points"`
	Effort      map[string]int  `json:"effort" yaml:"effort"`
	FocusedSec  int64           `json:"focused_seconds" yaml:"focused_seconds"`
	Focused     string          `json:"focused" yaml:"focused"`
	CreatedAt   string          `json:"created_at" yaml:"created_at"`
	CompletedAt string          `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	CanceledAt  string          `json:"canceled_at,omitempty" yaml:"canceled_at,omitempty"`
	Skip        string          `json:"skip,omitempty" yaml:"skip,omitempty"`
	Recurrence  string          `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
	ParentID    string          `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Sessions    []SessionRecord `json:"sessions,omitempty" yaml:"sessions,omitempty"`
}

type SessionRecord struct {
	ID          string `json:"id" yaml:"id"`
	Status      string `json:"status" yaml:"status"`
	StartTime   string `json:"start_time" yaml:"start_time"`
	EndTime     string `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	DurationSec int64  `json:"duration_seconds" yaml:"duration_seconds"`
	Duration    string `json:"duration" yaml:"duration"`
	Rating      string `json:"rating,omitempty" yaml:"rating,omitempty"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

type HealthRecord struct {
	SprintID      string           `json:"sprint_id" yaml:"sprint_id"`
	Status        string           `json:"status" yaml:"status"`
	DaysRemaining int              `json:"days_remaining" yaml:"days_remaining"`
	Categories    []CategoryRecord `json:"categories" yaml:"categories"`
}

type CategoryRecord struct {
	Tag             string  `json:"tag" yaml:"tag"`
	Assigned        int     `json:"assigned" yaml:"assigned"`
	Capacity        int     `json:"capacity" yaml:"capacity"`
	NeededRate      float64 `json:"needed_per_day" yaml:"needed_per_day"`
	SustainableRate float64 `json:"sustainable_per_day" yaml:"sustainable_per_day"`
	Status          string  `json:"status" yaml:"status"`
}

// NewReport builds a report. Effort categories are keyed by tag name when
// the tag is known and by id otherwise. health may be nil. Timestamps are
// written in the location of now.
func NewReport(tasks []*task.Task, tags map[string]*tag.Tag, health *sprint.Health, now time.Time) Report {
	r := Report{
		ExportedAt: now.Format(time.RFC3339),
		Count:      len(tasks),
	}
	for _, t := range tasks {
		r.Tasks = append(r.Tasks, taskRecord(t, tags, now.Location()))
	}
	if health != nil {
		h := &HealthRecord{
			SprintID:      health.SprintID,
			Status:        string(health.Status),
			DaysRemaining: health.DaysRemaining,
		}
		for _, c := range health.Categories {
			h.Categories = append(h.Categories, CategoryRecord{
				Tag:             c.Name,
				Assigned:        c.Assigned,
				Capacity:        c.Capacity,
				NeededRate:      c.NeededRate,
				SustainableRate: c.SustainableRate,
				Status:          string(c.Status),
			})
		}
		r.Health = h
	}
	return r
}

func taskRecord(t *task.Task, tags map[string]*tag.Tag, loc *time.Location) TaskRecord {
	rec := TaskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Location:    t.Location.String(),
		Points:      t.Points(),
		Effort:      make(map[string]int),
		FocusedSec:  int64(t.FocusedTime().Seconds()),
		CreatedAt:   t.CreatedAt.In(loc).Format(time.RFC3339),
		CompletedAt: formatTimePtr(t.CompletedAt, loc),
		CanceledAt:  formatTimePtr(t.CanceledAt, loc),
		Recurrence:  t.Recurrence,
		ParentID:    t.ParentID,
	}
	rec.Focused = formatDuration(rec.FocusedSec)
	for _, id := range t.Effort.Categories() {
		rec.Effort[tagName(tags, id)] = int(t.Effort.Get(id))
	}
	if sk := t.Skip; sk != nil {
		rec.Skip = string(sk.Kind)
		if sk.JustReturned() {
			rec.Skip += " (returned)"
		}
	}
	for _, s := range t.Sessions {
		secs := int64(s.Duration().Seconds())
		rec.Sessions = append(rec.Sessions, SessionRecord{
			ID:          s.ID,
			Status:      string(s.Status),
			StartTime:   s.StartedAt.In(loc).Format(time.RFC3339),
			EndTime:     formatTimePtr(s.EndedAt, loc),
			DurationSec: secs,
			Duration:    formatDuration(secs),
			Rating:      string(s.Rating),
			Notes:       s.Notes,
		})
	}
	return rec
}

func tagName(tags map[string]*tag.Tag, id string) string {
	if t, ok := tags[id]; ok {
		return t.Name
	}
	return id
}

func formatTimePtr(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
