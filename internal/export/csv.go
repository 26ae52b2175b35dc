package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteCSV writes one row per task.
func WriteCSV(out io.Writer, r Report) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"ID", "Title", "Status", "Location", "Points", "Effort", "Focused (s)", "Focused", "Created", "Completed", "Skip"}); err != nil {
		return err
	}

	for _, t := range r.Tasks {
		row := []string{
			t.ID,
			t.Title,
			t.Status,
			t.Location,
			fmt.Sprintf("%d", t.Points),
			effortString(t.Effort),
			fmt.Sprintf("%d", t.FocusedSec),
			t.Focused,
			t.CreatedAt,
			t.CompletedAt,
			t.Skip,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteSessionsCSV writes one row per focus session.
func WriteSessionsCSV(out io.Writer, r Report) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"ID", "Task", "Status", "Start", "End", "Duration (s)", "Duration", "Rating", "Notes"}); err != nil {
		return err
	}

	for _, t := range r.Tasks {
		for _, s := range t.Sessions {
			row := []string{
				s.ID,
				t.Title,
				s.Status,
				s.StartTime,
				s.EndTime,
				fmt.Sprintf("%d", s.DurationSec),
				s.Duration,
				s.Rating,
				s.Notes,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func effortString(effort map[string]int) string {
	names := make([]string, 0, len(effort))
	for name := range effort {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s:%d", name, effort[name])
	}
	return strings.Join(parts, ",")
}
