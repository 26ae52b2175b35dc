package routine

import (
	"fmt"
	"time"
)

// Context is the time-derived record activation expressions see.
type Context struct {
	Now                  time.Time
	DayOfWeek            int // 0 = Sunday
	Hour                 int
	Minute               int
	IsWeekday            bool
	IsWeekend            bool
	MinutesSinceMidnight int
}

// NewContext decomposes now in its own location.
func NewContext(now time.Time) Context {
	wd := now.Weekday()
	weekend := wd == time.Saturday || wd == time.Sunday
	return Context{
		Now:                  now,
		DayOfWeek:            int(wd),
		Hour:                 now.Hour(),
		Minute:               now.Minute(),
		IsWeekday:            !weekend,
		IsWeekend:            weekend,
		MinutesSinceMidnight: now.Hour()*60 + now.Minute(),
	}
}

// Env returns the variables available to activation expressions.
func (c Context) Env() map[string]any {
	return map[string]any{
		"dayOfWeek":            c.DayOfWeek,
		"hour":                 c.Hour,
		"minute":               c.Minute,
		"isWeekday":            c.IsWeekday,
		"isWeekend":            c.IsWeekend,
		"minutesSinceMidnight": c.MinutesSinceMidnight,
		"time":                 fmt.Sprintf("%02d:%02d", c.Hour, c.Minute),
	}
}
