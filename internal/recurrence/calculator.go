// Package recurrence computes occurrences of recurring templates and
// materializes task instances for them.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrInvalidRule is returned when a recurrence rule cannot be parsed.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Calculator answers questions about opaque recurrence rules. The anchor is
// the instant a rule counts from when the rule does not carry its own start.
type Calculator interface {
	// Occurrences returns the dates of rule that fall within [start, end].
	Occurrences(rule string, anchor, start, end time.Time) ([]time.Time, error)
	// Next returns the first occurrence strictly after after.
	Next(rule string, anchor, after time.Time) (time.Time, bool, error)
	// Validate reports whether rule can be evaluated.
	Validate(rule string) error
}

// RRuleCalculator evaluates RFC 5545 RRULE strings such as
// "FREQ=WEEKLY;BYDAY=MO,WE". A rule may carry its own DTSTART line;
// otherwise it starts at the anchor it is evaluated with. Frequencies finer
// than daily are rejected since every occurrence becomes a task.
type RRuleCalculator struct{}

// NewRRuleCalculator returns a Calculator backed by rrule-go.
func NewRRuleCalculator() *RRuleCalculator {
	return &RRuleCalculator{}
}

func (RRuleCalculator) parse(rule string, anchor time.Time) (*rrule.RRule, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidRule)
	}
	opt, err := rrule.StrToROptionInLocation(rule, anchor.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if opt.Freq >= rrule.HOURLY {
		return nil, fmt.Errorf("%w: %s is finer than daily", ErrInvalidRule, opt.Freq)
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = anchor
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return r, nil
}

// Occurrences implements Calculator.
func (c RRuleCalculator) Occurrences(rule string, anchor, start, end time.Time) ([]time.Time, error) {
	if start.After(end) {
		return nil, nil
	}
	r, err := c.parse(rule, anchor)
	if err != nil {
		return nil, err
	}
	return r.Between(start, end, true), nil
}

// Next implements Calculator.
func (c RRuleCalculator) Next(rule string, anchor, after time.Time) (time.Time, bool, error) {
	r, err := c.parse(rule, anchor)
	if err != nil {
		return time.Time{}, false, err
	}
	next := r.After(after, false)
	if next.IsZero() {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// Validate implements Calculator.
func (c RRuleCalculator) Validate(rule string) error {
	_, err := c.parse(rule, time.Now())
	return err
}

// Anchor returns the instant a template's rule counts from: the start of the
// day it was created, in loc.
func Anchor(created time.Time, loc *time.Location) time.Time {
	t := created.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
