package store

import (
	"errors"
	"fmt"

	"calendar-booking/internal/calendar"
)

var ErrNoCalendarFound = errors.New("no calendar found")

// OverlapError reports the first pair of conflicting availability rules found
// by SetAvailability. Existing is set when RuleB is already stored.
type OverlapError struct {
	RuleA    calendar.AvailabilityRule
	RuleB    calendar.AvailabilityRule
	Existing bool
}

func (e *OverlapError) Error() string {
	if e.Existing {
		return fmt.Sprintf("new availability rule (%s) overlaps with existing rule (%s)", e.RuleA, e.RuleB)
	}
	return fmt.Sprintf("overlapping rules in request: (%s) overlaps with (%s)", e.RuleA, e.RuleB)
}
