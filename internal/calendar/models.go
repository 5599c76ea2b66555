package calendar

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type AvailabilityRule struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime TimeOfDay
	EndTime   TimeOfDay
}

func (r AvailabilityRule) String() string {
	return FormatDate(r.StartDate) + " to " + FormatDate(r.EndDate) + ", " +
		r.StartTime.String() + " - " + r.EndTime.String()
}

// Covers reports whether date falls inside the rule's inclusive date range.
func (r AvailabilityRule) Covers(date time.Time) bool {
	date = DateOf(date)
	return !date.Before(DateOf(r.StartDate)) && !date.After(DateOf(r.EndDate))
}

type Appointment struct {
	ID        uuid.UUID
	Invitee   string
	StartTime time.Time
	EndTime   time.Time
}

// Slot is a bookable window in canonical date-time form.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func NewSlot(start, end time.Time) Slot {
	return Slot{Start: FormatDateTime(start), End: FormatDateTime(end)}
}

// Calendar holds one owner's availability rules and appointments. Callers that
// share a Calendar between goroutines go through Lock/Unlock.
type Calendar struct {
	mu sync.Mutex

	Owner        string
	Rules        []AvailabilityRule
	Appointments map[string][]Appointment
}

func NewCalendar(owner string) *Calendar {
	return &Calendar{
		Owner:        owner,
		Appointments: make(map[string][]Appointment),
	}
}

func (c *Calendar) Lock()   { c.mu.Lock() }
func (c *Calendar) Unlock() { c.mu.Unlock() }

// AppointmentsOn returns the bucket for the given date.
func (c *Calendar) AppointmentsOn(date time.Time) []Appointment {
	return c.Appointments[FormatDate(date)]
}
