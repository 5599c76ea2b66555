package store

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"calendar-booking/internal/calendar"
)

// Confirmation is returned by SetAvailability with the owner's full rule set.
type Confirmation struct {
	Message string
	Rules   []calendar.AvailabilityRule
}

// Memory is the process-local calendar registry.
type Memory struct {
	calendars *xsync.MapOf[string, *calendar.Calendar]
	now       func() time.Time
	log       *slog.Logger
}

type Option func(*Memory)

// WithClock overrides the wall clock used by ListUpcoming.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

func NewMemory(log *slog.Logger, opts ...Option) *Memory {
	if log == nil {
		log = slog.Default()
	}
	m := &Memory{
		calendars: xsync.NewMapOf[string, *calendar.Calendar](),
		now:       time.Now,
		log:       log.With(slog.String("component", "store.memory")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the owner's calendar or ErrNoCalendarFound.
func (m *Memory) Get(owner string) (*calendar.Calendar, error) {
	cal, ok := m.calendars.Load(owner)
	if !ok {
		return nil, fmt.Errorf("%w for owner: %s", ErrNoCalendarFound, owner)
	}
	return cal, nil
}

// SetAvailability validates the proposed rules against the stored ones and
// against each other, then appends them all. Nothing is stored on conflict.
func (m *Memory) SetAvailability(owner string, rules []calendar.AvailabilityRule) (Confirmation, error) {
	cal, _ := m.calendars.LoadOrCompute(owner, func() *calendar.Calendar {
		return calendar.NewCalendar(owner)
	})

	cal.Lock()
	defer cal.Unlock()

	for i, proposed := range rules {
		for _, existing := range cal.Rules {
			if calendar.RulesOverlap(proposed, existing) {
				m.log.Info("availability rejected",
					slog.String("owner", owner),
					slog.String("rule", proposed.String()),
					slog.String("conflicts_with", existing.String()))
				return Confirmation{}, &OverlapError{RuleA: proposed, RuleB: existing, Existing: true}
			}
		}
		for j, other := range rules {
			if i == j {
				continue
			}
			if calendar.RulesOverlap(proposed, other) {
				m.log.Info("availability rejected",
					slog.String("owner", owner),
					slog.String("rule", proposed.String()),
					slog.String("conflicts_with", other.String()))
				return Confirmation{}, &OverlapError{RuleA: proposed, RuleB: other}
			}
		}
	}

	cal.Rules = append(cal.Rules, rules...)
	m.log.Debug("availability set", slog.String("owner", owner), slog.Int("rules", len(cal.Rules)))

	return Confirmation{
		Message: "Availability set for " + owner,
		Rules:   append([]calendar.AvailabilityRule(nil), cal.Rules...),
	}, nil
}

// Rules returns a copy of the owner's stored rules.
func (m *Memory) Rules(owner string) ([]calendar.AvailabilityRule, error) {
	cal, err := m.Get(owner)
	if err != nil {
		return nil, err
	}
	cal.Lock()
	defer cal.Unlock()
	return append([]calendar.AvailabilityRule(nil), cal.Rules...), nil
}

// AddAppointment files appt under its start date. It does not re-check for
// overlaps; callers must hold the calendar lock.
func AddAppointment(cal *calendar.Calendar, appt calendar.Appointment) bool {
	key := calendar.FormatDate(appt.StartTime)
	cal.Appointments[key] = append(cal.Appointments[key], appt)
	return true
}

// ListUpcoming returns the owner's appointments starting after now, sorted by
// start time. Unknown owners yield an empty list.
func (m *Memory) ListUpcoming(owner string) []calendar.Appointment {
	cal, ok := m.calendars.Load(owner)
	if !ok {
		return []calendar.Appointment{}
	}

	now := calendar.Naive(m.now())
	today := calendar.DateOf(now)

	cal.Lock()
	out := []calendar.Appointment{}
	for key, appts := range cal.Appointments {
		bucket, err := calendar.ParseDate(key)
		if err != nil || bucket.Before(today) {
			continue
		}
		for _, a := range appts {
			if a.StartTime.After(now) {
				out = append(out, a)
			}
		}
	}
	cal.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
