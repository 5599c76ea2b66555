package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"calendar-booking/internal/calendar"
	"calendar-booking/internal/slotcache"
	"calendar-booking/internal/store"
)

type SearchRequest struct {
	Owner string
	Date  time.Time
}

type SearchResult struct {
	AvailableSlots []calendar.Slot `json:"available_slots"`
}

type BookRequest struct {
	Owner     string
	Invitee   string
	StartTime time.Time
	EndTime   time.Time
}

type BookedAppointment struct {
	ID      string `json:"id"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Invitee string `json:"invitee"`
	Owner   string `json:"owner"`
}

type BookResult struct {
	Message     string            `json:"message"`
	Appointment BookedAppointment `json:"appointment"`
}

// SlotUnavailableError is returned when the requested slot is not among the
// slots staged by the last search.
type SlotUnavailableError struct {
	Slot calendar.Slot
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("requested time slot %s - %s is not available", e.Slot.Start, e.Slot.End)
}

type calendars interface {
	Get(owner string) (*calendar.Calendar, error)
}

// Engine runs search and book. Both hold an exclusive per-owner section, so a
// cache lookup, the appointment insert and the cache removal happen as one
// step for that owner.
type Engine struct {
	calendars calendars
	cache     slotcache.Cache
	locks     *xsync.MapOf[string, *sync.Mutex]
	log       *slog.Logger
}

func NewEngine(cals calendars, cache slotcache.Cache, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		calendars: cals,
		cache:     cache,
		locks:     xsync.NewMapOf[string, *sync.Mutex](),
		log:       log.With(slog.String("component", "booking.engine")),
	}
}

func (e *Engine) lock(owner string) func() {
	mu, _ := e.locks.LoadOrCompute(owner, func() *sync.Mutex { return &sync.Mutex{} })
	mu.Lock()
	return mu.Unlock
}

// Search regenerates the open slots for one date, stages them in the cache and
// returns what the cache now holds.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	unlock := e.lock(req.Owner)
	defer unlock()

	cal, err := e.calendars.Get(req.Owner)
	if err != nil {
		e.log.Info("search without calendar", slog.String("owner", req.Owner))
		return SearchResult{}, err
	}

	cal.Lock()
	slots := calendar.GenerateDailySlots(req.Date, cal)
	cal.Unlock()

	dateKey := calendar.FormatDate(req.Date)
	if err := e.cache.Refresh(ctx, req.Owner, dateKey, slots); err != nil {
		return SearchResult{}, fmt.Errorf("refresh slot cache: %w", err)
	}

	cached, err := e.cache.Lookup(ctx, req.Owner, dateKey)
	switch {
	case errors.Is(err, slotcache.ErrCacheMiss):
		// an empty search result is stored as absence
		cached = []calendar.Slot{}
	case err != nil:
		return SearchResult{}, err
	}

	e.log.Debug("slots searched",
		slog.String("owner", req.Owner),
		slog.String("date", dateKey),
		slog.Int("available", len(cached)))

	return SearchResult{AvailableSlots: cached}, nil
}

// Book converts a staged slot into an appointment and removes it from the cache.
func (e *Engine) Book(ctx context.Context, req BookRequest) (BookResult, error) {
	dateKey := calendar.FormatDate(req.StartTime)

	unlock := e.lock(req.Owner)
	defer unlock()

	cal, err := e.calendars.Get(req.Owner)
	if err != nil {
		return BookResult{}, err
	}

	staged, err := e.cache.Lookup(ctx, req.Owner, dateKey)
	if err != nil {
		return BookResult{}, err
	}

	requested := calendar.NewSlot(req.StartTime, req.EndTime)
	if !containsSlot(staged, requested) {
		e.log.Info("slot unavailable",
			slog.String("owner", req.Owner),
			slog.String("start", requested.Start),
			slog.String("end", requested.End))
		return BookResult{}, &SlotUnavailableError{Slot: requested}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return BookResult{}, err
	}
	appt := calendar.Appointment{
		ID:        id,
		Invitee:   req.Invitee,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	cal.Lock()
	store.AddAppointment(cal, appt)
	cal.Unlock()

	if err := e.cache.RemoveSlot(ctx, req.Owner, dateKey, requested); err != nil {
		// booking stands; the next search excludes the slot anyway
		e.log.Warn("slot cache removal failed",
			slog.String("owner", req.Owner),
			slog.String("start", requested.Start),
			slog.Any("err", err))
	}

	e.log.Info("appointment booked",
		slog.String("owner", req.Owner),
		slog.String("invitee", req.Invitee),
		slog.String("start", requested.Start),
		slog.String("appointment_id", id.String()))

	return BookResult{
		Message: "Appointment booked successfully",
		Appointment: BookedAppointment{
			ID:      id.String(),
			Start:   requested.Start,
			End:     requested.End,
			Invitee: req.Invitee,
			Owner:   req.Owner,
		},
	}, nil
}

func containsSlot(slots []calendar.Slot, want calendar.Slot) bool {
	for _, s := range slots {
		if s.Start == want.Start && s.End == want.End {
			return true
		}
	}
	return false
}
