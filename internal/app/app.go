package app

import (
	"context"
	"log/slog"

	"calendar-booking/internal/booking"
	"calendar-booking/internal/calendar"
	"calendar-booking/internal/store"
)

type calendarStore interface {
	SetAvailability(owner string, rules []calendar.AvailabilityRule) (store.Confirmation, error)
	Rules(owner string) ([]calendar.AvailabilityRule, error)
	Get(owner string) (*calendar.Calendar, error)
	ListUpcoming(owner string) []calendar.Appointment
}

type bookingEngine interface {
	Search(ctx context.Context, req booking.SearchRequest) (booking.SearchResult, error)
	Book(ctx context.Context, req booking.BookRequest) (booking.BookResult, error)
}

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

type App struct {
	Calendars calendarStore
	Engine    bookingEngine
	Log       *slog.Logger
	Ready     []ReadyCheck
}

func New(cals calendarStore, engine bookingEngine, log *slog.Logger, ready ...ReadyCheck) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{
		Calendars: cals,
		Engine:    engine,
		Log:       log.With(slog.String("component", "http")),
		Ready:     ready,
	}
}
