package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"calendar-booking/internal/calendar"
	"calendar-booking/internal/slotcache"
	"calendar-booking/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine() (*Engine, *store.Memory) {
	cals := store.NewMemory(testLogger())
	return NewEngine(cals, slotcache.NewMemory(), testLogger()), cals
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	return d
}

func mustDateTime(t *testing.T, s string) time.Time {
	t.Helper()
	dt, err := calendar.ParseDateTime(s)
	if err != nil {
		t.Fatalf("ParseDateTime error: %v", err)
	}
	return dt
}

func setAliceMorning(t *testing.T, cals *store.Memory) {
	t.Helper()
	_, err := cals.SetAvailability("alice", []calendar.AvailabilityRule{{
		StartDate: mustDate(t, "2024-01-15"),
		EndDate:   mustDate(t, "2024-01-15"),
		StartTime: calendar.TimeOfDay{Hour: 9},
		EndTime:   calendar.TimeOfDay{Hour: 11},
	}})
	if err != nil {
		t.Fatalf("SetAvailability error: %v", err)
	}
}

func bookReq(t *testing.T, invitee, start, end string) BookRequest {
	return BookRequest{
		Owner:     "alice",
		Invitee:   invitee,
		StartTime: mustDateTime(t, start),
		EndTime:   mustDateTime(t, end),
	}
}

func TestSearchThenBook_AliceBobScenario(t *testing.T) {
	ctx := context.Background()
	e, cals := newTestEngine()
	setAliceMorning(t, cals)

	res, err := e.Search(ctx, SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-15")})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	want := []calendar.Slot{
		{Start: "2024-01-15T09:00", End: "2024-01-15T10:00"},
		{Start: "2024-01-15T10:00", End: "2024-01-15T11:00"},
	}
	if !reflect.DeepEqual(res.AvailableSlots, want) {
		t.Fatalf("slots = %v, want %v", res.AvailableSlots, want)
	}

	booked, err := e.Book(ctx, bookReq(t, "bob", "2024-01-15T09:00", "2024-01-15T10:00"))
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if booked.Message != "Appointment booked successfully" {
		t.Fatalf("message = %q", booked.Message)
	}
	if booked.Appointment.Owner != "alice" || booked.Appointment.Invitee != "bob" {
		t.Fatalf("appointment = %+v", booked.Appointment)
	}
	if booked.Appointment.ID == "" {
		t.Fatalf("expected appointment id")
	}

	res, err = e.Search(ctx, SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-15")})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !reflect.DeepEqual(res.AvailableSlots, want[1:]) {
		t.Fatalf("slots after booking = %v, want %v", res.AvailableSlots, want[1:])
	}
}

func TestSearch_Idempotent(t *testing.T) {
	ctx := context.Background()
	e, cals := newTestEngine()
	setAliceMorning(t, cals)

	req := SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-15")}
	first, err := e.Search(ctx, req)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	second, err := e.Search(ctx, req)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("searches differ: %v vs %v", first, second)
	}
}

func TestSearch_NoSlotsReturnsEmptyAndClearsCache(t *testing.T) {
	ctx := context.Background()
	e, cals := newTestEngine()
	setAliceMorning(t, cals)

	res, err := e.Search(ctx, SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-16")})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if res.AvailableSlots == nil || len(res.AvailableSlots) != 0 {
		t.Fatalf("slots = %#v, want empty non-nil", res.AvailableSlots)
	}

	_, err = e.Book(ctx, bookReq(t, "bob", "2024-01-16T09:00", "2024-01-16T10:00"))
	if !errors.Is(err, slotcache.ErrCacheMiss) {
		t.Fatalf("Book error = %v, want ErrCacheMiss", err)
	}
}

func TestSearch_EmptyCalendarIsNotMissing(t *testing.T) {
	ctx := context.Background()
	e, cals := newTestEngine()
	if _, err := cals.SetAvailability("alice", nil); err != nil {
		t.Fatalf("SetAvailability error: %v", err)
	}

	res, err := e.Search(ctx, SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-15")})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(res.AvailableSlots) != 0 {
		t.Fatalf("slots = %v, want none", res.AvailableSlots)
	}
}

func TestSearchAndBook_NoCalendar(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine()

	_, err := e.Search(ctx, SearchRequest{Owner: "ghost", Date: mustDate(t, "2024-01-15")})
	if !errors.Is(err, store.ErrNoCalendarFound) {
		t.Fatalf("Search error = %v, want ErrNoCalendarFound", err)
	}

	_, err = e.Book(ctx, BookRequest{
		Owner:     "ghost",
		Invitee:   "bob",
		StartTime: mustDateTime(t, "2024-01-15T09:00"),
		EndTime:   mustDateTime(t, "2024-01-15T10:00"),
	})
	if !errors.Is(err, store.ErrNoCalendarFound) {
		t.Fatalf("Book error = %v, want ErrNoCalendarFound", err)
	}
}

func TestBook_WithoutSearchIsCacheMiss(t *testing.T) {
	e, cals := newTestEngine()
	setAliceMorning(t, cals)

	_, err := e.Book(context.Background(), bookReq(t, "bob", "2024-01-15T09:00", "2024-01-15T10:00"))
	if !errors.Is(err, slotcache.ErrCacheMiss) {
		t.Fatalf("Book error = %v, want ErrCacheMiss", err)
	}
}

func TestBook_TwiceFailsWithSlotUnavailable(t *testing.T) {
	ctx := context.Background()
	e, cals := newTestEngine()
	setAliceMorning(t, cals)

	if _, err := e.Search(ctx, SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-15")}); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	req := bookReq(t, "bob", "2024-01-15T10:00", "2024-01-15T11:00")
	if _, err := e.Book(ctx, req); err != nil {
		t.Fatalf("Book error: %v", err)
	}
	_, err := e.Book(ctx, req)
	var sErr *SlotUnavailableError
	if !errors.As(err, &sErr) {
		t.Fatalf("error type = %T, want *SlotUnavailableError", err)
	}
	if sErr.Slot.Start != "2024-01-15T10:00" {
		t.Fatalf("slot = %+v", sErr.Slot)
	}
}

func TestBook_DrainedEntryStaysUnavailable(t *testing.T) {
	ctx := context.Background()
	e, cals := newTestEngine()
	setAliceMorning(t, cals)

	if _, err := e.Search(ctx, SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-15")}); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if _, err := e.Book(ctx, bookReq(t, "bob", "2024-01-15T09:00", "2024-01-15T10:00")); err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if _, err := e.Book(ctx, bookReq(t, "carol", "2024-01-15T10:00", "2024-01-15T11:00")); err != nil {
		t.Fatalf("Book error: %v", err)
	}

	_, err := e.Book(ctx, bookReq(t, "dave", "2024-01-15T10:00", "2024-01-15T11:00"))
	var sErr *SlotUnavailableError
	if !errors.As(err, &sErr) {
		t.Fatalf("error = %v, want *SlotUnavailableError", err)
	}

	// a fresh search with nothing left clears the entry
	if _, err := e.Search(ctx, SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-15")}); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	_, err = e.Book(ctx, bookReq(t, "dave", "2024-01-15T10:00", "2024-01-15T11:00"))
	if !errors.Is(err, slotcache.ErrCacheMiss) {
		t.Fatalf("error = %v, want ErrCacheMiss", err)
	}
}

func TestBook_SlotMustMatchExactly(t *testing.T) {
	ctx := context.Background()
	e, cals := newTestEngine()
	setAliceMorning(t, cals)

	if _, err := e.Search(ctx, SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-15")}); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	_, err := e.Book(ctx, bookReq(t, "bob", "2024-01-15T09:30", "2024-01-15T10:30"))
	var sErr *SlotUnavailableError
	if !errors.As(err, &sErr) {
		t.Fatalf("error = %v, want *SlotUnavailableError", err)
	}
}

func TestBook_ConcurrentRequestsBookOnce(t *testing.T) {
	ctx := context.Background()
	e, cals := newTestEngine()
	setAliceMorning(t, cals)

	if _, err := e.Search(ctx, SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-15")}); err != nil {
		t.Fatalf("Search error: %v", err)
	}

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	req := bookReq(t, "bob", "2024-01-15T09:00", "2024-01-15T10:00")
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Book(ctx, req); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("successful bookings = %d, want 1", successes)
	}
	cal, err := cals.Get("alice")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got := len(cal.Appointments["2024-01-15"]); got != 1 {
		t.Fatalf("stored appointments = %d, want 1", got)
	}
}

type fakeCache struct {
	refreshFn func(ctx context.Context, owner, date string, slots []calendar.Slot) error
	lookupFn  func(ctx context.Context, owner, date string) ([]calendar.Slot, error)
	removeFn  func(ctx context.Context, owner, date string, slot calendar.Slot) error
}

func (f *fakeCache) Refresh(ctx context.Context, owner, date string, slots []calendar.Slot) error {
	if f.refreshFn == nil {
		panic("Refresh not configured")
	}
	return f.refreshFn(ctx, owner, date, slots)
}

func (f *fakeCache) Lookup(ctx context.Context, owner, date string) ([]calendar.Slot, error) {
	if f.lookupFn == nil {
		panic("Lookup not configured")
	}
	return f.lookupFn(ctx, owner, date)
}

func (f *fakeCache) RemoveSlot(ctx context.Context, owner, date string, slot calendar.Slot) error {
	if f.removeFn == nil {
		panic("RemoveSlot not configured")
	}
	return f.removeFn(ctx, owner, date, slot)
}

func TestSearch_PropagatesCacheFailure(t *testing.T) {
	cals := store.NewMemory(testLogger())
	setAliceMorning(t, cals)

	boom := errors.New("cache down")
	e := NewEngine(cals, &fakeCache{
		refreshFn: func(ctx context.Context, owner, date string, slots []calendar.Slot) error {
			return boom
		},
	}, testLogger())

	_, err := e.Search(context.Background(), SearchRequest{Owner: "alice", Date: mustDate(t, "2024-01-15")})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestBook_RemovalFailureKeepsBooking(t *testing.T) {
	cals := store.NewMemory(testLogger())
	setAliceMorning(t, cals)

	slot := calendar.Slot{Start: "2024-01-15T09:00", End: "2024-01-15T10:00"}
	var removed calendar.Slot
	e := NewEngine(cals, &fakeCache{
		lookupFn: func(ctx context.Context, owner, date string) ([]calendar.Slot, error) {
			if owner != "alice" || date != "2024-01-15" {
				t.Fatalf("lookup key = %s/%s", owner, date)
			}
			return []calendar.Slot{slot}, nil
		},
		removeFn: func(ctx context.Context, owner, date string, s calendar.Slot) error {
			removed = s
			return errors.New("cache down")
		},
	}, testLogger())

	if _, err := e.Book(context.Background(), bookReq(t, "bob", slot.Start, slot.End)); err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if removed != slot {
		t.Fatalf("removed = %+v, want %+v", removed, slot)
	}
}
