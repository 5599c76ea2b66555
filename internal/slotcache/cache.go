// Package slotcache stages the open slots produced by the last search for an
// (owner, date) pair. Bookings are validated against this cache only.
package slotcache

import (
	"context"
	"errors"

	"calendar-booking/internal/calendar"
)

var ErrCacheMiss = errors.New("no previous slot fetched")

type Cache interface {
	// Refresh replaces the entry for (owner, date). An empty slots list removes it.
	Refresh(ctx context.Context, owner, date string, slots []calendar.Slot) error
	// Lookup returns ErrCacheMiss when nothing was staged for (owner, date).
	Lookup(ctx context.Context, owner, date string) ([]calendar.Slot, error)
	// RemoveSlot drops the slot matching by exact start/end strings.
	RemoveSlot(ctx context.Context, owner, date string, slot calendar.Slot) error
}

func removeFirst(slots []calendar.Slot, slot calendar.Slot) []calendar.Slot {
	for i, s := range slots {
		if s == slot {
			out := make([]calendar.Slot, 0, len(slots)-1)
			out = append(out, slots[:i]...)
			return append(out, slots[i+1:]...)
		}
	}
	return slots
}
