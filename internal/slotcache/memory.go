package slotcache

import (
	"context"
	"fmt"
	"sync"

	"calendar-booking/internal/calendar"
)

// Memory keeps entries for the life of the process.
type Memory struct {
	mu      sync.RWMutex
	byOwner map[string]map[string][]calendar.Slot
}

func NewMemory() *Memory {
	return &Memory{byOwner: make(map[string]map[string][]calendar.Slot)}
}

func (m *Memory) Refresh(_ context.Context, owner, date string, slots []calendar.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dates := m.byOwner[owner]
	if dates == nil {
		dates = make(map[string][]calendar.Slot)
		m.byOwner[owner] = dates
	}
	if len(slots) == 0 {
		delete(dates, date)
		return nil
	}
	dates[date] = append([]calendar.Slot(nil), slots...)
	return nil
}

func (m *Memory) Lookup(_ context.Context, owner, date string) ([]calendar.Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dates, ok := m.byOwner[owner]
	if !ok {
		return nil, fmt.Errorf("%w for owner: %s on date %s", ErrCacheMiss, owner, date)
	}
	slots, ok := dates[date]
	if !ok {
		return nil, fmt.Errorf("%w for owner: %s on date %s", ErrCacheMiss, owner, date)
	}
	return append([]calendar.Slot{}, slots...), nil
}

func (m *Memory) RemoveSlot(_ context.Context, owner, date string, slot calendar.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dates, ok := m.byOwner[owner]
	if !ok {
		return nil
	}
	if slots, ok := dates[date]; ok {
		dates[date] = removeFirst(slots, slot)
	}
	return nil
}
