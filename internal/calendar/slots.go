package calendar

import "time"

const SlotLength = time.Hour

// GenerateDailySlots expands the calendar's rules into one-hour slots on date,
// skipping slots that conflict with appointments already booked that day.
// Slots are emitted rule by rule in storage order; within a rule they are
// chronological. Callers must hold the calendar lock.
func GenerateDailySlots(date time.Time, cal *Calendar) []Slot {
	date = DateOf(date)
	booked := cal.AppointmentsOn(date)

	var slots []Slot
	for _, r := range cal.Rules {
		if !r.Covers(date) {
			continue
		}
		start := r.StartTime.On(date)
		end := r.EndTime.On(date)

		// chunk into slots
		for s := start; !s.Add(SlotLength).After(end); s = s.Add(SlotLength) {
			slotEnd := s.Add(SlotLength)
			if conflictsAny(s, slotEnd, booked) {
				continue
			}
			slots = append(slots, NewSlot(s, slotEnd))
		}
	}
	return slots
}

func conflictsAny(start, end time.Time, booked []Appointment) bool {
	for _, a := range booked {
		if SlotConflicts(start, end, a) {
			return true
		}
	}
	return false
}
