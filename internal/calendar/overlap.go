package calendar

import "time"

// RulesOverlap reports whether two rules conflict. Date ranges are compared
// inclusively, so touching dates intersect; time ranges are half-open, so a
// rule ending at 17:00 does not conflict with one starting at 17:00.
func RulesOverlap(a, b AvailabilityRule) bool {
	datesOverlap := !a.StartDate.After(b.EndDate) && !b.StartDate.After(a.EndDate)
	if !datesOverlap {
		return false
	}
	return a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
}

// SlotConflicts reports whether [start,end) intersects the appointment.
func SlotConflicts(start, end time.Time, appt Appointment) bool {
	return !(!end.After(appt.StartTime) || !start.Before(appt.EndTime))
}
