package app

import (
	"strings"

	"calendar-booking/internal/booking"
	"calendar-booking/internal/calendar"
)

// ValidationError marks malformed request input.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type availabilityRuleDTO struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type setAvailabilityReq struct {
	AvailabilityRules []availabilityRuleDTO `json:"availability_rules" binding:"required,dive"`
}

type searchSlotsReq struct {
	Owner       string `json:"owner" form:"owner" binding:"required"`
	RequestDate string `json:"request_date" form:"request_date" binding:"required"`
}

type bookSlotReq struct {
	Owner     string `json:"owner" binding:"required"`
	Invitee   string `json:"invitee" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type appointmentDTO struct {
	ID        string `json:"id"`
	Invitee   string `json:"invitee"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func ruleToDTO(r calendar.AvailabilityRule) availabilityRuleDTO {
	return availabilityRuleDTO{
		StartDate: calendar.FormatDate(r.StartDate),
		EndDate:   calendar.FormatDate(r.EndDate),
		StartTime: r.StartTime.String(),
		EndTime:   r.EndTime.String(),
	}
}

func rulesToDTO(rules []calendar.AvailabilityRule) []availabilityRuleDTO {
	out := make([]availabilityRuleDTO, 0, len(rules))
	for _, r := range rules {
		out = append(out, ruleToDTO(r))
	}
	return out
}

func appointmentToDTO(a calendar.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:        a.ID.String(),
		Invitee:   a.Invitee,
		StartTime: calendar.FormatDateTime(a.StartTime),
		EndTime:   calendar.FormatDateTime(a.EndTime),
	}
}

func (r availabilityRuleDTO) toRule() (calendar.AvailabilityRule, error) {
	startDate, err := calendar.ParseDate(r.StartDate)
	if err != nil {
		return calendar.AvailabilityRule{}, validationError(err.Error())
	}
	endDate, err := calendar.ParseDate(r.EndDate)
	if err != nil {
		return calendar.AvailabilityRule{}, validationError(err.Error())
	}
	startTime, err := calendar.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return calendar.AvailabilityRule{}, validationError(err.Error())
	}
	endTime, err := calendar.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return calendar.AvailabilityRule{}, validationError(err.Error())
	}
	if endDate.Before(startDate) {
		return calendar.AvailabilityRule{}, validationError("end_date must not be before start_date")
	}
	if !startTime.Before(endTime) {
		return calendar.AvailabilityRule{}, validationError("end_time must be after start_time")
	}
	return calendar.AvailabilityRule{
		StartDate: startDate,
		EndDate:   endDate,
		StartTime: startTime,
		EndTime:   endTime,
	}, nil
}

func (r setAvailabilityReq) toRules() ([]calendar.AvailabilityRule, error) {
	rules := make([]calendar.AvailabilityRule, 0, len(r.AvailabilityRules))
	for _, dto := range r.AvailabilityRules {
		rule, err := dto.toRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r searchSlotsReq) toRequest() (booking.SearchRequest, error) {
	owner := strings.TrimSpace(r.Owner)
	if owner == "" {
		return booking.SearchRequest{}, validationError("owner field is required")
	}
	date, err := calendar.ParseDate(r.RequestDate)
	if err != nil {
		return booking.SearchRequest{}, validationError(err.Error())
	}
	return booking.SearchRequest{Owner: owner, Date: date}, nil
}

func (r bookSlotReq) toRequest() (booking.BookRequest, error) {
	owner := strings.TrimSpace(r.Owner)
	invitee := strings.TrimSpace(r.Invitee)
	if owner == "" || invitee == "" {
		return booking.BookRequest{}, validationError("owner and invitee names cannot be empty")
	}
	start, err := calendar.ParseDateTime(r.StartTime)
	if err != nil {
		return booking.BookRequest{}, validationError(err.Error())
	}
	end, err := calendar.ParseDateTime(r.EndTime)
	if err != nil {
		return booking.BookRequest{}, validationError(err.Error())
	}
	if !start.Before(end) {
		return booking.BookRequest{}, validationError("start time must be before end time")
	}
	return booking.BookRequest{Owner: owner, Invitee: invitee, StartTime: start, EndTime: end}, nil
}
