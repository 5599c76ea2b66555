package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"calendar-booking/internal/booking"
	"calendar-booking/internal/slotcache"
	"calendar-booking/internal/store"
)

// POST /api/calendar/set_availability/:owner
// Accepts the full list of rules; all are stored or none.
func (a *App) SetAvailabilityHandler(c *gin.Context) {
	owner := strings.TrimSpace(c.Param("owner"))
	if owner == "" {
		a.writeError(c, validationError("owner field is required"))
		return
	}
	var payload setAvailabilityReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rules, err := payload.toRules()
	if err != nil {
		a.writeError(c, err)
		return
	}

	conf, err := a.Calendars.SetAvailability(owner, rules)
	if err != nil {
		a.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   conf.Message,
		"new_slots": rulesToDTO(conf.Rules),
	})
}

// GET /api/calendar/availability/:owner
func (a *App) ListAvailabilityHandler(c *gin.Context) {
	rules, err := a.Calendars.Rules(c.Param("owner"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability_rules": rulesToDTO(rules)})
}

// GET /api/calendar/appointments/list_upcoming?owner=
func (a *App) ListUpcomingHandler(c *gin.Context) {
	owner := strings.TrimSpace(c.Query("owner"))
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner parameter is required"})
		return
	}
	if _, err := a.Calendars.Get(owner); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "calendar owner not found"})
		return
	}

	appts := a.Calendars.ListUpcoming(owner)
	out := make([]appointmentDTO, 0, len(appts))
	for _, appt := range appts {
		out = append(out, appointmentToDTO(appt))
	}
	c.JSON(http.StatusOK, gin.H{"upcoming_appointments": out})
}

// GET|POST /api/appointments/search_slots
// Reads owner and request_date from a JSON body, or from the query string
// when there is no body.
func (a *App) SearchSlotsHandler(c *gin.Context) {
	var payload searchSlotsReq
	var err error
	if hasBody(c.Request) {
		err = c.ShouldBindJSON(&payload)
	} else {
		err = c.ShouldBindQuery(&payload)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		a.writeError(c, err)
		return
	}

	res, err := a.Engine.Search(c.Request.Context(), req)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/appointments/book_slot
func (a *App) BookSlotHandler(c *gin.Context) {
	var payload bookSlotReq
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		a.writeError(c, err)
		return
	}

	res, err := a.Engine.Book(c.Request.Context(), req)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /healthz
func (a *App) HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /readyz
func (a *App) ReadyHandler(c *gin.Context) {
	var failures []string
	for _, check := range a.Ready {
		if check.Check == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := check.Check(ctx)
		cancel()
		if err != nil {
			name := check.Name
			if name == "" {
				name = "dependency"
			}
			failures = append(failures, name+": "+err.Error())
		}
	}
	if len(failures) > 0 {
		c.String(http.StatusServiceUnavailable, strings.Join(failures, "; "))
		return
	}
	c.String(http.StatusOK, "ok")
}

// hasBody also covers chunked requests, which report ContentLength -1.
func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}

func (a *App) writeError(c *gin.Context, err error) {
	var (
		vErr *ValidationError
		oErr *store.OverlapError
		sErr *booking.SlotUnavailableError
	)
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &oErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNoCalendarFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, slotcache.ErrCacheMiss), errors.As(err, &sErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		a.Log.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", RequestIDFromContext(c)),
			slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
