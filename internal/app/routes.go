package app

import (
	"time"

	"github.com/gin-gonic/gin"
)

func (a *App) Router(requestTimeout time.Duration) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(a.Log), RequestTimeout(requestTimeout))

	router.GET("/healthz", a.HealthHandler)
	router.GET("/readyz", a.ReadyHandler)

	api := router.Group("/api")
	{
		cal := api.Group("/calendar")
		{
			cal.POST("/set_availability/:owner", a.SetAvailabilityHandler)
			cal.GET("/availability/:owner", a.ListAvailabilityHandler)
			cal.GET("/appointments/list_upcoming", a.ListUpcomingHandler)
		}
		appts := api.Group("/appointments")
		{
			appts.GET("/search_slots", a.SearchSlotsHandler)
			appts.POST("/search_slots", a.SearchSlotsHandler)
			appts.POST("/book_slot", a.BookSlotHandler)
		}
	}
	return router
}
