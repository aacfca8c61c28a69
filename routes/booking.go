package routes

import (
	"github.com/block-integration-api/tutorial-webchat/handlers"
	"github.com/block-integration-api/tutorial-webchat/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the booking submission, status and event stream endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookings := r.Group("/api/bookings")
	{
		bookings.POST("", middleware.RateLimitMiddleware(hb.MaxRequestsPerMin, hb.RateLimitBurst), hb.Booking.SubmitBookingHandler)
		bookings.GET("/:correlationID", hb.Booking.GetBookingHandler)
		bookings.GET("/:correlationID/events", hb.Booking.StreamEventsHandler)
	}
}
