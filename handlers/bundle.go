package handlers

// HandlerBundle groups the handlers registered by the router.
type HandlerBundle struct {
	Booking *BookingHandler
	Health  *HealthHandler

	// Submission rate limit per client IP.
	MaxRequestsPerMin int
	RateLimitBurst    int
}
