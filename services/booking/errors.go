package booking

import "errors"

// ErrShuttingDown is returned by Submit once Shutdown has started.
var ErrShuttingDown = errors.New("booking service is shutting down")

// Subscriber-facing terminal texts.
const (
	MsgConfirmedFallback = "Your booking is confirmed."
	MsgTimedOut          = "The booking provider did not confirm within %d seconds. Please check back later or try again."
	MsgPollLost          = "Lost contact with the booking provider while checking the booking status."
	MsgInterrupted       = "The booking service restarted before the provider confirmed. Please check the booking status later."
	MsgInternal          = "Something went wrong while processing the booking."
)
