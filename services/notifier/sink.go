package notifier

import "github.com/block-integration-api/tutorial-webchat/models"

// Sink receives events for one subscriber. Deliver must not block for long;
// an error means the subscriber is gone.
type Sink interface {
	Deliver(models.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(models.Event) error

func (f SinkFunc) Deliver(ev models.Event) error {
	return f(ev)
}
