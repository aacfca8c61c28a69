package models

import "time"

// EventKind tags a notification event.
type EventKind int

const (
	KindProgress EventKind = iota + 1
	KindFinal
	KindError
	KindClose     // no more events for the correlation id
	KindConnected // transport heartbeat on stream open, never published through the notifier
)

func (k EventKind) String() string {
	switch k {
	case KindProgress:
		return "progress"
	case KindFinal:
		return "final"
	case KindError:
		return "error"
	case KindClose:
		return "close"
	case KindConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Event is one entry on a booking's notification channel.
type Event struct {
	Kind    EventKind
	Message string
	At      time.Time
}

func Progress(message string) Event {
	return Event{Kind: KindProgress, Message: message, At: time.Now()}
}

func Final(text string) Event {
	return Event{Kind: KindFinal, Message: text, At: time.Now()}
}

func Failure(text string) Event {
	return Event{Kind: KindError, Message: text, At: time.Now()}
}

func CloseEvent() Event {
	return Event{Kind: KindClose, At: time.Now()}
}

func Connected() Event {
	return Event{Kind: KindConnected, Message: ConnectedMessage, At: time.Now()}
}

// IsTerminal reports whether the event ends the stream.
func (e Event) IsTerminal() bool {
	return e.Kind == KindClose
}
