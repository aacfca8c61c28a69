package models

// Prefixes used by the external stream protocol to tell message kinds apart.
const (
	FinalPrefix      = "final:"
	ErrorPrefix      = "Error: "
	ConnectedMessage = "Connected"
)

// SSE event names. Consumers that only read the data field still see the
// prefixed message protocol.
const (
	SSEEventConnected = "connected"
	SSEEventMessage   = "message"
	SSEEventDone      = "done"
)

// WireMessage is the JSON body of one stream message.
type WireMessage struct {
	Message string `json:"message,omitempty"`
	Done    bool   `json:"done,omitempty"`
}

// Encode maps an event onto its SSE event name and JSON body.
func (e Event) Encode() (string, WireMessage) {
	switch e.Kind {
	case KindConnected:
		return SSEEventConnected, WireMessage{Message: ConnectedMessage}
	case KindFinal:
		return SSEEventMessage, WireMessage{Message: FinalPrefix + e.Message}
	case KindError:
		return SSEEventMessage, WireMessage{Message: ErrorPrefix + e.Message}
	case KindClose:
		return SSEEventDone, WireMessage{Done: true}
	default:
		return SSEEventMessage, WireMessage{Message: e.Message}
	}
}
