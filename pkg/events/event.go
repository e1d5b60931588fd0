package events

import "time"

// Gateway event types published to the operational event bus.
const (
	TypeChatCompleted = "GATEWAY_CHAT_COMPLETED"
	TypeTaskExpired   = "GATEWAY_TASK_EXPIRED"
	TypeKBIngested    = "GATEWAY_KB_INGESTED"
	TypeOutboundReply = "GATEWAY_OUTBOUND_REPLY"
)

// Event is the contract for all operational events.
type Event interface {
	// EventType returns the unique code for this event.
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation most publishers use.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// New builds a BaseEvent stamped with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
