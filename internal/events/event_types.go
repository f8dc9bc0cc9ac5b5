package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketAssigned    EventType = "ticket_assigned"
	EventTicketPending     EventType = "ticket_pending"
	EventTicketCompleted   EventType = "ticket_completed"
	EventAgentSubscribed   EventType = "agent_subscribed"
	EventAgentUnsubscribed EventType = "agent_unsubscribed"
)

// AllEventTypes lists every event the services emit.
var AllEventTypes = []EventType{
	EventTicketAssigned,
	EventTicketPending,
	EventTicketCompleted,
	EventAgentSubscribed,
	EventAgentUnsubscribed,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id.
func New(eventType EventType, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TicketID   int64                 `json:"ticket_id"`
	AgentID    int64                 `json:"agent_id"`
	Priority   domain.TicketPriority `json:"priority"`
	CategoryID *int64                `json:"category_id"`
}

// TicketPendingPayload payload.
type TicketPendingPayload struct {
	TicketID   int64  `json:"ticket_id"`
	CategoryID *int64 `json:"category_id"`
}

// TicketCompletedPayload payload.
type TicketCompletedPayload struct {
	TicketID int64               `json:"ticket_id"`
	AgentID  int64               `json:"agent_id"`
	Status   domain.TicketStatus `json:"status"`
}

// SubscriptionPayload is shared by subscribe and unsubscribe events.
type SubscriptionPayload struct {
	AgentID    int64 `json:"agent_id"`
	CategoryID int64 `json:"category_id"`
}
