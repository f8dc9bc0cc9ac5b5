package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// TerminalStatuses do not count towards an agent's load.
var TerminalStatuses = []TicketStatus{
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusCancelled,
}

// IsTerminal reports whether the ticket no longer needs work.
func (s TicketStatus) IsTerminal() bool {
	for _, terminal := range TerminalStatuses {
		if s == terminal {
			return true
		}
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Priorities lists every priority band, most urgent first.
var Priorities = [...]TicketPriority{
	TicketPriorityUrgent,
	TicketPriorityHigh,
	TicketPriorityMedium,
	TicketPriorityLow,
}

// Valid reports whether p is one of the four known priorities.
func (p TicketPriority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Band returns the index of p in Priorities. Unknown priorities land in the medium band.
func (p TicketPriority) Band() int {
	for i, known := range Priorities {
		if p == known {
			return i
		}
	}
	return 2
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID             int64
	Title          string
	Description    string
	Status         TicketStatus
	Priority       TicketPriority
	CategoryID     *int64
	CustomerID     int64
	AssignedTo     *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	AssignedAt     *time.Time
	QueueEnteredAt *time.Time
	DequeuedAt     *time.Time
	ResolvedAt     *time.Time
	ClosedAt       *time.Time
}

// TicketAssignment is the set of ticket fields written when an agent takes a ticket.
type TicketAssignment struct {
	AssignedTo     int64
	Status         TicketStatus
	AssignedAt     time.Time
	QueueEnteredAt time.Time
}
