package dto

import (
	"time"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

// CreateTicketRequest payload. CustomerID is only honoured for agent callers.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	CategoryID  *int64                `json:"category_id"`
	CustomerID  int64                 `json:"customer_id"`
}

// CompleteTicketRequest payload. An empty status means resolved.
type CompleteTicketRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	ID             int64                 `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Status         domain.TicketStatus   `json:"status"`
	Priority       domain.TicketPriority `json:"priority"`
	CategoryID     *int64                `json:"category_id"`
	CustomerID     int64                 `json:"customer_id"`
	AssignedTo     *int64                `json:"assigned_to"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	AssignedAt     *time.Time            `json:"assigned_at"`
	QueueEnteredAt *time.Time            `json:"queue_entered_at"`
	ResolvedAt     *time.Time            `json:"resolved_at"`
	ClosedAt       *time.Time            `json:"closed_at"`
}

// AgentSummary identifies the agent a ticket was routed to.
type AgentSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateTicketResponse reports where a new ticket went.
type CreateTicketResponse struct {
	Ticket        TicketResponse      `json:"ticket"`
	AssignedAgent *AgentSummary       `json:"assigned_agent"`
	QueueStatus   *domain.QueueStatus `json:"queue_status"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             ticket.ID,
		Title:          ticket.Title,
		Description:    ticket.Description,
		Status:         ticket.Status,
		Priority:       ticket.Priority,
		CategoryID:     ticket.CategoryID,
		CustomerID:     ticket.CustomerID,
		AssignedTo:     ticket.AssignedTo,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
		AssignedAt:     ticket.AssignedAt,
		QueueEnteredAt: ticket.QueueEnteredAt,
		ResolvedAt:     ticket.ResolvedAt,
		ClosedAt:       ticket.ClosedAt,
	}
}

// NewAgentSummary returns nil for a nil agent.
func NewAgentSummary(agent *domain.Agent) *AgentSummary {
	if agent == nil {
		return nil
	}
	return &AgentSummary{ID: agent.ID, Name: agent.Name, Email: agent.Email}
}
