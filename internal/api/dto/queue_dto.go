package dto

import (
	"time"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

// QueueInfo describes the queue entry a ticket was popped from.
type QueueInfo struct {
	Priority       domain.TicketPriority `json:"priority"`
	QueueEnteredAt time.Time             `json:"queue_entered_at"`
}

// NextTicketResponse is the result of popping an agent's queue. Both fields are null when the queue is empty.
type NextTicketResponse struct {
	Ticket    *TicketResponse `json:"ticket"`
	QueueInfo *QueueInfo      `json:"queue_info"`
}

// AgentQueueResponse carries an agent's band counts, or null for an untracked agent.
type AgentQueueResponse struct {
	AgentID     int64               `json:"agent_id"`
	QueueStatus *domain.QueueStatus `json:"queue_status"`
}

// SubscribeRequest lists categories to subscribe an agent to.
type SubscribeRequest struct {
	CategoryIDs []int64 `json:"category_ids"`
}

// SubscriptionResponse echoes the agent's subscription change.
type SubscriptionResponse struct {
	AgentID     int64   `json:"agent_id"`
	CategoryIDs []int64 `json:"category_ids"`
}
