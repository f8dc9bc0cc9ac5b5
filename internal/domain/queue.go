package domain

import "time"

// QueueEntry is the in-memory projection of a ticket waiting in an agent's queue.
// Priority and timestamps are captured at enqueue time and are not refreshed
// when the stored ticket changes later.
type QueueEntry struct {
	TicketID       int64          `json:"ticket_id"`
	Priority       TicketPriority `json:"priority"`
	CreatedAt      time.Time      `json:"created_at"`
	QueueEnteredAt time.Time      `json:"queue_entered_at"`
}

// BandCounts holds queue length per priority band.
type BandCounts struct {
	Urgent int `json:"urgent"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Total sums all bands.
func (b BandCounts) Total() int {
	return b.Urgent + b.High + b.Medium + b.Low
}

// QueueStatus is an agent's band counts plus their total.
type QueueStatus struct {
	BandCounts
	Total int `json:"total"`
}

// SystemQueueStats is a snapshot of every tracked queue.
type SystemQueueStats struct {
	TotalAgents           int                  `json:"total_agents"`
	CategorySubscriptions int                  `json:"category_subscriptions"`
	AgentQueues           map[int64]BandCounts `json:"agent_queues"`
}
