package domain

import "time"

// AgentStatus represents whether an agent may receive work.
type AgentStatus string

const (
	AgentStatusActive    AgentStatus = "active"
	AgentStatusInactive  AgentStatus = "inactive"
	AgentStatusSuspended AgentStatus = "suspended"
)

// Agent models a support agent.
type Agent struct {
	ID           int64
	Name         string
	Email        string
	Status       AgentStatus
	IsSuperAgent bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the agent participates in assignment.
func (a *Agent) IsActive() bool {
	return a != nil && a.Status == AgentStatusActive
}

// AgentSubscriptions is one roster row: an active agent and its subscribed categories.
type AgentSubscriptions struct {
	AgentID     int64
	CategoryIDs []int64
}
