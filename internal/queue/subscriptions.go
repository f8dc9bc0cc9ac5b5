package queue

import (
	"sync"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

// SubscriptionIndex maps a category to the agents subscribed to it.
// Agents keep the order in which they subscribed.
type SubscriptionIndex struct {
	mu         sync.RWMutex
	byCategory map[int64][]int64
}

// NewSubscriptionIndex returns an empty index.
func NewSubscriptionIndex() *SubscriptionIndex {
	return &SubscriptionIndex{byCategory: make(map[int64][]int64)}
}

// Reset replaces the index with the given roster.
func (x *SubscriptionIndex) Reset(roster []domain.AgentSubscriptions) {
	next := make(map[int64][]int64)
	for _, row := range roster {
		for _, categoryID := range row.CategoryIDs {
			if !contains(next[categoryID], row.AgentID) {
				next[categoryID] = append(next[categoryID], row.AgentID)
			}
		}
	}
	x.mu.Lock()
	x.byCategory = next
	x.mu.Unlock()
}

// Add subscribes agentID to categoryID. It reports whether the index changed.
func (x *SubscriptionIndex) Add(categoryID, agentID int64) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if contains(x.byCategory[categoryID], agentID) {
		return false
	}
	x.byCategory[categoryID] = append(x.byCategory[categoryID], agentID)
	return true
}

// Remove unsubscribes agentID from categoryID. A category left without
// subscribers keeps its key until the next Reset.
func (x *SubscriptionIndex) Remove(categoryID, agentID int64) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	agents := x.byCategory[categoryID]
	for i, id := range agents {
		if id != agentID {
			continue
		}
		x.byCategory[categoryID] = append(agents[:i:i], agents[i+1:]...)
		return true
	}
	return false
}

// Candidates returns a copy of the agents subscribed to categoryID.
func (x *SubscriptionIndex) Candidates(categoryID int64) []int64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	agents := x.byCategory[categoryID]
	if len(agents) == 0 {
		return nil
	}
	out := make([]int64, len(agents))
	copy(out, agents)
	return out
}

// Len returns the number of indexed categories, including ones whose
// subscribers have all left since the last Reset.
func (x *SubscriptionIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byCategory)
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
