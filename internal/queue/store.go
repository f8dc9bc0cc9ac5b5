package queue

import (
	"sort"
	"sync"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

const bandCount = len(domain.Priorities)

// AgentQueue holds one agent's queued tickets, one FIFO band per priority.
type AgentQueue struct {
	bands [bandCount][]domain.QueueEntry
}

// insert appends entry to its band and keeps the band ordered by CreatedAt.
func (q *AgentQueue) insert(entry domain.QueueEntry) {
	b := entry.Priority.Band()
	band := append(q.bands[b], entry)
	sort.SliceStable(band, func(i, j int) bool {
		return band[i].CreatedAt.Before(band[j].CreatedAt)
	})
	q.bands[b] = band
}

func (q *AgentQueue) popNext() (domain.QueueEntry, bool) {
	for b := range q.bands {
		if len(q.bands[b]) == 0 {
			continue
		}
		entry := q.bands[b][0]
		q.bands[b] = q.bands[b][1:]
		return entry, true
	}
	return domain.QueueEntry{}, false
}

// remove deletes the first entry for ticketID, scanning bands in priority order.
func (q *AgentQueue) remove(ticketID int64) (domain.QueueEntry, bool) {
	for b := range q.bands {
		for i, entry := range q.bands[b] {
			if entry.TicketID != ticketID {
				continue
			}
			q.bands[b] = append(q.bands[b][:i:i], q.bands[b][i+1:]...)
			return entry, true
		}
	}
	return domain.QueueEntry{}, false
}

func (q *AgentQueue) counts() domain.BandCounts {
	return domain.BandCounts{
		Urgent: len(q.bands[domain.TicketPriorityUrgent.Band()]),
		High:   len(q.bands[domain.TicketPriorityHigh.Band()]),
		Medium: len(q.bands[domain.TicketPriorityMedium.Band()]),
		Low:    len(q.bands[domain.TicketPriorityLow.Band()]),
	}
}

// Store is the process-wide set of agent queues.
type Store struct {
	mu     sync.Mutex
	queues map[int64]*AgentQueue
	// owner maps a queued ticket to the agent whose queue holds it.
	owner map[int64]int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		queues: make(map[int64]*AgentQueue),
		owner:  make(map[int64]int64),
	}
}

// Reset drops every queue and creates an empty one per agent.
func (s *Store) Reset(agentIDs []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues = make(map[int64]*AgentQueue, len(agentIDs))
	s.owner = make(map[int64]int64)
	for _, id := range agentIDs {
		s.queues[id] = &AgentQueue{}
	}
}

// Ensure creates an empty queue for agentID if none exists. It reports whether one was created.
func (s *Store) Ensure(agentID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queues[agentID]; ok {
		return false
	}
	s.queues[agentID] = &AgentQueue{}
	return true
}

// Enqueue places entry in agentID's queue, creating the queue if needed.
// A ticket already queued elsewhere is moved, so it is never held twice.
func (s *Store) Enqueue(agentID int64, entry domain.QueueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.owner[entry.TicketID]; ok {
		if q := s.queues[prev]; q != nil {
			q.remove(entry.TicketID)
		}
	}
	q, ok := s.queues[agentID]
	if !ok {
		q = &AgentQueue{}
		s.queues[agentID] = q
	}
	q.insert(entry)
	s.owner[entry.TicketID] = agentID
}

// PopNext removes and returns the oldest entry of the most urgent non-empty band.
func (s *Store) PopNext(agentID int64) (domain.QueueEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[agentID]
	if !ok {
		return domain.QueueEntry{}, false
	}
	entry, ok := q.popNext()
	if ok {
		delete(s.owner, entry.TicketID)
	}
	return entry, ok
}

// Remove deletes ticketID from agentID's queue. Unknown agents or tickets are a no-op.
func (s *Store) Remove(ticketID, agentID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[agentID]
	if !ok {
		return false
	}
	if _, ok := q.remove(ticketID); !ok {
		return false
	}
	if s.owner[ticketID] == agentID {
		delete(s.owner, ticketID)
	}
	return true
}

// Move re-bands a queued ticket under a new priority, keeping its timestamps.
func (s *Store) Move(ticketID, agentID int64, priority domain.TicketPriority) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[agentID]
	if !ok {
		return false
	}
	entry, ok := q.remove(ticketID)
	if !ok {
		return false
	}
	entry.Priority = priority
	q.insert(entry)
	return true
}

// Status returns band counts for agentID, or false if the agent is unknown.
func (s *Store) Status(agentID int64) (domain.QueueStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[agentID]
	if !ok {
		return domain.QueueStatus{}, false
	}
	counts := q.counts()
	return domain.QueueStatus{BandCounts: counts, Total: counts.Total()}, true
}

// Snapshot returns band counts for every tracked agent.
func (s *Store) Snapshot() map[int64]domain.BandCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]domain.BandCounts, len(s.queues))
	for id, q := range s.queues {
		out[id] = q.counts()
	}
	return out
}

// Len returns the number of tracked agents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}

// Queued returns the number of entries across all queues.
func (s *Store) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owner)
}
