// Package memory is an in-process implementation of the repository
// interfaces. It backs the service tests and the server when no Postgres
// DSN is configured in development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/repository"
)

type subscription struct {
	agentID    int64
	categoryID int64
	seq        int64
}

// DB holds every table in maps guarded by one mutex.
type DB struct {
	mu            sync.Mutex
	agents        map[int64]domain.Agent
	categories    map[int64]domain.Category
	tickets       map[int64]domain.Ticket
	subscriptions []subscription
	nextTicketID  int64
	seq           int64
	now           func() time.Time
}

// New returns an empty store.
func New() *DB {
	return &DB{
		agents:     make(map[int64]domain.Agent),
		categories: make(map[int64]domain.Category),
		tickets:    make(map[int64]domain.Ticket),
		now:        time.Now,
	}
}

// PutAgent inserts or replaces an agent.
func (db *DB) PutAgent(agent domain.Agent) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.agents[agent.ID] = agent
}

// PutCategory inserts or replaces a category.
func (db *DB) PutCategory(category domain.Category) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.categories[category.ID] = category
}

// PutTicket inserts or replaces a ticket, keeping the id sequence ahead of it.
func (db *DB) PutTicket(ticket domain.Ticket) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tickets[ticket.ID] = ticket
	if ticket.ID > db.nextTicketID {
		db.nextTicketID = ticket.ID
	}
}

// DeleteTicket removes a ticket.
func (db *DB) DeleteTicket(id int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.tickets, id)
}

// Subscribe seeds a join row directly.
func (db *DB) Subscribe(agentID, categoryID int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.upsertLocked(agentID, categoryID)
}

// Ticket returns a copy of the stored ticket.
func (db *DB) Ticket(id int64) (domain.Ticket, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	ticket, ok := db.tickets[id]
	return ticket, ok
}

// SubscribedCategories lists the persisted subscriptions of agentID in insertion order.
func (db *DB) SubscribedCategories(agentID int64) []int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []int64
	for _, sub := range db.subscriptions {
		if sub.agentID == agentID {
			out = append(out, sub.categoryID)
		}
	}
	return out
}

// Agents exposes the agent table.
func (db *DB) Agents() repository.AgentRepository { return agentTable{db} }

// Categories exposes the category table.
func (db *DB) Categories() repository.CategoryRepository { return categoryTable{db} }

// Subscriptions exposes the agent_categories table.
func (db *DB) Subscriptions() repository.SubscriptionRepository { return subscriptionTable{db} }

// Tickets exposes the ticket table.
func (db *DB) Tickets() repository.TicketRepository { return ticketTable{db} }

func (db *DB) upsertLocked(agentID, categoryID int64) {
	for _, sub := range db.subscriptions {
		if sub.agentID == agentID && sub.categoryID == categoryID {
			return
		}
	}
	db.seq++
	db.subscriptions = append(db.subscriptions, subscription{agentID: agentID, categoryID: categoryID, seq: db.seq})
}

func (db *DB) sortedAgentIDsLocked() []int64 {
	ids := make([]int64, 0, len(db.agents))
	for id := range db.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type agentTable struct{ db *DB }

func (t agentTable) GetByID(_ context.Context, id int64) (*domain.Agent, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	agent, ok := t.db.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &agent, nil
}

func (t agentTable) FindActiveWithSubscriptions(_ context.Context) ([]domain.AgentSubscriptions, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	var result []domain.AgentSubscriptions
	for _, id := range t.db.sortedAgentIDsLocked() {
		agent := t.db.agents[id]
		if !agent.IsActive() {
			continue
		}
		row := domain.AgentSubscriptions{AgentID: id, CategoryIDs: []int64{}}
		for _, sub := range t.db.subscriptions {
			if sub.agentID != id {
				continue
			}
			if category, ok := t.db.categories[sub.categoryID]; ok && category.IsActive {
				row.CategoryIDs = append(row.CategoryIDs, sub.categoryID)
			}
		}
		result = append(result, row)
	}
	return result, nil
}

func (t agentTable) FindActiveIDs(_ context.Context) ([]int64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	var ids []int64
	for _, id := range t.db.sortedAgentIDsLocked() {
		agent := t.db.agents[id]
		if agent.IsActive() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t agentTable) FilterActiveIDs(_ context.Context, agentIDs []int64) ([]int64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	var ids []int64
	for _, id := range agentIDs {
		if agent, ok := t.db.agents[id]; ok && agent.IsActive() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type categoryTable struct{ db *DB }

func (t categoryTable) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	category, ok := t.db.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &category, nil
}

func (t categoryTable) FindActiveByIDs(_ context.Context, ids []int64) ([]domain.Category, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	seen := make(map[int64]bool, len(ids))
	var result []domain.Category
	for _, id := range ids {
		category, ok := t.db.categories[id]
		if !ok || !category.IsActive || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type subscriptionTable struct{ db *DB }

func (t subscriptionTable) Upsert(_ context.Context, agentID, categoryID int64) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.upsertLocked(agentID, categoryID)
	return nil
}

func (t subscriptionTable) Delete(_ context.Context, agentID, categoryID int64) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	kept := t.db.subscriptions[:0]
	for _, sub := range t.db.subscriptions {
		if sub.agentID == agentID && sub.categoryID == categoryID {
			continue
		}
		kept = append(kept, sub)
	}
	t.db.subscriptions = kept
	return nil
}

type ticketTable struct{ db *DB }

func (t ticketTable) Create(_ context.Context, ticket *domain.Ticket) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.nextTicketID++
	now := t.db.now()
	ticket.ID = t.db.nextTicketID
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	t.db.tickets[ticket.ID] = *ticket
	return nil
}

func (t ticketTable) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	ticket, ok := t.db.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (t ticketTable) CountActiveForAgent(_ context.Context, agentID int64) (int, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	count := 0
	for _, ticket := range t.db.tickets {
		if ticket.AssignedTo != nil && *ticket.AssignedTo == agentID && !ticket.Status.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (t ticketTable) UpdateAssignment(_ context.Context, ticketID int64, assignment domain.TicketAssignment) error {
	return t.update(ticketID, nil, applyAssignment(assignment))
}

func (t ticketTable) ClaimAssignment(_ context.Context, ticketID int64, assignment domain.TicketAssignment) error {
	unclaimed := func(ticket domain.Ticket) bool {
		return ticket.AssignedTo == nil && ticket.Status == domain.TicketStatusOpen
	}
	return t.update(ticketID, unclaimed, applyAssignment(assignment))
}

func applyAssignment(assignment domain.TicketAssignment) func(*domain.Ticket) {
	return func(ticket *domain.Ticket) {
		agentID := assignment.AssignedTo
		assignedAt := assignment.AssignedAt
		enteredAt := assignment.QueueEnteredAt
		ticket.AssignedTo = &agentID
		ticket.Status = assignment.Status
		ticket.AssignedAt = &assignedAt
		ticket.QueueEnteredAt = &enteredAt
		ticket.DequeuedAt = nil
	}
}

func (t ticketTable) UpdatePending(_ context.Context, ticketID int64, queueEnteredAt time.Time) error {
	unassigned := func(ticket domain.Ticket) bool { return ticket.AssignedTo == nil }
	return t.update(ticketID, unassigned, func(ticket *domain.Ticket) {
		ticket.Status = domain.TicketStatusOpen
		ticket.QueueEnteredAt = &queueEnteredAt
	})
}

func (t ticketTable) MarkDequeued(_ context.Context, ticketID int64, at time.Time) error {
	return t.update(ticketID, nil, func(ticket *domain.Ticket) {
		ticket.DequeuedAt = &at
	})
}

func (t ticketTable) UpdateCompletion(_ context.Context, ticketID int64, status domain.TicketStatus, at time.Time) error {
	return t.update(ticketID, nil, func(ticket *domain.Ticket) {
		ticket.Status = status
		switch status {
		case domain.TicketStatusResolved:
			ticket.ResolvedAt = &at
		case domain.TicketStatusClosed:
			ticket.ClosedAt = &at
		}
	})
}

func (t ticketTable) UpdatePriority(_ context.Context, ticketID int64, priority domain.TicketPriority) error {
	return t.update(ticketID, nil, func(ticket *domain.Ticket) {
		ticket.Priority = priority
	})
}

func (t ticketTable) ListInProgressAssigned(_ context.Context) ([]domain.Ticket, error) {
	return t.list(func(ticket domain.Ticket) bool {
		return ticket.Status == domain.TicketStatusInProgress && ticket.AssignedTo != nil && ticket.DequeuedAt == nil
	}, 0), nil
}

func (t ticketTable) ListPending(_ context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	return t.list(func(ticket domain.Ticket) bool {
		return ticket.Status == domain.TicketStatusOpen && ticket.AssignedTo == nil
	}, limit), nil
}

// update applies apply to the ticket when cond is nil or holds.
func (t ticketTable) update(ticketID int64, cond func(domain.Ticket) bool, apply func(*domain.Ticket)) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	ticket, ok := t.db.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if cond != nil && !cond(ticket) {
		return repository.ErrTicketAlreadyRouted
	}
	apply(&ticket)
	ticket.UpdatedAt = t.db.now()
	t.db.tickets[ticketID] = ticket
	return nil
}

func (t ticketTable) list(match func(domain.Ticket) bool, limit int) []domain.Ticket {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range t.db.tickets {
		if match(ticket) {
			result = append(result, ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
