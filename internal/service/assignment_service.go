package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/events"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/observability"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/queue"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/repository"
	apperrors "github.com/valorant-dhruv/FeathersUp.ai/pkg/util/errorutil"
)

const (
	routingCategory = "category"
	routingGeneral  = "general"
	routingDirect   = "direct"
)

// AssignmentService owns the agent queues and routes new tickets to agents.
type AssignmentService struct {
	agents        repository.AgentRepository
	categories    repository.CategoryRepository
	subscriptions repository.SubscriptionRepository
	tickets       repository.TicketRepository
	store         *queue.Store
	index         *queue.SubscriptionIndex
	balancer      *queue.LoadBalancer
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	metrics       *observability.Metrics
	tracer        trace.Tracer
	now           func() time.Time
	rebuild       bool
}

// AssignmentDependencies bundles repositories and collaborators.
type AssignmentDependencies struct {
	AgentRepo        repository.AgentRepository
	CategoryRepo     repository.CategoryRepository
	SubscriptionRepo repository.SubscriptionRepository
	TicketRepo       repository.TicketRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	Metrics          *observability.Metrics
	Tracer           trace.Tracer
	// Now defaults to time.Now.
	Now func() time.Time
	// RebuildFromAssignments replays in-progress tickets into queues on load.
	RebuildFromAssignments bool
	BalancerConcurrency    int
}

// NewAssignmentService creates the service. Queues stay empty until LoadAgentQueues runs.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(observability.ScopeName)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{
		agents:        deps.AgentRepo,
		categories:    deps.CategoryRepo,
		subscriptions: deps.SubscriptionRepo,
		tickets:       deps.TicketRepo,
		store:         queue.NewStore(),
		index:         queue.NewSubscriptionIndex(),
		balancer:      queue.NewLoadBalancer(deps.TicketRepo, deps.AgentRepo, deps.BalancerConcurrency),
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		metrics:       deps.Metrics,
		tracer:        tracer,
		now:           now,
		rebuild:       deps.RebuildFromAssignments,
	}
}

// LoadAgentQueues rebuilds the subscription index and one empty queue per active
// agent. With rebuild enabled, in-progress tickets are replayed into their
// assignee's queue. It must complete before assignment traffic is accepted.
func (s *AssignmentService) LoadAgentQueues(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, s.tracer, "queue.load")
	defer span.End()

	roster, err := s.agents.FindActiveWithSubscriptions(ctx)
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("load agent roster: %w", err)
	}

	var replay []domain.Ticket
	if s.rebuild {
		replay, err = s.tickets.ListInProgressAssigned(ctx)
		if err != nil {
			recordSpanError(span, err)
			return fmt.Errorf("load in-progress tickets: %w", err)
		}
	}

	agentIDs := make([]int64, 0, len(roster))
	active := make(map[int64]bool, len(roster))
	for _, row := range roster {
		agentIDs = append(agentIDs, row.AgentID)
		active[row.AgentID] = true
	}
	s.store.Reset(agentIDs)
	s.index.Reset(roster)

	replayed := 0
	for _, ticket := range replay {
		if ticket.AssignedTo == nil || !active[*ticket.AssignedTo] {
			continue
		}
		s.store.Enqueue(*ticket.AssignedTo, entryFromTicket(ticket))
		replayed++
	}

	span.SetAttributes(
		attribute.Int("queue.agents", len(agentIDs)),
		attribute.Int("queue.replayed", replayed),
	)
	s.logger.Info("agent queues loaded",
		zap.Int("agents", len(agentIDs)),
		zap.Int("categories", s.index.Len()),
		zap.Int("replayed_tickets", replayed))
	return nil
}

// ProcessNewTicket routes ticket to the least loaded eligible agent and queues it.
// It returns nil without error when no agent is available and the ticket was left pending.
func (s *AssignmentService) ProcessNewTicket(ctx context.Context, ticket *domain.Ticket) (*domain.Agent, error) {
	ctx, span := observability.StartSpan(ctx, s.tracer, "queue.process_ticket",
		attribute.Int64("ticket.id", ticket.ID),
		attribute.String("ticket.priority", string(ticket.Priority)),
	)
	defer span.End()

	agent, err := s.route(ctx, ticket)
	if errors.Is(err, repository.ErrTicketAlreadyRouted) {
		agent, err = s.adoptRouted(ctx, ticket)
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	if agent != nil {
		span.SetAttributes(attribute.Int64("agent.id", agent.ID))
	}
	return agent, nil
}

func (s *AssignmentService) route(ctx context.Context, ticket *domain.Ticket) (*domain.Agent, error) {
	if ticket.CategoryID != nil {
		active, err := s.categoryActive(ctx, *ticket.CategoryID)
		if err != nil {
			s.logger.Error("category lookup failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
			return nil, err
		}
		candidates := s.index.Candidates(*ticket.CategoryID)
		switch {
		case !active:
			s.logger.Warn("category inactive or missing, using general pool",
				zap.Int64("ticket_id", ticket.ID),
				zap.Int64("category_id", *ticket.CategoryID))
		case len(candidates) > 0:
			agentID, ok, err := s.balancer.PickLeastLoaded(ctx, candidates)
			if err != nil {
				s.logger.Error("least loaded lookup failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
				return nil, err
			}
			if !ok {
				return nil, s.markPending(ctx, ticket)
			}
			return s.assign(ctx, ticket, agentID, routingCategory)
		default:
			s.logger.Warn("no subscribers for category, using general pool",
				zap.Int64("ticket_id", ticket.ID),
				zap.Int64("category_id", *ticket.CategoryID))
		}
	} else {
		s.logger.Warn("ticket has no category, using general pool", zap.Int64("ticket_id", ticket.ID))
	}

	pool, err := s.agents.FindActiveIDs(ctx)
	if err != nil {
		s.logger.Error("active agent lookup failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return nil, fmt.Errorf("list active agents: %w", err)
	}
	if len(pool) == 0 {
		return nil, s.markPending(ctx, ticket)
	}
	agentID, ok, err := s.balancer.PickLeastLoaded(ctx, pool)
	if err != nil {
		s.logger.Error("least loaded lookup failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, s.markPending(ctx, ticket)
	}
	return s.assign(ctx, ticket, agentID, routingGeneral)
}

// categoryActive reads the category from storage so that a category deactivated
// after the index was loaded routes like one without subscribers.
func (s *AssignmentService) categoryActive(ctx context.Context, categoryID int64) (bool, error) {
	found, err := s.categories.FindActiveByIDs(ctx, []int64{categoryID})
	if err != nil {
		return false, fmt.Errorf("load category %d: %w", categoryID, err)
	}
	return len(found) > 0, nil
}

// adoptRouted reloads a ticket that another caller already routed and reports
// its current assignee. Nothing is queued or published.
func (s *AssignmentService) adoptRouted(ctx context.Context, ticket *domain.Ticket) (*domain.Agent, error) {
	stored, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("reload ticket %d: %w", ticket.ID, err)
	}
	*ticket = *stored
	s.logger.Info("ticket already routed, skipping", zap.Int64("ticket_id", ticket.ID))
	if ticket.AssignedTo == nil {
		return nil, nil
	}
	agent, err := s.agents.GetByID(ctx, *ticket.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("load agent %d: %w", *ticket.AssignedTo, err)
	}
	return agent, nil
}

// AssignTicketToAgent persists the assignment of ticket to agentID and queues it.
// Nothing is queued if the write fails.
func (s *AssignmentService) AssignTicketToAgent(ctx context.Context, ticket *domain.Ticket, agentID int64) error {
	return s.commitAssignment(ctx, ticket, agentID, routingDirect)
}

func (s *AssignmentService) assign(ctx context.Context, ticket *domain.Ticket, agentID int64, routing string) (*domain.Agent, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		s.logger.Error("load selected agent failed", zap.Int64("agent_id", agentID), zap.Error(err))
		return nil, fmt.Errorf("load agent %d: %w", agentID, err)
	}
	if err := s.commitAssignment(ctx, ticket, agentID, routing); err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *AssignmentService) commitAssignment(ctx context.Context, ticket *domain.Ticket, agentID int64, routing string) error {
	now := s.now()
	assignment := domain.TicketAssignment{
		AssignedTo:     agentID,
		Status:         domain.TicketStatusInProgress,
		AssignedAt:     now,
		QueueEnteredAt: now,
	}
	write := s.tickets.ClaimAssignment
	if routing == routingDirect {
		write = s.tickets.UpdateAssignment
	}
	if err := write(ctx, ticket.ID, assignment); err != nil {
		if errors.Is(err, repository.ErrTicketAlreadyRouted) {
			return err
		}
		s.logger.Error("persist assignment failed",
			zap.Int64("ticket_id", ticket.ID),
			zap.Int64("agent_id", agentID),
			zap.Error(err))
		return fmt.Errorf("assign ticket %d to agent %d: %w", ticket.ID, agentID, err)
	}

	ticket.AssignedTo = &agentID
	ticket.Status = domain.TicketStatusInProgress
	ticket.AssignedAt = &now
	ticket.QueueEnteredAt = &now

	s.store.Enqueue(agentID, domain.QueueEntry{
		TicketID:       ticket.ID,
		Priority:       ticket.Priority,
		CreatedAt:      ticket.CreatedAt,
		QueueEnteredAt: now,
	})
	s.metrics.TicketAssigned(ctx, string(ticket.Priority), routing)
	s.logger.Info("ticket assigned",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("agent_id", agentID),
		zap.String("priority", string(ticket.Priority)),
		zap.String("routing", routing))
	s.publish(ctx, events.EventTicketAssigned, events.TicketAssignedPayload{
		TicketID:   ticket.ID,
		AgentID:    agentID,
		Priority:   ticket.Priority,
		CategoryID: ticket.CategoryID,
	})
	return nil
}

func (s *AssignmentService) markPending(ctx context.Context, ticket *domain.Ticket) error {
	now := s.now()
	if err := s.tickets.UpdatePending(ctx, ticket.ID, now); err != nil {
		if errors.Is(err, repository.ErrTicketAlreadyRouted) {
			return err
		}
		s.logger.Error("persist pending ticket failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return fmt.Errorf("mark ticket %d pending: %w", ticket.ID, err)
	}
	ticket.Status = domain.TicketStatusOpen
	ticket.AssignedTo = nil
	ticket.QueueEnteredAt = &now

	s.metrics.TicketPending(ctx)
	s.logger.Info("no agent available, ticket pending", zap.Int64("ticket_id", ticket.ID))
	s.publish(ctx, events.EventTicketPending, events.TicketPendingPayload{
		TicketID:   ticket.ID,
		CategoryID: ticket.CategoryID,
	})
	return nil
}

// SubscribeAgentToCategory persists the subscription and adds the agent to the category's candidates.
func (s *AssignmentService) SubscribeAgentToCategory(ctx context.Context, agentID, categoryID int64) error {
	if err := s.subscriptions.Upsert(ctx, agentID, categoryID); err != nil {
		return fmt.Errorf("subscribe agent %d to category %d: %w", agentID, categoryID, err)
	}
	s.index.Add(categoryID, agentID)
	s.store.Ensure(agentID)
	s.logger.Info("agent subscribed", zap.Int64("agent_id", agentID), zap.Int64("category_id", categoryID))
	s.publish(ctx, events.EventAgentSubscribed, events.SubscriptionPayload{AgentID: agentID, CategoryID: categoryID})
	return nil
}

// UnsubscribeAgentFromCategory removes the subscription. Removing a missing one is not an error.
func (s *AssignmentService) UnsubscribeAgentFromCategory(ctx context.Context, agentID, categoryID int64) error {
	if err := s.subscriptions.Delete(ctx, agentID, categoryID); err != nil {
		return fmt.Errorf("unsubscribe agent %d from category %d: %w", agentID, categoryID, err)
	}
	s.index.Remove(categoryID, agentID)
	s.logger.Info("agent unsubscribed", zap.Int64("agent_id", agentID), zap.Int64("category_id", categoryID))
	s.publish(ctx, events.EventAgentUnsubscribed, events.SubscriptionPayload{AgentID: agentID, CategoryID: categoryID})
	return nil
}

// SubscribeAgentToCategories subscribes agentID to every category in categoryIDs.
// All categories must exist and be active, otherwise nothing is subscribed.
func (s *AssignmentService) SubscribeAgentToCategories(ctx context.Context, agentID int64, categoryIDs []int64) error {
	unique := dedupeIDs(categoryIDs)
	if len(unique) == 0 {
		return apperrors.NewValidationError("category_ids must not be empty", nil)
	}
	found, err := s.categories.FindActiveByIDs(ctx, unique)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if len(found) != len(unique) {
		activeIDs := make(map[int64]bool, len(found))
		for _, category := range found {
			activeIDs[category.ID] = true
		}
		var invalid []int64
		for _, id := range unique {
			if !activeIDs[id] {
				invalid = append(invalid, id)
			}
		}
		return apperrors.NewValidationError("some categories are invalid or inactive", map[string]any{
			"invalid_category_ids": invalid,
		})
	}
	for _, id := range unique {
		if err := s.SubscribeAgentToCategory(ctx, agentID, id); err != nil {
			return err
		}
	}
	return nil
}

// GetNextTicketForAgent pops the next entry from the agent's queue.
// It reports false when the agent is unknown or the queue is empty.
func (s *AssignmentService) GetNextTicketForAgent(ctx context.Context, agentID int64) (*domain.QueueEntry, bool) {
	entry, ok := s.store.PopNext(agentID)
	if !ok {
		return nil, false
	}
	s.metrics.TicketDequeued(ctx, string(entry.Priority))
	if err := s.tickets.MarkDequeued(ctx, entry.TicketID, s.now()); err != nil {
		s.logger.Warn("persist dequeue marker failed",
			zap.Int64("ticket_id", entry.TicketID),
			zap.Int64("agent_id", agentID),
			zap.Error(err))
	}
	return &entry, true
}

// GetAgentQueueStatus returns band counts, or false for an unknown agent.
func (s *AssignmentService) GetAgentQueueStatus(agentID int64) (domain.QueueStatus, bool) {
	return s.store.Status(agentID)
}

// RemoveTicketFromQueue drops ticketID from agentID's queue if it is there.
func (s *AssignmentService) RemoveTicketFromQueue(ticketID, agentID int64) bool {
	removed := s.store.Remove(ticketID, agentID)
	if removed {
		s.logger.Debug("ticket removed from queue", zap.Int64("ticket_id", ticketID), zap.Int64("agent_id", agentID))
	}
	return removed
}

// MoveQueuedTicket re-bands a queued ticket. It reports false if the ticket is not in agentID's queue.
func (s *AssignmentService) MoveQueuedTicket(ticketID, agentID int64, priority domain.TicketPriority) bool {
	return s.store.Move(ticketID, agentID, priority)
}

// GetSystemQueueStats snapshots every queue without touching storage.
func (s *AssignmentService) GetSystemQueueStats() domain.SystemQueueStats {
	return domain.SystemQueueStats{
		TotalAgents:           s.store.Len(),
		CategorySubscriptions: s.index.Len(),
		AgentQueues:           s.store.Snapshot(),
	}
}

// QueuedTotal counts entries across all queues.
func (s *AssignmentService) QueuedTotal() int {
	return s.store.Queued()
}

func (s *AssignmentService) publish(ctx context.Context, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.New(eventType, s.now(), payload)); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func entryFromTicket(ticket domain.Ticket) domain.QueueEntry {
	entered := ticket.CreatedAt
	if ticket.QueueEnteredAt != nil {
		entered = *ticket.QueueEnteredAt
	}
	return domain.QueueEntry{
		TicketID:       ticket.ID,
		Priority:       ticket.Priority,
		CreatedAt:      ticket.CreatedAt,
		QueueEnteredAt: entered,
	}
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
