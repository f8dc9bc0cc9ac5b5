package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/events"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/repository"
	apperrors "github.com/valorant-dhruv/FeathersUp.ai/pkg/util/errorutil"
)

const (
	titleMinLen       = 5
	titleMaxLen       = 200
	descriptionMinLen = 10
	descriptionMaxLen = 5000
)

// TicketService coordinates ticket intake, hand-out and completion around the agent queues.
type TicketService struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	assignment *AssignmentService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	Assignment   *AssignmentService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Now          func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CustomerID  int64
	Title       string
	Description string
	Priority    domain.TicketPriority
	CategoryID  *int64
}

// TicketCreateResult is the created ticket and where it went.
// AssignedAgent and QueueStatus are nil when the ticket is pending.
type TicketCreateResult struct {
	Ticket        *domain.Ticket
	AssignedAgent *domain.Agent
	QueueStatus   *domain.QueueStatus
}

// NextTicketResult is a popped ticket with the queue metadata it carried.
type NextTicketResult struct {
	Ticket *domain.Ticket
	Entry  domain.QueueEntry
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		assignment: deps.Assignment,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        now,
	}
}

// CreateTicket stores a new open ticket and hands it to the assignment engine.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*TicketCreateResult, error) {
	ticket, err := s.validateCreate(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	agent, err := s.assignment.ProcessNewTicket(ctx, ticket)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &TicketCreateResult{Ticket: ticket, AssignedAgent: agent}
	if agent != nil {
		if status, ok := s.assignment.GetAgentQueueStatus(agent.ID); ok {
			result.QueueStatus = &status
		}
	}
	return result, nil
}

func (s *TicketService) validateCreate(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	details := map[string]any{}
	if n := utf8.RuneCountInString(title); n < titleMinLen || n > titleMaxLen {
		details["title"] = fmt.Sprintf("must be between %d and %d characters", titleMinLen, titleMaxLen)
	}
	if n := utf8.RuneCountInString(description); n < descriptionMinLen || n > descriptionMaxLen {
		details["description"] = fmt.Sprintf("must be between %d and %d characters", descriptionMinLen, descriptionMaxLen)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		details["priority"] = "must be one of low, medium, high, urgent"
	}
	if input.CustomerID <= 0 {
		details["customer_id"] = "is required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	if input.CategoryID != nil {
		category, err := s.categories.GetByID(ctx, *input.CategoryID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		if category == nil || !category.IsActive {
			return nil, apperrors.NewValidationError("invalid ticket", map[string]any{
				"category_id": "category does not exist or is inactive",
			})
		}
	}

	return &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		CategoryID:  input.CategoryID,
		CustomerID:  input.CustomerID,
	}, nil
}

// CompleteTicket closes out a ticket assigned to agent and drops it from the agent's queue.
func (s *TicketService) CompleteTicket(ctx context.Context, agent *domain.Agent, ticketID int64, status domain.TicketStatus) (*domain.Ticket, error) {
	if agent == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	if status == "" {
		status = domain.TicketStatusResolved
	}
	if status != domain.TicketStatusResolved && status != domain.TicketStatusClosed {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"status": "must be resolved or closed",
		})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.AssignedTo == nil || *ticket.AssignedTo != agent.ID {
		return nil, apperrors.NewForbidden("you can only complete tickets assigned to you")
	}

	at := s.now()
	if err := s.tickets.UpdateCompletion(ctx, ticketID, status, at); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Status = status
	switch status {
	case domain.TicketStatusResolved:
		ticket.ResolvedAt = &at
	case domain.TicketStatusClosed:
		ticket.ClosedAt = &at
	}

	s.assignment.RemoveTicketFromQueue(ticketID, agent.ID)
	s.logger.Info("ticket completed",
		zap.Int64("ticket_id", ticketID),
		zap.Int64("agent_id", agent.ID),
		zap.String("status", string(status)))
	s.publishEvent(ctx, events.EventTicketCompleted, events.TicketCompletedPayload{
		TicketID: ticketID,
		AgentID:  agent.ID,
		Status:   status,
	})
	return ticket, nil
}

// NextTicket pops the agent's next queued ticket and loads it.
// Entries whose ticket no longer exists are discarded. It returns nil when the queue is empty.
func (s *TicketService) NextTicket(ctx context.Context, agentID int64) (*NextTicketResult, error) {
	for {
		entry, ok := s.assignment.GetNextTicketForAgent(ctx, agentID)
		if !ok {
			return nil, nil
		}
		ticket, err := s.tickets.GetByID(ctx, entry.TicketID)
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("dropping queue entry for missing ticket",
				zap.Int64("ticket_id", entry.TicketID),
				zap.Int64("agent_id", agentID))
			continue
		}
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		return &NextTicketResult{Ticket: ticket, Entry: *entry}, nil
	}
}

// AgentQueueInfo returns the agent's band counts without popping anything, or nil for an unknown agent.
func (s *TicketService) AgentQueueInfo(agentID int64) *domain.QueueStatus {
	status, ok := s.assignment.GetAgentQueueStatus(agentID)
	if !ok {
		return nil
	}
	return &status
}

// ReprioritizeTicket stores a new priority and re-bands the ticket if it is queued.
func (s *TicketService) ReprioritizeTicket(ctx context.Context, ticketID int64, priority domain.TicketPriority) (*domain.Ticket, error) {
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{
			"priority": "must be one of low, medium, high, urgent",
		})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket already completed", map[string]any{"status": ticket.Status})
	}
	if ticket.Priority == priority {
		return ticket, nil
	}
	if err := s.tickets.UpdatePriority(ctx, ticketID, priority); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Priority = priority
	if ticket.AssignedTo != nil {
		s.assignment.MoveQueuedTicket(ticketID, *ticket.AssignedTo, priority)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.New(eventType, s.now(), payload)); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
