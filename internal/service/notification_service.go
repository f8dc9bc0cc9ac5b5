package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/events"
)

// NotificationService writes an audit line for every domain event.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketPending, n.handleTicketPending)
	n.dispatcher.Subscribe(events.EventTicketCompleted, n.handleTicketCompleted)
	n.dispatcher.Subscribe(events.EventAgentSubscribed, n.handleSubscriptionChanged)
	n.dispatcher.Subscribe(events.EventAgentUnsubscribed, n.handleSubscriptionChanged)
}

func (n *NotificationService) handleTicketAssigned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return n.unexpected(event)
	}
	n.logger.Info("TicketAssigned",
		zap.String("event_id", event.ID),
		zap.Int64("ticket_id", payload.TicketID),
		zap.Int64("agent_id", payload.AgentID),
		zap.String("priority", string(payload.Priority)))
	return nil
}

func (n *NotificationService) handleTicketPending(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketPendingPayload)
	if !ok {
		return n.unexpected(event)
	}
	n.logger.Info("TicketPending", zap.String("event_id", event.ID), zap.Int64("ticket_id", payload.TicketID))
	return nil
}

func (n *NotificationService) handleTicketCompleted(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCompletedPayload)
	if !ok {
		return n.unexpected(event)
	}
	n.logger.Info("TicketCompleted",
		zap.String("event_id", event.ID),
		zap.Int64("ticket_id", payload.TicketID),
		zap.Int64("agent_id", payload.AgentID),
		zap.String("status", string(payload.Status)))
	return nil
}

func (n *NotificationService) handleSubscriptionChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SubscriptionPayload)
	if !ok {
		return n.unexpected(event)
	}
	n.logger.Info("SubscriptionChanged",
		zap.String("event_type", string(event.Type)),
		zap.Int64("agent_id", payload.AgentID),
		zap.Int64("category_id", payload.CategoryID))
	return nil
}

func (n *NotificationService) unexpected(event events.Event) error {
	n.logger.Warn("unexpected event payload", zap.String("event_type", string(event.Type)), zap.Any("payload", event.Payload))
	return nil
}
