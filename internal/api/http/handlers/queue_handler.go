package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/api/dto"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/auth"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/service"
	apperrors "github.com/valorant-dhruv/FeathersUp.ai/pkg/util/errorutil"
)

// QueueHandler exposes agent queues.
type QueueHandler struct {
	tickets    *service.TicketService
	assignment *service.AssignmentService
}

// NewQueueHandler constructs handler.
func NewQueueHandler(tickets *service.TicketService, assignment *service.AssignmentService) *QueueHandler {
	return &QueueHandler{tickets: tickets, assignment: assignment}
}

// NextTicket GET /api/tickets/queue/next. Pops the caller's queue.
func (h *QueueHandler) NextTicket(c *fiber.Ctx) error {
	_, agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	result, err := h.tickets.NextTicket(c.UserContext(), agent.ID)
	if err != nil {
		return err
	}
	resp := dto.NextTicketResponse{}
	if result != nil {
		ticket := dto.NewTicketResponse(result.Ticket)
		resp.Ticket = &ticket
		resp.QueueInfo = &dto.QueueInfo{
			Priority:       result.Entry.Priority,
			QueueEnteredAt: result.Entry.QueueEnteredAt,
		}
	}
	return c.JSON(fiber.Map{"data": resp})
}

// AgentQueue GET /api/tickets/queue/agent/:agentId?.
func (h *QueueHandler) AgentQueue(c *fiber.Ctx) error {
	principal, agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	agentID := agent.ID
	if c.Params("agentId") != "" {
		if agentID, err = parseID(c, "agentId"); err != nil {
			return err
		}
	}
	if !auth.CanActForAgent(principal, agentID) {
		return apperrors.NewForbidden("cannot view another agent's queue")
	}
	return c.JSON(fiber.Map{"data": dto.AgentQueueResponse{
		AgentID:     agentID,
		QueueStatus: h.tickets.AgentQueueInfo(agentID),
	}})
}

// SystemStats GET /api/tickets/queue/system/stats.
func (h *QueueHandler) SystemStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.assignment.GetSystemQueueStats()})
}
