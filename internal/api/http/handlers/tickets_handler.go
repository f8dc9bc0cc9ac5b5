package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/api/dto"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/auth"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/service"
	apperrors "github.com/valorant-dhruv/FeathersUp.ai/pkg/util/errorutil"
)

// TicketsHandler exposes ticket intake and completion.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
// Customers always file for themselves; agents must name the customer.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	customerID := req.CustomerID
	if principal.SubjectType == domain.SubjectTypeCustomer {
		customerID = principal.SubjectID
	}

	result, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		CustomerID:  customerID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreateTicketResponse{
		Ticket:        dto.NewTicketResponse(result.Ticket),
		AssignedAgent: dto.NewAgentSummary(result.AssignedAgent),
		QueueStatus:   result.QueueStatus,
	}})
}

// CompleteTicket PATCH /api/tickets/:id/complete.
func (h *TicketsHandler) CompleteTicket(c *fiber.Ctx) error {
	_, agent, err := requireAgent(c)
	if err != nil {
		return err
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CompleteTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.service.CompleteTicket(c.UserContext(), agent, ticketID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdatePriority PATCH /api/tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	if _, _, err := requireAgent(c); err != nil {
		return err
	}
	ticketID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ReprioritizeTicket(c.UserContext(), ticketID, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}
