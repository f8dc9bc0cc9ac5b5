package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/api/dto"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/auth"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/service"
	apperrors "github.com/valorant-dhruv/FeathersUp.ai/pkg/util/errorutil"
)

// AgentsHandler manages category subscriptions.
type AgentsHandler struct {
	assignment *service.AssignmentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(assignment *service.AssignmentService) *AgentsHandler {
	return &AgentsHandler{assignment: assignment}
}

// Subscribe POST /api/agents/:id/categories.
func (h *AgentsHandler) Subscribe(c *fiber.Ctx) error {
	agentID, err := h.authorize(c)
	if err != nil {
		return err
	}
	var req dto.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.assignment.SubscribeAgentToCategories(c.UserContext(), agentID, req.CategoryIDs); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SubscriptionResponse{AgentID: agentID, CategoryIDs: req.CategoryIDs}})
}

// Unsubscribe DELETE /api/agents/:id/categories/:categoryId.
func (h *AgentsHandler) Unsubscribe(c *fiber.Ctx) error {
	agentID, err := h.authorize(c)
	if err != nil {
		return err
	}
	categoryID, err := parseID(c, "categoryId")
	if err != nil {
		return err
	}
	if err := h.assignment.UnsubscribeAgentFromCategory(c.UserContext(), agentID, categoryID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SubscriptionResponse{AgentID: agentID, CategoryIDs: []int64{categoryID}}})
}

func (h *AgentsHandler) authorize(c *fiber.Ctx) (int64, error) {
	principal, _, err := requireAgent(c)
	if err != nil {
		return 0, err
	}
	agentID, err := parseID(c, "id")
	if err != nil {
		return 0, err
	}
	if !auth.CanActForAgent(principal, agentID) {
		return 0, apperrors.NewForbidden("cannot manage another agent's subscriptions")
	}
	return agentID, nil
}
