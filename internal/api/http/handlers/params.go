package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/auth"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
	apperrors "github.com/valorant-dhruv/FeathersUp.ai/pkg/util/errorutil"
)

func parseID(c *fiber.Ctx, param string) (int64, error) {
	raw := c.Params(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+param, map[string]any{param: raw})
	}
	return id, nil
}

func requireAgent(c *fiber.Ctx) (*auth.Principal, *domain.Agent, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return nil, nil, apperrors.NewForbidden("agent required")
	}
	return principal, principal.Agent, nil
}
