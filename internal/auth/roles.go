package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
	apperrors "github.com/valorant-dhruv/FeathersUp.ai/pkg/util/errorutil"
)

// RequireAgent ensures an agent is authenticated.
func RequireAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeAgent || principal.Agent == nil {
			return apperrors.NewForbidden("agent required")
		}
		return c.Next()
	}
}

// RequireSuperAgent ensures the caller is a super agent.
func RequireSuperAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.IsSuperAgent() {
			return apperrors.NewForbidden("super agent required")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (customer or agent).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// CanActForAgent reports whether the caller may act on agentID's queue or subscriptions.
func CanActForAgent(principal *Principal, agentID int64) bool {
	if principal == nil || principal.Agent == nil {
		return false
	}
	return principal.Agent.ID == agentID || principal.Agent.IsSuperAgent
}
