package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
	apperrors "github.com/valorant-dhruv/FeathersUp.ai/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AgentLookup loads agents by id.
type AgentLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
}

// Principal represents the authenticated caller. Agent is set for agent tokens only.
type Principal struct {
	SubjectType domain.SubjectType
	SubjectID   int64
	Agent       *domain.Agent
}

// IsSuperAgent reports whether the caller is an active super agent.
func (p *Principal) IsSuperAgent() bool {
	return p != nil && p.Agent != nil && p.Agent.IsSuperAgent
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	agents AgentLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, agents AgentLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, agents: agents}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	subjectID, err := claims.SubjectID()
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject, SubjectID: subjectID}

	switch claims.Subject {
	case domain.SubjectTypeCustomer:
	case domain.SubjectTypeAgent:
		agent, err := m.agents.GetByID(c.UserContext(), subjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("agent not found")
			}
			return apperrors.MapError(err)
		}
		if !agent.IsActive() {
			return apperrors.NewForbidden("agent account is not active")
		}
		principal.Agent = agent
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
