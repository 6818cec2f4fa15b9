package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/lifecycle"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const actorKey = "auth_actor"

// ActorResolver loads the agent behind a token together with its level.
type ActorResolver interface {
	ResolveActor(ctx context.Context, agentID string) (lifecycle.Actor, error)
}

// AuthMiddleware validates bearer tokens and loads the acting agent.
type AuthMiddleware struct {
	tokens *TokenManager
	actors ActorResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, actors ActorResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, actors: actors}
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

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	actor, err := m.actors.ResolveActor(c.UserContext(), claims.AgentID)
	if err != nil {
		return err
	}
	if actor.Agent == nil || !actor.Agent.IsActive {
		return apperrors.NewUnauthorized("agent inactive")
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext retrieves the authenticated agent.
func ActorFromContext(c *fiber.Ctx) (lifecycle.Actor, bool) {
	actor, ok := c.Locals(actorKey).(lifecycle.Actor)
	return actor, ok
}
