package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AgentsHandler exposes agent login and account endpoints.
type AgentsHandler struct {
	agents *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agents *service.AgentService) *AgentsHandler {
	return &AgentsHandler{agents: agents}
}

// Login handles POST /auth/agents/login.
func (h *AgentsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	agent, token, exp, err := h.agents.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"agent": agentResponse(agent),
			"auth":  dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Me handles GET /agents/me.
func (h *AgentsHandler) Me(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	resp := fiber.Map{"agent": agentResponse(actor.Agent)}
	if actor.Level != nil {
		resp["level"] = levelResponse(actor.Level)
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ListAgents handles GET /agents.
func (h *AgentsHandler) ListAgents(c *fiber.Ctx) error {
	filter := repository.AgentFilter{
		Limit:  parseInt(c.Query("limit"), 50),
		Offset: parseInt(c.Query("offset"), 0),
	}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		r := domain.AgentRole(role)
		filter.Role = &r
	}
	if levelID := strings.TrimSpace(c.Query("level_id")); levelID != "" {
		filter.LevelID = &levelID
	}
	if active := c.Query("active"); active != "" {
		val := active == "true"
		filter.Active = &val
	}

	agents, err := h.agents.ListAgents(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, agentResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateAgent handles POST /agents.
func (h *AgentsHandler) CreateAgent(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	agent, err := h.agents.CreateAgent(c.UserContext(), actor, service.AgentInput{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
		LevelID:  req.LevelID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": agentResponse(agent)})
}

func agentResponse(agent *domain.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:        agent.ID,
		FullName:  agent.FullName,
		Email:     agent.Email,
		Role:      agent.Role,
		LevelID:   agent.LevelID,
		IsActive:  agent.IsActive,
		CreatedAt: agent.CreatedAt,
	}
}
