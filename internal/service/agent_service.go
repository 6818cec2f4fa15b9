package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AgentService coordinates agent login, actor resolution and account
// creation.
type AgentService struct {
	agents     repository.AgentRepository
	levels     repository.LevelRepository
	tokens     *auth.TokenManager
	bcryptCost int
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AgentDependencies bundles collaborators for the agent service.
type AgentDependencies struct {
	AgentRepo  repository.AgentRepository
	LevelRepo  repository.LevelRepository
	Tokens     *auth.TokenManager
	BcryptCost int
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// AgentInput describes a new agent account.
type AgentInput struct {
	FullName string
	Email    string
	Role     domain.AgentRole
	LevelID  *string
}

// NewAgentService builds the service.
func NewAgentService(deps AgentDependencies) *AgentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentService{
		agents:     deps.AgentRepo,
		levels:     deps.LevelRepo,
		tokens:     deps.Tokens,
		bcryptCost: deps.BcryptCost,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates an agent and issues an access token.
func (s *AgentService) Login(ctx context.Context, email, password string) (*domain.Agent, string, time.Time, error) {
	agent, err := s.agents.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(agent.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !agent.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("agent inactive")
	}
	token, exp, err := s.tokens.GenerateToken(agent)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return agent, token, exp, nil
}

// ResolveActor loads the agent and its level. A level that no longer
// exists leaves the actor without capabilities.
func (s *AgentService) ResolveActor(ctx context.Context, agentID string) (lifecycle.Actor, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return lifecycle.Actor{}, apperrors.NewUnauthorized("agent not found")
		}
		return lifecycle.Actor{}, apperrors.MapError(err)
	}
	actor := lifecycle.Actor{Agent: agent}
	if agent.LevelID == nil {
		return actor, nil
	}
	level, err := s.levels.GetByID(ctx, *agent.LevelID)
	switch {
	case err == nil:
		actor.Level = level
	case repository.IsNotFound(err):
		s.logger.Warn("agent references missing level",
			zap.String("agent_id", agent.ID),
			zap.String("level_id", *agent.LevelID))
	default:
		return lifecycle.Actor{}, apperrors.MapError(err)
	}
	return actor, nil
}

// ListAgents returns agents matching filter.
func (s *AgentService) ListAgents(ctx context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	agents, err := s.agents.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

// CreateAgent creates an account with a generated temporary password and
// publishes the account notification carrying it. Admin only.
func (s *AgentService) CreateAgent(ctx context.Context, actor lifecycle.Actor, input AgentInput) (*domain.Agent, error) {
	if !actor.IsAdmin() || !actor.Agent.IsActive {
		return nil, apperrors.NewForbidden("admin role required to create agents", map[string]any{"required": "admin"})
	}
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Role == "" {
		input.Role = domain.AgentRoleAgent
	}

	details := map[string]any{}
	if input.FullName == "" {
		details["full_name"] = "required"
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		details["email"] = "invalid"
	}
	if input.Role != domain.AgentRoleAgent && input.Role != domain.AgentRoleAdmin {
		details["role"] = "invalid"
	}
	if input.Role == domain.AgentRoleAgent && (input.LevelID == nil || strings.TrimSpace(*input.LevelID) == "") {
		details["level_id"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid agent", details)
	}

	var level *domain.EscalationLevel
	if input.LevelID != nil && strings.TrimSpace(*input.LevelID) != "" {
		levelID := strings.TrimSpace(*input.LevelID)
		found, err := s.levels.GetByID(ctx, levelID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, apperrors.NewValidationError("escalation level unavailable", map[string]any{"level_id": levelID})
			}
			return nil, apperrors.MapError(err)
		}
		if !found.IsActive {
			return nil, apperrors.NewValidationError("escalation level unavailable", map[string]any{"level_id": levelID})
		}
		level = found
	}

	if _, err := s.agents.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !repository.IsNotFound(err) {
		return nil, apperrors.MapError(err)
	}

	password := auth.GenerateTemporaryPassword()
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	agent := &domain.Agent{
		ID:           uuid.NewString(),
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if level != nil {
		agent.LevelID = &level.ID
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserAccountCreated,
			Actor:     actor.Agent,
			Timestamp: now,
			Account: &events.Account{
				Agent:             agent,
				TemporaryPassword: password,
				Level:             level,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("account notification failed", zap.String("agent_id", agent.ID), zap.Error(err))
		}
	}
	return agent, nil
}
