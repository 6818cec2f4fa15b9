package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse describes issued tokens.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateAgentRequest payload.
type CreateAgentRequest struct {
	FullName string           `json:"full_name"`
	Email    string           `json:"email"`
	Role     domain.AgentRole `json:"role"`
	LevelID  *string          `json:"level_id"`
}

// AgentResponse represents an agent account.
type AgentResponse struct {
	ID        string           `json:"id"`
	FullName  string           `json:"full_name"`
	Email     string           `json:"email"`
	Role      domain.AgentRole `json:"role"`
	LevelID   *string          `json:"level_id"`
	IsActive  bool             `json:"is_active"`
	CreatedAt time.Time        `json:"created_at"`
}

// LevelResponse represents an escalation level.
type LevelResponse struct {
	ID           string   `json:"id"`
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	SortOrder    int      `json:"sort_order"`
	Capabilities []string `json:"capabilities"`
	IsActive     bool     `json:"is_active"`
}

// CategoryResponse represents a ticket category.
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
