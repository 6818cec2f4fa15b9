package domain

import "time"

// AgentRole enumerates internal operator roles.
type AgentRole string

const (
	AgentRoleAgent AgentRole = "agent"
	AgentRoleAdmin AgentRole = "admin"
)

// Agent models a support agent or administrator.
type Agent struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         AgentRole
	LevelID      *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName prefers the full name and falls back to the email.
func (a *Agent) DisplayName() string {
	if a == nil {
		return ""
	}
	if a.FullName != "" {
		return a.FullName
	}
	return a.Email
}

// IsAdmin reports whether the agent carries the admin role.
func (a *Agent) IsAdmin() bool {
	return a != nil && a.Role == AgentRoleAdmin
}
