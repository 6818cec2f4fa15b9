package lifecycle

import (
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Actor is the already-authenticated agent performing an operation together
// with the escalation level the agent belongs to.
type Actor struct {
	Agent *domain.Agent
	Level *domain.EscalationLevel
}

// IsAdmin reports whether the actor bypasses level capabilities.
func (a Actor) IsAdmin() bool {
	return a.Agent.IsAdmin()
}

// AgentID returns the acting agent id, or nil for an anonymous actor.
func (a Actor) AgentID() *string {
	if a.Agent == nil {
		return nil
	}
	id := a.Agent.ID
	return &id
}

// HasCapability resolves whether the actor may exercise c. Admins pass every
// check; everyone else needs an active level granting c.
func HasCapability(actor Actor, c domain.Capability) bool {
	if actor.Agent == nil || !actor.Agent.IsActive {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	if actor.Level == nil || !actor.Level.IsActive {
		return false
	}
	return actor.Level.HasCapability(c)
}

// Authorize returns a Forbidden error unless the actor holds c.
func Authorize(actor Actor, c domain.Capability, action string) error {
	if HasCapability(actor, c) {
		return nil
	}
	return apperrors.NewForbidden("insufficient permission to "+action, forbiddenDetails(actor, c.String()))
}

// requireWrite checks basic ticket write access: an active, identified agent.
func requireWrite(actor Actor, action string) error {
	if actor.Agent == nil || !actor.Agent.IsActive {
		return apperrors.NewForbidden("active agent required to "+action, forbiddenDetails(actor, "write"))
	}
	return nil
}

func forbiddenDetails(actor Actor, requirement string) map[string]any {
	details := map[string]any{"required": requirement}
	if actor.Agent != nil {
		details["agent_id"] = actor.Agent.ID
	}
	if actor.Level != nil {
		details["level"] = actor.Level.Code
	}
	return details
}

// CanView reports whether the actor may read ticket. Admins and holders of
// canViewAllTickets see everything; canViewTeamTickets covers tickets on the
// actor's own level; canViewOwnTickets covers tickets the actor created or
// is assigned to.
func CanView(actor Actor, ticket *domain.Ticket) bool {
	if ticket == nil {
		return false
	}
	if HasCapability(actor, domain.CapViewAllTickets) {
		return true
	}
	if HasCapability(actor, domain.CapViewTeamTickets) && actor.Level.ID == ticket.LevelID {
		return true
	}
	if HasCapability(actor, domain.CapViewOwnTickets) {
		id := actor.Agent.ID
		if ticket.CreatedByID == id || (ticket.AssigneeID != nil && *ticket.AssigneeID == id) {
			return true
		}
	}
	return false
}
