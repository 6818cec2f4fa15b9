package lifecycle

import "github.com/spec-kit/helpdesk/internal/domain"

// transitionRule is one legal edge. A zero requires means plain write access.
type transitionRule struct {
	to       domain.TicketStatus
	requires domain.Capability
}

var allowedTransitions = map[domain.TicketStatus][]transitionRule{
	domain.TicketStatusOpen: {
		{to: domain.TicketStatusInProgress},
	},
	domain.TicketStatusInProgress: {
		{to: domain.TicketStatusPending},
		{to: domain.TicketStatusResolved, requires: domain.CapResolveTicket},
	},
	domain.TicketStatusPending: {
		{to: domain.TicketStatusInProgress},
		{to: domain.TicketStatusResolved, requires: domain.CapResolveTicket},
	},
	domain.TicketStatusResolved: {
		{to: domain.TicketStatusClosed, requires: domain.CapCloseTicket},
		{to: domain.TicketStatusInProgress},
	},
	domain.TicketStatusClosed: {
		{to: domain.TicketStatusOpen},
	},
}

func lookupTransition(from, to domain.TicketStatus) (transitionRule, bool) {
	for _, rule := range allowedTransitions[from] {
		if rule.to == to {
			return rule, true
		}
	}
	return transitionRule{}, false
}

// IsValidTransition reports whether from → to is in the transition table.
func IsValidTransition(from, to domain.TicketStatus) bool {
	_, ok := lookupTransition(from, to)
	return ok
}

// TransitionRequirement returns the capability an edge needs. ok is false
// for illegal edges; a zero capability means plain write access.
func TransitionRequirement(from, to domain.TicketStatus) (domain.Capability, bool) {
	rule, ok := lookupTransition(from, to)
	return rule.requires, ok
}

// AvailableTransitions lists the statuses the actor could move the ticket to.
func AvailableTransitions(ticket *domain.Ticket, actor Actor) []domain.TicketStatus {
	if ticket == nil || requireWrite(actor, "") != nil {
		return nil
	}
	var out []domain.TicketStatus
	for _, rule := range allowedTransitions[ticket.Status] {
		if rule.requires != 0 && !HasCapability(actor, rule.requires) {
			continue
		}
		out = append(out, rule.to)
	}
	return out
}
