package domain

import (
	"strings"
	"time"
)

// Capability is a single permission granted by an escalation level.
type Capability uint16

const (
	CapViewOwnTickets Capability = 1 << iota
	CapViewTeamTickets
	CapViewAllTickets
	CapCreateTicket
	CapAssignTicket
	CapEscalateTicket
	CapResolveTicket
	CapCloseTicket
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapViewOwnTickets, "canViewOwnTickets"},
	{CapViewTeamTickets, "canViewTeamTickets"},
	{CapViewAllTickets, "canViewAllTickets"},
	{CapCreateTicket, "canCreateTicket"},
	{CapAssignTicket, "canAssignTicket"},
	{CapEscalateTicket, "canEscalateTicket"},
	{CapResolveTicket, "canResolveTicket"},
	{CapCloseTicket, "canCloseTicket"},
}

// String returns the flag name used in configuration and error details.
func (c Capability) String() string {
	for _, entry := range capabilityNames {
		if entry.cap == c {
			return entry.name
		}
	}
	return "unknown"
}

// ParseCapability maps a flag name back to its Capability.
func ParseCapability(name string) (Capability, bool) {
	for _, entry := range capabilityNames {
		if strings.EqualFold(entry.name, name) {
			return entry.cap, true
		}
	}
	return 0, false
}

// CapabilitySet is a bitmask of capabilities.
type CapabilitySet uint16

// NewCapabilitySet builds a set from individual capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var set CapabilitySet
	for _, c := range caps {
		set |= CapabilitySet(c)
	}
	return set
}

// Has reports whether c is granted.
func (s CapabilitySet) Has(c Capability) bool {
	return c != 0 && s&CapabilitySet(c) == CapabilitySet(c)
}

// With returns a copy of the set with c added.
func (s CapabilitySet) With(c Capability) CapabilitySet {
	return s | CapabilitySet(c)
}

// Without returns a copy of the set with c removed.
func (s CapabilitySet) Without(c Capability) CapabilitySet {
	return s &^ CapabilitySet(c)
}

// Names lists the granted capability names in declaration order.
func (s CapabilitySet) Names() []string {
	names := make([]string, 0, len(capabilityNames))
	for _, entry := range capabilityNames {
		if s.Has(entry.cap) {
			names = append(names, entry.name)
		}
	}
	return names
}

// EscalationLevel is an ordered support tier. Both agents and tickets
// reference a level by id.
type EscalationLevel struct {
	ID           string
	Code         string
	Name         string
	SortOrder    int
	Capabilities CapabilitySet
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasCapability reports whether the level grants c. A nil level grants nothing.
func (l *EscalationLevel) HasCapability(c Capability) bool {
	if l == nil {
		return false
	}
	return l.Capabilities.Has(c)
}
