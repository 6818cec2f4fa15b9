package notification

import "github.com/spec-kit/helpdesk/internal/domain"

type label struct {
	text  string
	color string
}

var statusLabels = map[domain.TicketStatus]label{
	domain.TicketStatusOpen:       {"Terbuka", "#3B82F6"},
	domain.TicketStatusInProgress: {"Sedang Diproses", "#F59E0B"},
	domain.TicketStatusPending:    {"Menunggu", "#8B5CF6"},
	domain.TicketStatusResolved:   {"Selesai", "#10B981"},
	domain.TicketStatusClosed:     {"Ditutup", "#6B7280"},
}

var priorityLabels = map[domain.TicketPriority]label{
	domain.TicketPriorityLow:    {"Rendah", "#6B7280"},
	domain.TicketPriorityNormal: {"Normal", "#3B82F6"},
	domain.TicketPriorityHigh:   {"Tinggi", "#F97316"},
	domain.TicketPriorityUrgent: {"Mendesak", "#EF4444"},
}

var sourceLabels = map[domain.TicketSource]string{
	domain.TicketSourcePhone:  "Telepon",
	domain.TicketSourceEmail:  "Email",
	domain.TicketSourceWalkIn: "Datang Langsung",
	domain.TicketSourceWeb:    "Web",
}

const defaultColor = "#6B7280"

// StatusLabel returns the display label for a status; unknown values are
// shown raw.
func StatusLabel(s domain.TicketStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l.text
	}
	return orDash(string(s))
}

// StatusColor returns the badge color for a status.
func StatusColor(s domain.TicketStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l.color
	}
	return defaultColor
}

func PriorityLabel(p domain.TicketPriority) string {
	if l, ok := priorityLabels[p]; ok {
		return l.text
	}
	return orDash(string(p))
}

func PriorityColor(p domain.TicketPriority) string {
	if l, ok := priorityLabels[p]; ok {
		return l.color
	}
	return defaultColor
}

func sourceLabel(s domain.TicketSource) string {
	if l, ok := sourceLabels[s]; ok {
		return l
	}
	return orDash(string(s))
}
