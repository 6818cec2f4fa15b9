package lifecycle

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// LookupSLA finds the active configuration for a priority.
func LookupSLA(priority domain.TicketPriority, configs []domain.SLAConfig) (domain.SLAConfig, bool) {
	for _, cfg := range configs {
		if cfg.Priority == priority && cfg.IsActive && cfg.DurationHrs > 0 {
			return cfg, true
		}
	}
	return domain.SLAConfig{}, false
}

// ComputeDueDate returns the SLA deadline for a priority. A manual override
// always wins. A priority without configuration yields nil, which leaves SLA
// tracking inactive for the ticket.
func ComputeDueDate(priority domain.TicketPriority, configs []domain.SLAConfig, manualOverride *time.Time, now time.Time) *time.Time {
	if manualOverride != nil {
		due := *manualOverride
		return &due
	}
	cfg, ok := LookupSLA(priority, configs)
	if !ok {
		return nil
	}
	due := now.Add(time.Duration(cfg.DurationHrs) * time.Hour)
	return &due
}

// ThresholdTable holds the default classification bands plus optional
// per-priority overrides.
type ThresholdTable struct {
	Default    domain.SLAThresholds
	ByPriority map[domain.TicketPriority]domain.SLAThresholds
}

// For returns the thresholds that apply to priority.
func (t ThresholdTable) For(priority domain.TicketPriority) domain.SLAThresholds {
	if th, ok := t.ByPriority[priority]; ok {
		return normalizeThresholds(th, t.Default)
	}
	return normalizeThresholds(t.Default, domain.DefaultSLAThresholds)
}

func normalizeThresholds(th, fallback domain.SLAThresholds) domain.SLAThresholds {
	if fallback.WarningHours <= 0 {
		fallback.WarningHours = domain.DefaultSLAThresholds.WarningHours
	}
	if fallback.CriticalHours <= 0 {
		fallback.CriticalHours = domain.DefaultSLAThresholds.CriticalHours
	}
	if th.WarningHours <= 0 {
		th.WarningHours = fallback.WarningHours
	}
	if th.CriticalHours <= 0 {
		th.CriticalHours = fallback.CriticalHours
	}
	return th
}

// Elapsed measures ticket age: up to the first resolution for resolved or
// closed tickets, otherwise up to now. Negative spans clamp to zero.
func Elapsed(ticket *domain.Ticket, now time.Time) time.Duration {
	end := now
	if ticket.IsTerminal() {
		switch {
		case ticket.ResolvedAt != nil:
			end = *ticket.ResolvedAt
		case ticket.ClosedAt != nil:
			end = *ticket.ClosedAt
		}
	}
	elapsed := end.Sub(ticket.CreatedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// ClassifySLA buckets elapsed time into Normal/Warning/Critical. Resolved and
// closed tickets are always Met.
func ClassifySLA(ticket *domain.Ticket, thresholds domain.SLAThresholds, now time.Time) domain.SLAState {
	if ticket.IsTerminal() {
		return domain.SLAStateMet
	}
	th := normalizeThresholds(thresholds, domain.DefaultSLAThresholds)
	hours := Elapsed(ticket, now).Hours()
	switch {
	case hours >= th.CriticalHours:
		return domain.SLAStateCritical
	case hours >= th.WarningHours:
		return domain.SLAStateWarning
	default:
		return domain.SLAStateNormal
	}
}

// SLAProgress returns elapsed/critical clamped to [0, 1].
func SLAProgress(ticket *domain.Ticket, thresholds domain.SLAThresholds, now time.Time) float64 {
	th := normalizeThresholds(thresholds, domain.DefaultSLAThresholds)
	ratio := Elapsed(ticket, now).Hours() / th.CriticalHours
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}

// SLAReport bundles the display values for one ticket.
type SLAReport struct {
	State       domain.SLAState
	Progress    float64
	Elapsed     time.Duration
	DueDate     *time.Time
	Overdue     bool
	Thresholds  domain.SLAThresholds
	EvaluatedAt time.Time
}

// EvaluateSLA computes the full report for a ticket at now.
func EvaluateSLA(ticket *domain.Ticket, table ThresholdTable, now time.Time) SLAReport {
	th := table.For(ticket.Priority)
	report := SLAReport{
		State:       ClassifySLA(ticket, th, now),
		Progress:    SLAProgress(ticket, th, now),
		Elapsed:     Elapsed(ticket, now),
		Thresholds:  th,
		EvaluatedAt: now,
	}
	if ticket.DueDate != nil {
		due := *ticket.DueDate
		report.DueDate = &due
		report.Overdue = !ticket.IsTerminal() && now.After(due)
	}
	return report
}
