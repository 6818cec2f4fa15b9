package domain

// SLAConfig maps a priority to its target resolution duration.
type SLAConfig struct {
	ID          string
	Priority    TicketPriority
	DurationHrs int
	IsActive    bool
}

// SLAThresholds bound the elapsed-time bands used for display and alerting.
type SLAThresholds struct {
	WarningHours  float64 `yaml:"warning_hours"`
	CriticalHours float64 `yaml:"critical_hours"`
}

// DefaultSLAThresholds applies when nothing is configured for a priority.
var DefaultSLAThresholds = SLAThresholds{WarningHours: 24, CriticalHours: 48}

// SLAState classifies elapsed ticket time.
type SLAState string

const (
	SLAStateNormal   SLAState = "normal"
	SLAStateWarning  SLAState = "warning"
	SLAStateCritical SLAState = "critical"
	SLAStateMet      SLAState = "met"
)
