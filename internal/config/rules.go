package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/notification"
)

// Rules is the business configuration loaded once at startup: global
// template values, SLA durations, classification thresholds and fallback
// notification templates.
type Rules struct {
	Global     GlobalRules                       `yaml:"global"`
	SLA        map[domain.TicketPriority]int     `yaml:"sla"`
	Thresholds ThresholdRules                    `yaml:"thresholds"`
	Templates  map[events.EventType]TemplateRule `yaml:"templates"`
}

// GlobalRules feeds the global template variables.
type GlobalRules struct {
	AppName      string `yaml:"appName"`
	CompanyName  string `yaml:"companyName"`
	SupportEmail string `yaml:"supportEmail"`
	BaseURL      string `yaml:"baseUrl"`
	Timezone     string `yaml:"timezone"`
}

// ThresholdRules holds the default SLA bands and per-priority overrides.
type ThresholdRules struct {
	Default    domain.SLAThresholds                           `yaml:"default"`
	ByPriority map[domain.TicketPriority]domain.SLAThresholds `yaml:"priorities"`
}

// TemplateRule is a fallback template used when no active template is
// stored for an event type.
type TemplateRule struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// DefaultRules returns the built-in rules. A rules file is merged on top.
func DefaultRules() *Rules {
	return &Rules{
		Global: GlobalRules{
			AppName:      "Helpdesk",
			CompanyName:  "Helpdesk",
			SupportEmail: "support@example.com",
			BaseURL:      "http://localhost:3000",
			Timezone:     "Asia/Jakarta",
		},
		SLA: map[domain.TicketPriority]int{
			domain.TicketPriorityLow:    72,
			domain.TicketPriorityNormal: 48,
			domain.TicketPriorityHigh:   24,
			domain.TicketPriorityUrgent: 4,
		},
		Thresholds: ThresholdRules{Default: domain.DefaultSLAThresholds},
		Templates:  defaultTemplates(),
	}
}

// LoadRules reads the YAML rules file at path. An empty path yields the
// defaults.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks the rules for errors.
func (r *Rules) Validate() error {
	var errs []error

	for priority, hours := range r.SLA {
		if !priority.Valid() {
			errs = append(errs, fmt.Errorf("sla: unknown priority %q", priority))
		}
		if hours < 0 {
			errs = append(errs, fmt.Errorf("sla.%s must not be negative", priority))
		}
	}
	if err := validateThresholds("thresholds.default", r.Thresholds.Default); err != nil {
		errs = append(errs, err)
	}
	for priority, th := range r.Thresholds.ByPriority {
		if !priority.Valid() {
			errs = append(errs, fmt.Errorf("thresholds.priorities: unknown priority %q", priority))
			continue
		}
		if err := validateThresholds("thresholds.priorities."+string(priority), th); err != nil {
			errs = append(errs, err)
		}
	}
	for eventType := range r.Templates {
		if !eventType.Valid() {
			errs = append(errs, fmt.Errorf("templates: unknown event type %q", eventType))
		}
	}
	if r.Global.Timezone != "" {
		if _, err := time.LoadLocation(r.Global.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("global.timezone: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateThresholds(field string, th domain.SLAThresholds) error {
	if th.WarningHours < 0 || th.CriticalHours < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	if th.WarningHours > 0 && th.CriticalHours > 0 && th.WarningHours > th.CriticalHours {
		return fmt.Errorf("%s: warning_hours exceeds critical_hours", field)
	}
	return nil
}

// GlobalConfig converts the global section for the variable resolver.
func (r *Rules) GlobalConfig() notification.GlobalConfig {
	loc := time.UTC
	if r.Global.Timezone != "" {
		if l, err := time.LoadLocation(r.Global.Timezone); err == nil {
			loc = l
		}
	}
	return notification.GlobalConfig{
		AppName:      r.Global.AppName,
		CompanyName:  r.Global.CompanyName,
		SupportEmail: r.Global.SupportEmail,
		BaseURL:      r.Global.BaseURL,
		Location:     loc,
	}
}

// SLAConfigs returns the configured durations, used when the database
// holds no SLA rows.
func (r *Rules) SLAConfigs() []domain.SLAConfig {
	out := make([]domain.SLAConfig, 0, len(r.SLA))
	for _, priority := range domain.TicketPriorities {
		hours, ok := r.SLA[priority]
		if !ok || hours <= 0 {
			continue
		}
		out = append(out, domain.SLAConfig{Priority: priority, DurationHrs: hours, IsActive: true})
	}
	return out
}

func (r *Rules) ThresholdTable() lifecycle.ThresholdTable {
	return lifecycle.ThresholdTable{
		Default:    r.Thresholds.Default,
		ByPriority: r.Thresholds.ByPriority,
	}
}

// Template returns the fallback template for an event type.
func (r *Rules) Template(eventType events.EventType) (TemplateRule, bool) {
	tpl, ok := r.Templates[eventType]
	return tpl, ok
}

func defaultTemplates() map[events.EventType]TemplateRule {
	return map[events.EventType]TemplateRule{
		events.EventTicketCreated: {
			Subject: "[{{ticketNumber}}] Tiket Anda telah kami terima",
			Body: "Halo {{customerName}},\n\nTiket {{ticketNumber}} ({{ticketSubject}}) telah dibuat dengan prioritas {{ticketPriority}}.\n" +
				"Target penyelesaian: {{slaDeadline}}.\nPantau status tiket di {{ticketUrl}}.\n\n{{companyName}}",
		},
		events.EventStatusChanged: {
			Subject: "[{{ticketNumber}}] Status tiket: {{newStatus}}",
			Body:    "Halo {{customerName}},\n\nStatus tiket {{ticketNumber}} berubah dari {{oldStatus}} menjadi {{newStatus}} oleh {{changedBy}}.\n{{ticketUrl}}",
		},
		events.EventReplyAdded: {
			Subject: "[{{ticketNumber}}] Balasan baru",
			Body:    "Halo {{customerName}},\n\n{{replyAuthor}} menulis pada {{replyDate}}:\n\n{{replyContent}}\n\n{{ticketUrl}}",
		},
		events.EventTicketEscalated: {
			Subject: "[{{ticketNumber}}] Dieskalasi ke {{newLevel}}",
			Body:    "Tiket {{ticketNumber}} dieskalasi dari {{oldLevel}} ke {{newLevel}} oleh {{actorName}}.\nSisa waktu SLA: {{slaRemaining}}.\n{{adminUrl}}",
		},
		events.EventTicketAssigned: {
			Subject: "[{{ticketNumber}}] Ditugaskan kepada Anda",
			Body:    "Halo {{assigneeName}},\n\nTiket {{ticketNumber}} ({{ticketPriority}}) ditugaskan kepada Anda oleh {{actorName}}.\nTenggat: {{slaDeadline}} ({{slaRemaining}}).\n{{adminUrl}}",
		},
		events.EventTicketResolved: {
			Subject: "[{{ticketNumber}}] Tiket telah diselesaikan",
			Body:    "Halo {{customerName}},\n\n{{resolutionNote}}\nWaktu penyelesaian: {{resolutionTime}}.\n{{ticketUrl}}",
		},
		events.EventTicketClosed: {
			Subject: "[{{ticketNumber}}] Tiket ditutup",
			Body:    "Halo {{customerName}},\n\nTiket {{ticketNumber}} telah ditutup. Terima kasih telah menghubungi {{companyName}}.",
		},
		events.EventUserAccountCreated: {
			Subject: "Akun {{appName}} Anda",
			Body:    "Halo {{accountName}},\n\nAkun Anda ({{accountEmail}}, level {{accountLevel}}) telah dibuat.\nKata sandi sementara: {{accountPassword}}\nMasuk di {{loginUrl}}.",
		},
	}
}
