package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/notification"
)

// SLACmd returns the sla command group.
func SLACmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sla",
		Short: "Inspect SLA classification and deadlines",
	}
	cmd.AddCommand(slaClassifyCmd())
	cmd.AddCommand(slaDueDateCmd())
	return cmd
}

func slaClassifyCmd() *cobra.Command {
	var ticketPath, rulesPath, at string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a ticket's SLA state",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(rulesPath)
			if err != nil {
				return err
			}
			ticket, err := loadTicket(ticketPath)
			if err != nil {
				return err
			}
			now, err := parseAt(at)
			if err != nil {
				return err
			}

			report := lifecycle.EvaluateSLA(ticket, rules.ThresholdTable(), now)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ticket:   %s\n", ticket.TicketNumber)
			fmt.Fprintf(out, "State:    %s\n", stateColor(report.State).Sprint(report.State))
			fmt.Fprintf(out, "Elapsed:  %s\n", notification.FormatDuration(report.Elapsed))
			fmt.Fprintf(out, "Progress: %.0f%%\n", report.Progress*100)
			fmt.Fprintf(out, "Bands:    warning %gh, critical %gh\n", report.Thresholds.WarningHours, report.Thresholds.CriticalHours)
			if report.DueDate != nil {
				due := report.DueDate.In(rules.GlobalConfig().Location)
				line := due.Format(time.RFC3339)
				if report.Overdue {
					line += " " + color.New(color.FgRed).Sprint("(overdue)")
				}
				fmt.Fprintf(out, "Due:      %s\n", line)
			} else {
				fmt.Fprintln(out, "Due:      -")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ticketPath, "ticket", "", "path to ticket JSON file")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to rules YAML file (built-in defaults when empty)")
	cmd.Flags().StringVar(&at, "at", "", "evaluation time (RFC3339)")
	_ = cmd.MarkFlagRequired("ticket")

	return cmd
}

func slaDueDateCmd() *cobra.Command {
	var priority, rulesPath, created string

	cmd := &cobra.Command{
		Use:   "due-date",
		Short: "Compute the SLA deadline for a priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(rulesPath)
			if err != nil {
				return err
			}
			p := domain.TicketPriority(priority)
			if !p.Valid() {
				return fmt.Errorf("unknown priority %q", priority)
			}
			createdAt, err := parseAt(created)
			if err != nil {
				return err
			}

			due := lifecycle.ComputeDueDate(p, rules.SLAConfigs(), nil, createdAt)
			out := cmd.OutOrStdout()
			if due == nil {
				fmt.Fprintf(out, "%s no SLA configured for %s\n", color.New(color.FgYellow).Sprint("!"), p)
				return nil
			}
			fmt.Fprintln(out, due.In(rules.GlobalConfig().Location).Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&priority, "priority", string(domain.TicketPriorityNormal), "ticket priority")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to rules YAML file (built-in defaults when empty)")
	cmd.Flags().StringVar(&created, "at", "", "ticket creation time (RFC3339)")

	return cmd
}

func stateColor(state domain.SLAState) *color.Color {
	switch state {
	case domain.SLAStateWarning:
		return color.New(color.FgYellow)
	case domain.SLAStateCritical:
		return color.New(color.FgRed, color.Bold)
	case domain.SLAStateMet:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgGreen)
	}
}
