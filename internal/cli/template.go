package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notification"
)

// TemplateCmd returns the template command group.
func TemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Preview notification templates",
	}
	cmd.AddCommand(templateRenderCmd())
	return cmd
}

func templateRenderCmd() *cobra.Command {
	var (
		ticketPath string
		rulesPath  string
		eventType  string
		subject    string
		body       string
		oldStatus  string
		newStatus  string
		at         string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template against a ticket JSON file",
		Long: `Render the subject and body for an event type using the rules file
template (or --subject/--body) and the ticket read from --ticket.

Placeholders without a value are listed after the output and left as written.`,
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

			et := events.EventType(eventType)
			if !et.Valid() {
				return fmt.Errorf("unknown event type %q", eventType)
			}
			if subject == "" && body == "" {
				tpl, ok := rules.Template(et)
				if !ok {
					return fmt.Errorf("no template configured for %q", eventType)
				}
				subject, body = tpl.Subject, tpl.Body
			}

			event := events.Event{Type: et, TicketID: ticket.ID, Ticket: ticket, Timestamp: now}
			if et == events.EventStatusChanged {
				from := domain.TicketStatus(oldStatus)
				if from == "" {
					from = ticket.Status
				}
				event.StatusChange = &events.StatusChange{OldStatus: from, NewStatus: domain.TicketStatus(newStatus)}
			}

			msg := notification.RenderNotification(&event, subject, body, rules.GlobalConfig(), now)
			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			fmt.Fprintf(out, "%s %s\n\n", bold.Sprint("Subject:"), msg.Subject)
			fmt.Fprintln(out, msg.Body)
			if len(msg.Missing) > 0 {
				fmt.Fprintf(out, "\n%s %s\n", color.New(color.FgYellow).Sprint("Unresolved:"), strings.Join(msg.Missing, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ticketPath, "ticket", "", "path to ticket JSON file")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to rules YAML file (built-in defaults when empty)")
	cmd.Flags().StringVar(&eventType, "event", string(events.EventTicketCreated), "event type")
	cmd.Flags().StringVar(&subject, "subject", "", "subject template override")
	cmd.Flags().StringVar(&body, "body", "", "body template override")
	cmd.Flags().StringVar(&oldStatus, "old-status", "", "previous status for status_change")
	cmd.Flags().StringVar(&newStatus, "new-status", "", "new status for status_change")
	cmd.Flags().StringVar(&at, "at", "", "evaluation time (RFC3339)")
	_ = cmd.MarkFlagRequired("ticket")

	return cmd
}
