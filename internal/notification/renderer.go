package notification

import (
	"regexp"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Message is a rendered subject and body.
type Message struct {
	Subject string
	Body    string
	// Missing lists placeholder keys that had no variable, sorted and
	// deduplicated. They are left in the output verbatim.
	Missing []string
}

// Render substitutes {{key}} placeholders in a single pass. Keys match
// exactly and case-sensitively; unknown keys are kept as written.
func Render(subject, body string, vars Variables) Message {
	missing := map[string]struct{}{}
	msg := Message{
		Subject: substitute(subject, vars, missing),
		Body:    substitute(body, vars, missing),
	}
	if len(missing) > 0 {
		msg.Missing = make([]string, 0, len(missing))
		for k := range missing {
			msg.Missing = append(msg.Missing, k)
		}
		sort.Strings(msg.Missing)
	}
	return msg
}

func substitute(s string, vars Variables, missing map[string]struct{}) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		key := token[2 : len(token)-2]
		if v, ok := vars[key]; ok {
			return v
		}
		missing[key] = struct{}{}
		return token
	})
}

// EventVariables resolves everything a template for event may reference.
func EventVariables(event *events.Event, g GlobalConfig, now time.Time) Variables {
	if event == nil {
		return ResolveGlobal(g, now)
	}
	maps := []Variables{ResolveGlobal(g, now)}
	if t := event.Ticket; t != nil {
		maps = append(maps,
			ResolveTicket(t, g),
			ResolveCustomer(t),
			ResolveSLA(t.DueDate, g, now),
			ResolveResolution(t, event.ResolutionNote, now),
		)
	}
	maps = append(maps, ResolveAgent(event.Actor, "actor"))

	var assignee *domain.Agent
	if event.Assignment != nil {
		assignee = event.Assignment.Assignee
	}
	maps = append(maps, ResolveAgent(assignee, "assignee"))

	switch {
	case event.StatusChange != nil:
		maps = append(maps, ResolveStatusChange(event.StatusChange.OldStatus, event.StatusChange.NewStatus, event.Actor))
	case event.Ticket != nil:
		maps = append(maps, ResolveStatusChange(event.Ticket.Status, event.Ticket.Status, event.Actor))
	}
	if event.Reply != nil {
		maps = append(maps, ResolveReply(event.Reply, g))
	}
	if esc := event.Escalation; esc != nil {
		maps = append(maps, ResolveEscalation(esc.From, esc.To))
	}
	if acc := event.Account; acc != nil {
		maps = append(maps, ResolveAccount(acc.Agent, acc.TemporaryPassword, acc.Level, g))
	}
	return Merge(maps...)
}

// RenderNotification resolves the event's variables and renders the template.
func RenderNotification(event *events.Event, subject, body string, g GlobalConfig, now time.Time) Message {
	return Render(subject, body, EventVariables(event, g, now))
}
