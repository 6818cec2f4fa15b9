package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/notification"
	"github.com/spec-kit/helpdesk/internal/persistence"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type fixture struct {
	tickets    *memTickets
	messages   *memMessages
	history    *memHistory
	levels     *memLevels
	agents     *memAgents
	dispatcher *recordingDispatcher
	locker     *fakeLocker
	svc        *TicketService
	assign     *AssignmentService
}

func newFixture() *fixture {
	clock := &tickClock{now: baseTime}
	inactive := &domain.Agent{ID: "agent-gone", Email: "gone@helpdesk.test", Role: domain.AgentRoleAgent}
	f := &fixture{
		tickets:    newMemTickets(),
		messages:   &memMessages{},
		history:    &memHistory{},
		levels:     &memLevels{levels: testLevels()},
		agents:     newMemAgents(agentAt(0), agentAt(1), agentAt(2), inactive),
		dispatcher: &recordingDispatcher{},
		locker:     &fakeLocker{},
	}
	categories := &memCategories{categories: []domain.Category{
		{ID: "cat-network", Name: "Jaringan", IsActive: true},
		{ID: "cat-legacy", Name: "Fax", IsActive: false},
	}}
	deps := TicketDependencies{
		Engine:       lifecycle.NewEngine(lifecycle.WithClock(clock.Now)),
		TicketRepo:   f.tickets,
		MessageRepo:  f.messages,
		HistoryRepo:  f.history,
		LevelRepo:    f.levels,
		SLARepo:      &memSLA{},
		AgentRepo:    f.agents,
		CategoryRepo: categories,
		Rules:        config.DefaultRules(),
		Locker:       f.locker,
		Dispatcher:   f.dispatcher,
	}
	f.svc = NewTicketService(deps)
	f.assign = NewAssignmentService(deps)
	return f
}

func (f *fixture) seed(id string, status domain.TicketStatus, levelID string) *domain.Ticket {
	ticket := &domain.Ticket{
		ID:            id,
		TicketNumber:  "TCK-20261015-" + id,
		Priority:      domain.TicketPriorityNormal,
		Source:        domain.TicketSourceEmail,
		Status:        status,
		LevelID:       levelID,
		CreatedAt:     baseTime.Add(-2 * time.Hour),
		UpdatedAt:     baseTime.Add(-2 * time.Hour),
		CustomerName:  "Budi Santoso",
		CustomerEmail: "budi@example.com",
		Subject:       "Printer offline",
	}
	f.tickets.put(ticket)
	return ticket
}

// seedOwned seeds a ticket created by ownerID, visible to that agent through
// canViewOwnTickets.
func (f *fixture) seedOwned(id string, status domain.TicketStatus, levelID, ownerID string) *domain.Ticket {
	ticket := f.seed(id, status, levelID)
	ticket.CreatedByID = ownerID
	f.tickets.put(ticket)
	return ticket
}

func TestCreateTicket_PersistsAndPublishes(t *testing.T) {
	f := newFixture()
	ticket, err := f.svc.CreateTicket(context.Background(), actorAt(0), lifecycle.TicketInput{
		Priority:      domain.TicketPriorityUrgent,
		CustomerName:  "Budi Santoso",
		CustomerEmail: "budi@example.com",
		Subject:       "Server down",
	})
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}

	if ticket.Status != domain.TicketStatusOpen || ticket.LevelID != "lvl-1" {
		t.Errorf("ticket = status %s level %s", ticket.Status, ticket.LevelID)
	}
	if ticket.DueDate == nil || !ticket.DueDate.Equal(ticket.CreatedAt.Add(4*time.Hour)) {
		t.Errorf("DueDate = %v, want created + 4h from rules fallback", ticket.DueDate)
	}
	if ticket.CreatedByID != "agent-L1" {
		t.Errorf("CreatedByID = %q", ticket.CreatedByID)
	}
	if _, err := f.tickets.GetByID(context.Background(), ticket.ID); err != nil {
		t.Errorf("ticket not stored: %v", err)
	}
	if got := f.history.types(); !reflect.DeepEqual(got, []domain.TicketChangeType{domain.ChangeTypeCreated}) {
		t.Errorf("history = %v", got)
	}
	if got := f.dispatcher.types(); !reflect.DeepEqual(got, []events.EventType{events.EventTicketCreated}) {
		t.Errorf("events = %v", got)
	}
}

func TestCreateTicket_Category(t *testing.T) {
	f := newFixture()
	ticket, err := f.svc.CreateTicket(context.Background(), actorAt(0), lifecycle.TicketInput{
		CategoryID:    " cat-network ",
		CustomerName:  "Budi Santoso",
		CustomerEmail: "budi@example.com",
		Subject:       "Wifi putus",
	})
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}
	if ticket.CategoryID != "cat-network" || ticket.CategoryName != "Jaringan" {
		t.Errorf("category = %q %q", ticket.CategoryID, ticket.CategoryName)
	}

	event := f.dispatcher.published[0]
	vars := notification.EventVariables(&event, config.DefaultRules().GlobalConfig(), baseTime)
	if vars["ticketCategory"] != "Jaringan" {
		t.Errorf("ticketCategory = %q, want Jaringan", vars["ticketCategory"])
	}

	for _, id := range []string{"cat-missing", "cat-legacy"} {
		t.Run(id, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.CreateTicket(context.Background(), actorAt(0), lifecycle.TicketInput{
				CategoryID:    id,
				CustomerName:  "Budi",
				CustomerEmail: "budi@example.com",
				Subject:       "Help",
			})
			if got := apperrors.CodeOf(err); got != "VALIDATION_FAILED" {
				t.Errorf("error code = %q, want VALIDATION_FAILED (err %v)", got, err)
			}
			if len(f.tickets.tickets) != 0 || len(f.dispatcher.published) != 0 {
				t.Error("rejected create must not persist or publish")
			}
		})
	}
}

func TestCreateTicket_RenumbersOnCollision(t *testing.T) {
	f := newFixture()
	taken := f.seed("T0", domain.TicketStatusOpen, "lvl-1")
	taken.TicketNumber = "TCK-20261015-C0FFEE00"
	f.tickets.put(taken)

	clock := &tickClock{now: baseTime}
	svc := NewTicketService(TicketDependencies{
		Engine: lifecycle.NewEngine(
			lifecycle.WithClock(clock.Now),
			lifecycle.WithIDGenerator(func() string { return "c0ffee00-0000-4000-8000-000000000001" }),
		),
		TicketRepo:  f.tickets,
		MessageRepo: f.messages,
		HistoryRepo: f.history,
		LevelRepo:   f.levels,
		SLARepo:     &memSLA{},
		AgentRepo:   f.agents,
		Dispatcher:  f.dispatcher,
	})

	ticket, err := svc.CreateTicket(context.Background(), actorAt(0), lifecycle.TicketInput{
		CustomerName:  "Budi Santoso",
		CustomerEmail: "budi@example.com",
		Subject:       "Server down",
	})
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}
	if ticket.TicketNumber == taken.TicketNumber || !strings.HasPrefix(ticket.TicketNumber, "TCK-20261015-") || len(ticket.TicketNumber) != len(taken.TicketNumber) {
		t.Errorf("TicketNumber = %q, want a fresh 8-character suffix", ticket.TicketNumber)
	}
	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil || stored.TicketNumber != ticket.TicketNumber {
		t.Errorf("stored ticket = %v, %v", stored, err)
	}
	if event := f.dispatcher.published[0]; event.Ticket.TicketNumber != ticket.TicketNumber {
		t.Errorf("event ticket number = %q, want %q", event.Ticket.TicketNumber, ticket.TicketNumber)
	}
}

func TestCreateTicket_Rejected(t *testing.T) {
	ghost := "ghost"
	inactive := "agent-gone"
	noLevel := lifecycle.Actor{Agent: agentAt(0)}

	tests := []struct {
		name     string
		actor    lifecycle.Actor
		assignee *string
		wantCode string
	}{
		{"actor without level", noLevel, nil, "FORBIDDEN"},
		{"unknown assignee", actorAt(1), &ghost, "VALIDATION_FAILED"},
		{"inactive assignee", actorAt(1), &inactive, "VALIDATION_FAILED"},
		{"assign without capability", actorAt(0), &ghost, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.CreateTicket(context.Background(), tt.actor, lifecycle.TicketInput{
				CustomerName:  "Budi",
				CustomerEmail: "budi@example.com",
				Subject:       "Help",
				AssigneeID:    tt.assignee,
			})
			if got := apperrors.CodeOf(err); got != tt.wantCode {
				t.Errorf("error code = %q, want %q (err %v)", got, tt.wantCode, err)
			}
			if len(f.tickets.tickets) != 0 || len(f.dispatcher.published) != 0 {
				t.Error("rejected create must not persist or publish")
			}
		})
	}
}

func TestChangeStatus_Resolve(t *testing.T) {
	f := newFixture()
	f.seed("T1", domain.TicketStatusInProgress, "lvl-2")

	ticket, err := f.svc.ChangeStatus(context.Background(), actorAt(1), "T1", domain.TicketStatusResolved, " Kabel diganti ")
	if err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	if ticket.Status != domain.TicketStatusResolved || ticket.ResolvedAt == nil {
		t.Errorf("ticket = %+v", ticket)
	}
	stored, _ := f.tickets.GetByID(context.Background(), "T1")
	if stored.Status != domain.TicketStatusResolved {
		t.Errorf("stored status = %s", stored.Status)
	}
	if len(f.dispatcher.published) != 1 {
		t.Fatalf("published %d events, want 1", len(f.dispatcher.published))
	}
	event := f.dispatcher.published[0]
	if event.Type != events.EventTicketResolved || event.ResolutionNote != "Kabel diganti" {
		t.Errorf("event = %s note %q", event.Type, event.ResolutionNote)
	}
	if got := f.history.types(); !reflect.DeepEqual(got, []domain.TicketChangeType{domain.ChangeTypeStatus}) {
		t.Errorf("history = %v", got)
	}
	if !reflect.DeepEqual(f.locker.locked, []string{"T1"}) || f.locker.released != 1 {
		t.Errorf("lock usage = %v released %d", f.locker.locked, f.locker.released)
	}
}

func TestChangeStatus_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		id      string
		to      domain.TicketStatus
		wantErr error
	}{
		{
			name:    "illegal edge",
			id:      "T1",
			to:      domain.TicketStatusResolved,
			wantErr: apperrors.ErrInvalidTransition,
		},
		{
			name:    "missing ticket",
			id:      "missing",
			to:      domain.TicketStatusInProgress,
			wantErr: apperrors.ErrNotFound,
		},
		{
			name: "stale write",
			setup: func(f *fixture) {
				f.tickets.beforeUpdate = func(stored *domain.Ticket) {
					stored.UpdatedAt = stored.UpdatedAt.Add(time.Second)
				}
			},
			id:      "T1",
			to:      domain.TicketStatusInProgress,
			wantErr: apperrors.ErrConcurrentModification,
		},
		{
			name:    "lock held elsewhere",
			setup:   func(f *fixture) { f.locker.err = persistence.ErrLockHeld },
			id:      "T1",
			to:      domain.TicketStatusInProgress,
			wantErr: apperrors.ErrConcurrentModification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			before := f.seed("T1", domain.TicketStatusOpen, "lvl-2")
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.svc.ChangeStatus(context.Background(), actorAt(1), tt.id, tt.to, "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ChangeStatus() error = %v, want %v", err, tt.wantErr)
			}
			if f.tickets.updates != 0 || len(f.dispatcher.published) != 0 || len(f.history.entries) != 0 {
				t.Error("failed operation must not save, publish or record history")
			}
			stored, _ := f.tickets.GetByID(context.Background(), "T1")
			if stored.Status != before.Status {
				t.Errorf("stored status = %s", stored.Status)
			}
		})
	}
}

func TestChangePriority_HistoryWithoutEvent(t *testing.T) {
	f := newFixture()
	f.seedOwned("T1", domain.TicketStatusOpen, "lvl-1", "agent-L1")

	ticket, err := f.svc.ChangePriority(context.Background(), actorAt(0), "T1", domain.TicketPriorityHigh)
	if err != nil {
		t.Fatalf("ChangePriority() error = %v", err)
	}
	if ticket.DueDate == nil || !ticket.DueDate.Equal(ticket.UpdatedAt.Add(24*time.Hour)) {
		t.Errorf("DueDate = %v, want updated + 24h", ticket.DueDate)
	}
	want := []domain.TicketChangeType{domain.ChangeTypePriority, domain.ChangeTypeDueDate}
	if got := f.history.types(); !reflect.DeepEqual(got, want) {
		t.Errorf("history = %v, want %v", got, want)
	}
	if len(f.dispatcher.published) != 0 {
		t.Errorf("priority change published %v", f.dispatcher.types())
	}

	// Same priority again is a no-op and skips the save.
	if _, err := f.svc.ChangePriority(context.Background(), actorAt(0), "T1", domain.TicketPriorityHigh); err != nil {
		t.Fatalf("repeat ChangePriority() error = %v", err)
	}
	if f.tickets.updates != 1 {
		t.Errorf("updates = %d, want 1", f.tickets.updates)
	}
}

func TestSetDueDate_Override(t *testing.T) {
	f := newFixture()
	f.seedOwned("T1", domain.TicketStatusOpen, "lvl-1", "agent-L1")
	due := baseTime.Add(72 * time.Hour)

	ticket, err := f.svc.SetDueDate(context.Background(), actorAt(0), "T1", &due)
	if err != nil {
		t.Fatalf("SetDueDate() error = %v", err)
	}
	if !ticket.DueDateOverridden || !ticket.DueDate.Equal(due) {
		t.Errorf("ticket due = %v overridden %v", ticket.DueDate, ticket.DueDateOverridden)
	}
	if got := f.history.types(); !reflect.DeepEqual(got, []domain.TicketChangeType{domain.ChangeTypeDueDate}) {
		t.Errorf("history = %v", got)
	}
}

func TestRepliesAndNotes(t *testing.T) {
	f := newFixture()
	f.seed("T1", domain.TicketStatusInProgress, "lvl-2")
	ctx := context.Background()

	reply, err := f.svc.AddReply(ctx, actorAt(1), "T1", lifecycle.MessageInput{Content: "Sudah kami cek"})
	if err != nil {
		t.Fatalf("AddReply() error = %v", err)
	}
	if reply.AuthorType != domain.AuthorTypeAgent || reply.MessageType != domain.MessageTypeReply {
		t.Errorf("reply = %+v", reply)
	}
	if _, err := f.svc.AddNote(ctx, actorAt(1), "T1", lifecycle.MessageInput{Content: "cek kabel LAN"}); err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}

	if got := f.dispatcher.types(); !reflect.DeepEqual(got, []events.EventType{events.EventReplyAdded}) {
		t.Errorf("events = %v, notes must not notify", got)
	}
	want := []domain.TicketChangeType{domain.ChangeTypeReply, domain.ChangeTypeNote}
	if got := f.history.types(); !reflect.DeepEqual(got, want) {
		t.Errorf("history = %v, want %v", got, want)
	}

	ticket, err := f.svc.GetTicket(ctx, actorAt(1), "T1")
	if err != nil {
		t.Fatalf("GetTicket() error = %v", err)
	}
	if len(ticket.Replies) != 1 || len(ticket.Notes) != 1 {
		t.Errorf("replies %d notes %d", len(ticket.Replies), len(ticket.Notes))
	}

	tracked, err := f.svc.TrackTicket(ctx, "TCK-20261015-T1")
	if err != nil {
		t.Fatalf("TrackTicket() error = %v", err)
	}
	if len(tracked.Replies) != 1 || tracked.Notes != nil {
		t.Errorf("tracked replies %d notes %v", len(tracked.Replies), tracked.Notes)
	}
}

func TestAddCustomerReply(t *testing.T) {
	f := newFixture()
	f.seed("T1", domain.TicketStatusPending, "lvl-2")
	ctx := context.Background()

	if _, err := f.svc.AddCustomerReply(ctx, "TCK-20261015-T1", "someone@else.com", lifecycle.MessageInput{Content: "halo"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("mismatched email error = %v, want not found", err)
	}

	reply, err := f.svc.AddCustomerReply(ctx, "TCK-20261015-T1", "BUDI@example.com", lifecycle.MessageInput{Content: "Masih mati"})
	if err != nil {
		t.Fatalf("AddCustomerReply() error = %v", err)
	}
	if reply.AuthorType != domain.AuthorTypeCustomer || reply.AuthorName != "Budi Santoso" {
		t.Errorf("reply = %+v", reply)
	}
	if got := f.dispatcher.types(); !reflect.DeepEqual(got, []events.EventType{events.EventReplyAdded}) {
		t.Errorf("events = %v", got)
	}
	if f.history.entries[0].ChangedByID != nil {
		t.Errorf("customer reply history should have no agent, got %v", *f.history.entries[0].ChangedByID)
	}
}

func TestGetTicket_Visibility(t *testing.T) {
	f := newFixture()
	f.seed("T1", domain.TicketStatusOpen, "lvl-2")

	if _, err := f.svc.GetTicket(context.Background(), actorAt(0), "T1"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("L1 GetTicket() error = %v, want forbidden", err)
	}
	if _, err := f.svc.GetTicket(context.Background(), actorAt(1), "T1"); err != nil {
		t.Errorf("L2 GetTicket() error = %v", err)
	}
	if _, _, err := f.svc.GetSLA(context.Background(), actorAt(0), "T1"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("L1 GetSLA() error = %v, want forbidden", err)
	}
}

func TestTicketWrites_RequireVisibility(t *testing.T) {
	ctx := context.Background()
	due := baseTime.Add(48 * time.Hour)
	msg := lifecycle.MessageInput{Content: "sudah dicek"}

	writes := []struct {
		name string
		run  func(f *fixture) error
	}{
		{"change status", func(f *fixture) error {
			_, err := f.svc.ChangeStatus(ctx, actorAt(0), "T1", domain.TicketStatusInProgress, "")
			return err
		}},
		{"change priority", func(f *fixture) error {
			_, err := f.svc.ChangePriority(ctx, actorAt(0), "T1", domain.TicketPriorityUrgent)
			return err
		}},
		{"set due date", func(f *fixture) error {
			_, err := f.svc.SetDueDate(ctx, actorAt(0), "T1", &due)
			return err
		}},
		{"add reply", func(f *fixture) error {
			_, err := f.svc.AddReply(ctx, actorAt(0), "T1", msg)
			return err
		}},
		{"add note", func(f *fixture) error {
			_, err := f.svc.AddNote(ctx, actorAt(0), "T1", msg)
			return err
		}},
		{"escalate", func(f *fixture) error {
			_, err := f.assign.Escalate(ctx, actorAt(0), "T1")
			return err
		}},
		{"unassign", func(f *fixture) error {
			_, err := f.assign.Assign(ctx, actorAt(0), "T1", nil)
			return err
		}},
	}

	for _, tt := range writes {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.seed("T1", domain.TicketStatusOpen, "lvl-2")

			if err := tt.run(f); !errors.Is(err, apperrors.ErrForbidden) {
				t.Fatalf("error = %v, want forbidden", err)
			}
			if f.tickets.updates != 0 || len(f.messages.messages) != 0 || len(f.dispatcher.published) != 0 || len(f.history.entries) != 0 {
				t.Error("write on a hidden ticket must not save, publish or record history")
			}
			stored, _ := f.tickets.GetByID(ctx, "T1")
			if stored.Status != domain.TicketStatusOpen || stored.LevelID != "lvl-2" {
				t.Errorf("stored ticket changed: status %s level %s", stored.Status, stored.LevelID)
			}
		})
	}
}

func TestGetSLA(t *testing.T) {
	f := newFixture()
	f.seed("T1", domain.TicketStatusOpen, "lvl-2")

	_, report, err := f.svc.GetSLA(context.Background(), actorAt(1), "T1")
	if err != nil {
		t.Fatalf("GetSLA() error = %v", err)
	}
	if report.State != domain.SLAStateNormal || report.Elapsed <= 2*time.Hour {
		t.Errorf("report = %+v", report)
	}
	if report.Thresholds != domain.DefaultSLAThresholds {
		t.Errorf("thresholds = %+v", report.Thresholds)
	}
}

func TestListTickets_Scope(t *testing.T) {
	f := newFixture()
	own := f.seed("T1", domain.TicketStatusOpen, "lvl-3")
	own.CreatedByID = "agent-L1"
	f.tickets.put(own)
	f.seed("T2", domain.TicketStatusOpen, "lvl-2")
	f.seed("T3", domain.TicketStatusOpen, "lvl-3")

	tests := []struct {
		name    string
		actor   lifecycle.Actor
		want    int
		wantErr bool
	}{
		{"own tickets", actorAt(0), 1, false},
		{"team tickets", actorAt(1), 1, false},
		{"all tickets", actorAt(2), 3, false},
		{"admin", adminActor(), 3, false},
		{"no level", lifecycle.Actor{Agent: agentAt(0)}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.ListTickets(context.Background(), tt.actor, TicketListFilter{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ListTickets() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListTickets() = %d tickets, want %d", len(got), tt.want)
			}
		})
	}
}

func TestAssign(t *testing.T) {
	f := newFixture()
	f.seed("T1", domain.TicketStatusOpen, "lvl-2")
	ctx := context.Background()
	target := "agent-L1"

	ticket, err := f.assign.Assign(ctx, actorAt(1), "T1", &target)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if ticket.AssigneeID == nil || *ticket.AssigneeID != target {
		t.Errorf("AssigneeID = %v", ticket.AssigneeID)
	}
	event := f.dispatcher.published[0]
	if event.Type != events.EventTicketAssigned || event.Assignment.Assignee == nil || event.Assignment.Assignee.Email != "l1@helpdesk.test" {
		t.Errorf("event = %+v", event)
	}
	if got := f.history.types(); !reflect.DeepEqual(got, []domain.TicketChangeType{domain.ChangeTypeAssignee}) {
		t.Errorf("history = %v", got)
	}

	if _, err := f.assign.Assign(ctx, actorAt(1), "T1", &target); err != nil {
		t.Fatalf("repeat Assign() error = %v", err)
	}
	if f.tickets.updates != 1 || len(f.dispatcher.published) != 1 {
		t.Errorf("re-assigning the same agent must be a no-op: updates %d events %d", f.tickets.updates, len(f.dispatcher.published))
	}

	inactive := "agent-gone"
	if _, err := f.assign.Assign(ctx, actorAt(1), "T1", &inactive); apperrors.CodeOf(err) != "VALIDATION_FAILED" {
		t.Errorf("inactive assignee error = %v", err)
	}
	if _, err := f.assign.Assign(ctx, actorAt(0), "T1", &target); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("L1 Assign() error = %v, want forbidden", err)
	}
}

func TestEscalate(t *testing.T) {
	f := newFixture()
	f.seedOwned("T1", domain.TicketStatusInProgress, "lvl-1", "agent-L1")

	ticket, err := f.assign.Escalate(context.Background(), actorAt(0), "T1")
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if ticket.LevelID != "lvl-2" || ticket.Status != domain.TicketStatusInProgress {
		t.Errorf("ticket level %s status %s", ticket.LevelID, ticket.Status)
	}
	event := f.dispatcher.published[0]
	if event.Type != events.EventTicketEscalated || event.Escalation.From.Code != "L1" || event.Escalation.To.Code != "L2" {
		t.Errorf("event = %+v", event)
	}
	if got := f.history.types(); !reflect.DeepEqual(got, []domain.TicketChangeType{domain.ChangeTypeLevel}) {
		t.Errorf("history = %v", got)
	}

	history, err := f.svc.History(context.Background(), actorAt(2), "T1")
	if err != nil || len(history) != 1 {
		t.Errorf("History() = %v, %v", history, err)
	}
}
