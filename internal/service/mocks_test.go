package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/mailer"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var baseTime = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

// tickClock advances a minute on every read so consecutive writes carry
// distinct updated_at values.
type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type memTickets struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	updates int
	// beforeUpdate runs inside Update before the version check.
	beforeUpdate func(stored *domain.Ticket)
}

func newMemTickets() *memTickets {
	return &memTickets{tickets: map[string]*domain.Ticket{}}
}

func (m *memTickets) put(t *domain.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := t.Clone()
	stored.Replies, stored.Notes = nil, nil
	m.tickets[t.ID] = stored
}

func (m *memTickets) Create(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	for _, stored := range m.tickets {
		if stored.TicketNumber == t.TicketNumber {
			m.mu.Unlock()
			return repository.ErrDuplicateTicketNumber
		}
	}
	m.mu.Unlock()
	m.put(t)
	return nil
}

func (m *memTickets) Update(_ context.Context, t *domain.Ticket, expected time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tickets[t.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(stored)
	}
	if !stored.UpdatedAt.Equal(expected) {
		return apperrors.NewConcurrentModification("ticket", map[string]any{"ticket_id": t.ID})
	}
	next := t.Clone()
	next.Replies, next.Notes = nil, nil
	m.tickets[t.ID] = next
	m.updates++
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t.Clone(), nil
}

func (m *memTickets) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.TicketNumber == number {
			return t.Clone(), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ticket
	for _, t := range m.tickets {
		if filter.LevelID != nil && t.LevelID != *filter.LevelID {
			continue
		}
		if filter.OwnerID != nil && t.CreatedByID != *filter.OwnerID && !sameString(t.AssigneeID, filter.OwnerID) {
			continue
		}
		out = append(out, *t.Clone())
	}
	return out, nil
}

type memMessages struct {
	mu       sync.Mutex
	messages []domain.TicketMessage
}

func (m *memMessages) Create(_ context.Context, msg *domain.TicketMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg.Clone())
	return nil
}

func (m *memMessages) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TicketMessage
	for _, msg := range m.messages {
		if msg.TicketID == ticketID {
			out = append(out, msg.Clone())
		}
	}
	return out, nil
}

type memHistory struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (m *memHistory) Create(_ context.Context, entries ...*domain.TicketHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range entries {
		m.entries = append(m.entries, *h)
	}
	return nil
}

func (m *memHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range m.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memHistory) types() []domain.TicketChangeType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TicketChangeType, 0, len(m.entries))
	for _, h := range m.entries {
		out = append(out, h.ChangeType)
	}
	return out
}

type memLevels struct {
	levels     []domain.EscalationLevel
	ticketRefs map[string]int
	agentRefs  map[string]int
	deleted    []string
}

func (m *memLevels) List(context.Context) ([]domain.EscalationLevel, error) {
	return append([]domain.EscalationLevel(nil), m.levels...), nil
}

func (m *memLevels) GetByID(_ context.Context, id string) (*domain.EscalationLevel, error) {
	for _, l := range m.levels {
		if l.ID == id {
			level := l
			return &level, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memLevels) CountReferences(_ context.Context, id string) (int, int, error) {
	return m.ticketRefs[id], m.agentRefs[id], nil
}

func (m *memLevels) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type memAgents struct {
	mu     sync.Mutex
	agents map[string]*domain.Agent
}

func newMemAgents(agents ...*domain.Agent) *memAgents {
	m := &memAgents{agents: map[string]*domain.Agent{}}
	for _, a := range agents {
		m.agents[a.ID] = a
	}
	return m
}

func (m *memAgents) Create(_ context.Context, a *domain.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *a
	m.agents[a.ID] = &copied
	return nil
}

func (m *memAgents) Update(ctx context.Context, a *domain.Agent) error {
	return m.Create(ctx, a)
}

func (m *memAgents) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *memAgents) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.agents {
		if strings.EqualFold(a.Email, email) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memAgents) List(context.Context, repository.AgentFilter) ([]domain.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Agent
	for _, a := range m.agents {
		out = append(out, *a)
	}
	return out, nil
}

type memSLA struct {
	configs []domain.SLAConfig
}

func (m *memSLA) List(context.Context) ([]domain.SLAConfig, error) {
	return m.configs, nil
}

type memCategories struct {
	categories []domain.Category
}

func (m *memCategories) ListActive(context.Context) ([]domain.Category, error) {
	var out []domain.Category
	for _, c := range m.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCategories) GetByID(_ context.Context, id string) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memTemplates struct {
	templates map[string]domain.NotificationTemplate
	err       error
}

func (m *memTemplates) GetActive(_ context.Context, eventType string) (*domain.NotificationTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	tpl, ok := m.templates[eventType]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &tpl, nil
}

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

type fakeLocker struct {
	err      error
	locked   []string
	released int
}

func (l *fakeLocker) Lock(_ context.Context, ticketID string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, ticketID)
	return func() { l.released++ }, nil
}

type recordingSink struct {
	mu   sync.Mutex
	sent []mailer.Mail
	err  error
}

func (s *recordingSink) Send(_ context.Context, m mailer.Mail) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return nil
}

func testLevels() []domain.EscalationLevel {
	return []domain.EscalationLevel{
		{
			ID: "lvl-1", Code: "L1", Name: "Frontline", SortOrder: 1, IsActive: true,
			Capabilities: domain.NewCapabilitySet(domain.CapViewOwnTickets, domain.CapCreateTicket, domain.CapEscalateTicket),
		},
		{
			ID: "lvl-2", Code: "L2", Name: "Specialist", SortOrder: 2, IsActive: true,
			Capabilities: domain.NewCapabilitySet(domain.CapViewTeamTickets, domain.CapCreateTicket, domain.CapAssignTicket,
				domain.CapEscalateTicket, domain.CapResolveTicket),
		},
		{
			ID: "lvl-3", Code: "L3", Name: "Engineering", SortOrder: 3, IsActive: true,
			Capabilities: domain.NewCapabilitySet(domain.CapViewAllTickets, domain.CapCreateTicket, domain.CapAssignTicket,
				domain.CapEscalateTicket, domain.CapResolveTicket, domain.CapCloseTicket),
		},
	}
}

func agentAt(levelIndex int) *domain.Agent {
	level := testLevels()[levelIndex]
	return &domain.Agent{
		ID:       "agent-" + level.Code,
		FullName: "Agent " + level.Code,
		Email:    strings.ToLower(level.Code) + "@helpdesk.test",
		Role:     domain.AgentRoleAgent,
		LevelID:  &level.ID,
		IsActive: true,
	}
}

func actorAt(levelIndex int) lifecycle.Actor {
	level := testLevels()[levelIndex]
	return lifecycle.Actor{Agent: agentAt(levelIndex), Level: &level}
}

func adminActor() lifecycle.Actor {
	return lifecycle.Actor{Agent: &domain.Agent{ID: "admin-1", FullName: "Admin", Email: "admin@helpdesk.test", Role: domain.AgentRoleAdmin, IsActive: true}}
}
