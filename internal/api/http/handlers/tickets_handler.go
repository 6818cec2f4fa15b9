package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages agent ticket endpoints and the public tracking page.
type TicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, assignments *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assignments: assignments}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, lifecycle.TicketInput{
		CategoryID:      req.CategoryID,
		Priority:        req.Priority,
		Source:          req.Source,
		LevelID:         req.LevelID,
		DueDate:         req.DueDate,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerCompany: req.CustomerCompany,
		AssigneeID:      req.AssigneeID,
		Subject:         req.Subject,
		Description:     req.Description,
		Attachments:     attachmentInputs(req.Attachments),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), actor, parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// GetSLA GET /tickets/:id/sla.
func (h *TicketsHandler) GetSLA(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, report, err := h.tickets.GetSLA(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SLAResponse{
		TicketID:      ticket.ID,
		State:         report.State,
		Progress:      report.Progress,
		ElapsedHours:  report.Elapsed.Hours(),
		DueDate:       report.DueDate,
		Overdue:       report.Overdue,
		WarningHours:  report.Thresholds.WarningHours,
		CriticalHours: report.Thresholds.CriticalHours,
		EvaluatedAt:   report.EvaluatedAt,
	}})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	entries, err := h.tickets.History(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// Attachments GET /tickets/:id/attachments.
func (h *TicketsHandler) Attachments(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	attachments, err := h.tickets.Attachments(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": attachmentResponses(attachments)})
}

// ChangeStatus POST /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.Status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": req.Status})
	}
	ticket, err := h.tickets.ChangeStatus(c.UserContext(), actor, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ChangePriority POST /tickets/:id/priority.
func (h *TicketsHandler) ChangePriority(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ChangePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.Priority.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": req.Priority})
	}
	ticket, err := h.tickets.ChangePriority(c.UserContext(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// SetDueDate POST /tickets/:id/due-date.
func (h *TicketsHandler) SetDueDate(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.SetDueDateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.SetDueDate(c.UserContext(), actor, c.Params("id"), req.DueDate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Escalate POST /tickets/:id/escalate.
func (h *TicketsHandler) Escalate(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.assignments.Escalate(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.assignments.Assign(c.UserContext(), actor, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// AddReply POST /tickets/:id/replies.
func (h *TicketsHandler) AddReply(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	input, err := parseMessage(c)
	if err != nil {
		return err
	}
	msg, err := h.tickets.AddReply(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg)})
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	input, err := parseMessage(c)
	if err != nil {
		return err
	}
	msg, err := h.tickets.AddNote(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg)})
}

// Track GET /track/:number.
func (h *TicketsHandler) Track(c *fiber.Ctx) error {
	ticket, err := h.tickets.TrackTicket(c.UserContext(), c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TrackedTicketResponse{
		TicketNumber: ticket.TicketNumber,
		Subject:      ticket.Subject,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		DueDate:      ticket.DueDate,
		CreatedAt:    ticket.CreatedAt,
		ResolvedAt:   ticket.ResolvedAt,
		Replies:      messageResponses(ticket.Replies),
	}})
}

// CustomerReply POST /track/:number/replies.
func (h *TicketsHandler) CustomerReply(c *fiber.Ctx) error {
	var req dto.CustomerReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	msg, err := h.tickets.AddCustomerReply(c.UserContext(), c.Params("number"), req.Email, lifecycle.MessageInput{
		Content:     req.Content,
		Attachments: attachmentInputs(req.Attachments),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg)})
}

func requireActor(c *fiber.Ctx) (lifecycle.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return lifecycle.Actor{}, apperrors.NewUnauthorized("agent required")
	}
	return actor, nil
}

func parseMessage(c *fiber.Ctx) (lifecycle.MessageInput, error) {
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return lifecycle.MessageInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	return lifecycle.MessageInput{Content: req.Content, Attachments: attachmentInputs(req.Attachments)}, nil
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func attachmentInputs(reqs []dto.AttachmentRequest) []lifecycle.AttachmentInput {
	if len(reqs) == 0 {
		return nil
	}
	out := make([]lifecycle.AttachmentInput, 0, len(reqs))
	for _, att := range reqs {
		out = append(out, lifecycle.AttachmentInput{
			FileName: att.FileName,
			FileKey:  att.FileKey,
			FileURL:  att.FileURL,
			FileSize: att.FileSize,
			FileType: att.FileType,
		})
	}
	return out
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                ticket.ID,
		TicketNumber:      ticket.TicketNumber,
		CategoryID:        ticket.CategoryID,
		Subject:           ticket.Subject,
		Status:            ticket.Status,
		Priority:          ticket.Priority,
		Source:            ticket.Source,
		LevelID:           ticket.LevelID,
		AssigneeID:        ticket.AssigneeID,
		CustomerName:      ticket.CustomerName,
		DueDate:           ticket.DueDate,
		DueDateOverridden: ticket.DueDateOverridden,
		CreatedAt:         ticket.CreatedAt,
		UpdatedAt:         ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		TicketSummary:   ticketSummary(ticket),
		Description:     ticket.Description,
		CustomerEmail:   ticket.CustomerEmail,
		CustomerPhone:   ticket.CustomerPhone,
		CustomerCompany: ticket.CustomerCompany,
		CreatedByID:     ticket.CreatedByID,
		ResolvedAt:      ticket.ResolvedAt,
		ClosedAt:        ticket.ClosedAt,
		Attachments:     attachmentResponses(ticket.Attachments),
		Replies:         messageResponses(ticket.Replies),
		Notes:           messageResponses(ticket.Notes),
	}
}

func messageResponses(messages []domain.TicketMessage) []dto.TicketMessageResponse {
	out := make([]dto.TicketMessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, ticketMessageResponse(&messages[i]))
	}
	return out
}

func ticketMessageResponse(msg *domain.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:          msg.ID,
		MessageType: msg.MessageType,
		AuthorType:  msg.AuthorType,
		AuthorID:    msg.AuthorID,
		AuthorName:  msg.AuthorName,
		Content:     msg.Content,
		Attachments: attachmentResponses(msg.Attachments),
		CreatedAt:   msg.CreatedAt,
	}
}

func attachmentResponses(attachments []domain.Attachment) []dto.AttachmentResponse {
	out := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, att := range attachments {
		out = append(out, dto.AttachmentResponse{
			ID:       att.ID,
			FileName: att.FileName,
			FileType: att.FileType,
			FileSize: att.FileSize,
			URL:      att.FileURL,
		})
	}
	return out
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:          entry.ID,
			ChangeType:  entry.ChangeType,
			ChangedByID: entry.ChangedByID,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return resp
}
