package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/service"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	query   *service.QueryService
	users   *service.UserService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, query *service.QueryService, users *service.UserService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, query: query, users: users}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.query.ListTickets(c.UserContext(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	directory, err := h.users.Directory(c.UserContext(), service.TicketUserIDs(tickets...))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i], directory))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Create(c.UserContext(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		ReporterID:  req.ReporterID,
	})
	if err != nil {
		return err
	}
	return h.renderTicket(c, http.StatusCreated, ticket)
}

// UpdateTicket PUT|PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.tickets.Update(c.UserContext(), c.Params("id"), updateInput(req))
	if err != nil {
		return err
	}
	return h.renderTicket(c, http.StatusOK, ticket)
}

// AnalyzeTicket POST /api/tickets/:id/analyze.
func (h *TicketsHandler) AnalyzeTicket(c *fiber.Ctx) error {
	result, err := h.tickets.Reanalyze(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AnalyzeResponse{
		TicketID:    result.TicketID,
		NewCategory: result.NewCategory,
		Message:     "Ticket analyzed successfully",
	}})
}

func (h *TicketsHandler) renderTicket(c *fiber.Ctx, status int, ticket *domain.Ticket) error {
	directory, err := h.users.Directory(c.UserContext(), service.TicketUserIDs(*ticket))
	if err != nil {
		return err
	}
	return c.Status(status).JSON(fiber.Map{"data": ticketResponse(ticket, directory)})
}

// updateInput maps presence-tracked JSON fields to the service input. A present
// null status or priority becomes an empty value, which fails validation.
func updateInput(req dto.UpdateTicketRequest) service.TicketUpdateInput {
	var input service.TicketUpdateInput
	if req.Status.Set {
		status := domain.TicketStatus("")
		if req.Status.Value != nil {
			status = *req.Status.Value
		}
		input.Status = &status
	}
	if req.Priority.Set {
		priority := domain.TicketPriority("")
		if req.Priority.Value != nil {
			priority = *req.Priority.Value
		}
		input.Priority = &priority
	}
	if req.AssignedAdminID.Set {
		input.AssignedAdmin = &domain.AdminAssignment{AdminID: req.AssignedAdminID.Value}
	}
	return input
}

// parseTicketQuery reads equality filters. assigned_admin and reporter are
// accepted as aliases of the *_id parameters.
func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	var filter service.TicketListFilter
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := domain.TicketPriority(v)
		filter.Priority = &priority
	}
	if v := firstQuery(c, "assigned_admin_id", "assigned_admin"); v != "" {
		filter.AssignedAdminID = &v
	}
	if v := firstQuery(c, "reporter_id", "reporter"); v != "" {
		filter.ReporterID = &v
	}
	return filter
}

func firstQuery(c *fiber.Ctx, keys ...string) string {
	for _, key := range keys {
		if v := c.Query(key); v != "" {
			return v
		}
	}
	return ""
}
