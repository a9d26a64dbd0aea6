package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-routing/internal/api/dto"
	"github.com/spec-kit/ticket-routing/internal/auth"
	"github.com/spec-kit/ticket-routing/internal/domain"
	"github.com/spec-kit/ticket-routing/internal/service"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/v1/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.Context(), principal.Employee.Username, service.TicketCreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// GetTicket GET /api/v1/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"), principal.Employee.Username, principal.IsAdmin)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /api/v1/tickets?assignee=|owner=. Without a filter the
// caller's own tickets are returned; listing for someone else needs admin.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	assignee := c.Query("assignee")
	owner := c.Query("owner")
	target := assignee
	if target == "" {
		target = owner
	}
	if target == "" {
		target = principal.Employee.Username
	}
	if target != principal.Employee.Username && !principal.IsAdmin {
		return apperrors.NewForbidden("cannot list another employee's tickets")
	}

	var (
		result []domain.Ticket
		err    error
	)
	if assignee != "" {
		result, err = h.service.ListAssigned(c.Context(), target)
	} else {
		result, err = h.service.ListOwned(c.Context(), target)
	}
	if err != nil {
		return err
	}

	tickets := make([]dto.TicketResponse, 0, len(result))
	for i := range result {
		tickets = append(tickets, dto.NewTicketResponse(&result[i]))
	}
	return c.JSON(fiber.Map{"data": tickets})
}
