package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-routing/internal/api/dto"
	"github.com/spec-kit/ticket-routing/internal/auth"
	"github.com/spec-kit/ticket-routing/internal/service"
	"github.com/spec-kit/ticket-routing/internal/workflow"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

// WorkflowsHandler exposes the routing engine.
type WorkflowsHandler struct {
	engine  *workflow.Engine
	tickets *service.TicketService
}

// NewWorkflowsHandler constructs handler.
func NewWorkflowsHandler(engine *workflow.Engine, tickets *service.TicketService) *WorkflowsHandler {
	return &WorkflowsHandler{engine: engine, tickets: tickets}
}

// Start POST /api/v1/workflows.
func (h *WorkflowsHandler) Start(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.StartWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	// ticket visibility doubles as the launch permission
	if _, err := h.tickets.GetTicket(c.Context(), req.TicketID, principal.Employee.Username, principal.IsAdmin); err != nil {
		return err
	}

	workflowID, err := h.engine.Start(c.Context(), req.TicketID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": dto.StartWorkflowResponse{
		WorkflowID: workflowID,
		TicketID:   req.TicketID,
	}})
}

// List GET /api/v1/workflows. Admin only; returns every tracked run,
// terminal ones included.
func (h *WorkflowsHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.engine.ListRuns()})
}

// GetStatus GET /api/v1/workflows/:id.
func (h *WorkflowsHandler) GetStatus(c *fiber.Ctx) error {
	snapshot, err := h.engine.GetStatus(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshot})
}

// Cancel POST /api/v1/workflows/:id/cancel.
func (h *WorkflowsHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.engine.Cancel(c.Params("id"), principal.Employee.Username, principal.IsAdmin); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "cancel_requested"}})
}

// CallEnded POST /api/v1/workflows/:id/call-ended.
func (h *WorkflowsHandler) CallEnded(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CallEndedRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rawOutcome := req.RawOutcome
	if strings.TrimSpace(rawOutcome) == "" {
		rawOutcome = req.ConversationSummary
	}
	if err := h.engine.NotifyCallEnded(c.Params("id"), rawOutcome); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "accepted"}})
}
