package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-routing/internal/api/dto"
	"github.com/spec-kit/ticket-routing/internal/auth"
	"github.com/spec-kit/ticket-routing/internal/domain"
	"github.com/spec-kit/ticket-routing/internal/repository"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

// EmployeesHandler manages directory endpoints.
type EmployeesHandler struct {
	directory repository.WorkerDirectory
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(directory repository.WorkerDirectory) *EmployeesHandler {
	return &EmployeesHandler{directory: directory}
}

// List GET /api/v1/employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	employees, err := h.directory.ListAll(c.Context(), c.Query("all") != "true")
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		items = append(items, dto.NewEmployeeResponse(&employees[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateAvailability PUT /api/v1/employees/:username/availability. Only the
// employee themselves or an admin may update presence.
func (h *EmployeesHandler) UpdateAvailability(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	username := c.Params("username")
	if username != principal.Employee.Username && !principal.IsAdmin {
		return apperrors.NewForbidden("cannot update another employee's availability")
	}
	var req dto.UpdateAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	status := domain.AvailabilityStatus(req.Status)
	if !domain.ValidAvailability(status) {
		return apperrors.NewValidationError("invalid availability status", map[string]any{
			"status": req.Status,
		})
	}

	var until *time.Time
	if req.UntilMinutes != nil && *req.UntilMinutes > 0 {
		t := time.Now().Add(time.Duration(*req.UntilMinutes) * time.Minute)
		until = &t
	}

	if err := h.directory.SetAvailability(c.Context(), username, status, until); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"username":            username,
		"availability_status": status,
	}})
}

// PendingCalls GET /api/v1/employees/:username/pending-calls lists the
// employee's unanswered call notifications.
func (h *EmployeesHandler) PendingCalls(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	username := c.Params("username")
	if username != principal.Employee.Username && !principal.IsAdmin {
		return apperrors.NewForbidden("cannot read another employee's pending calls")
	}
	calls, err := h.directory.ListPendingCalls(c.Context(), username)
	if err != nil {
		return apperrors.MapError(err)
	}
	if calls == nil {
		calls = []domain.CallNotification{}
	}
	return c.JSON(fiber.Map{"data": calls})
}
