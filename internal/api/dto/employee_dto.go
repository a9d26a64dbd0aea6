package dto

import (
	"time"

	"github.com/spec-kit/ticket-routing/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Employee  EmployeeResponse `json:"employee"`
}

// UpdateAvailabilityRequest payload.
type UpdateAvailabilityRequest struct {
	Status       string `json:"status"`
	UntilMinutes *int   `json:"until_minutes,omitempty"`
}

// EmployeeResponse is the public directory view of an employee.
type EmployeeResponse struct {
	Username     string                    `json:"username"`
	FullName     string                    `json:"full_name"`
	Role         string                    `json:"role"`
	Expertise    string                    `json:"expertise"`
	Availability domain.AvailabilityStatus `json:"availability_status"`
	StatusUntil  *time.Time                `json:"status_until,omitempty"`
	IsAdmin      bool                      `json:"is_admin"`
}

// NewEmployeeResponse maps a directory record.
func NewEmployeeResponse(e *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		Username:     e.Username,
		FullName:     e.FullName,
		Role:         e.Role,
		Expertise:    e.Expertise,
		Availability: e.Availability,
		StatusUntil:  e.StatusUntil,
		IsAdmin:      e.IsAdmin,
	}
}
