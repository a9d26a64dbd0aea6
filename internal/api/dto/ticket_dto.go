package dto

import (
	"time"

	"github.com/spec-kit/ticket-routing/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// TicketResponse provides full ticket info including routing state.
type TicketResponse struct {
	ID          string                `json:"id"`
	Owner       string                `json:"owner"`
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`

	Response         *string `json:"response,omitempty"`
	AssignedTo       *string `json:"assigned_to,omitempty"`
	AssignmentStatus *string `json:"assignment_status,omitempty"`
	EmployeeSolution *string `json:"employee_solution,omitempty"`

	RedirectCount    int      `json:"redirect_count"`
	MaxRedirects     int      `json:"max_redirects"`
	RedirectHistory  []string `json:"redirect_history"`
	RedirectReason   *string  `json:"redirect_reason,omitempty"`
	PreviousAssignee *string  `json:"previous_assignee,omitempty"`

	CallStatus          domain.CallStatus `json:"call_status"`
	ConversationSummary *string           `json:"conversation_summary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:                  t.ID,
		Owner:               t.Owner,
		Subject:             t.Subject,
		Description:         t.Description,
		Category:            t.Category,
		Priority:            t.Priority,
		Status:              t.Status,
		Response:            t.Response,
		AssignedTo:          t.AssignedTo,
		EmployeeSolution:    t.EmployeeSolution,
		RedirectCount:       t.RedirectCount,
		MaxRedirects:        t.MaxRedirects,
		RedirectHistory:     t.RedirectHistory,
		RedirectReason:      t.RedirectReason,
		PreviousAssignee:    t.PreviousAssignee,
		CallStatus:          t.CallStatus,
		ConversationSummary: t.ConversationSummary,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
	if t.AssignmentStatus != nil {
		status := string(*t.AssignmentStatus)
		resp.AssignmentStatus = &status
	}
	if resp.RedirectHistory == nil {
		resp.RedirectHistory = []string{}
	}
	return resp
}
