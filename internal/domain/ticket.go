package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusAssigned    TicketStatus = "ASSIGNED"
	TicketStatusResponded   TicketStatus = "RESPONDED"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusNeedsReview TicketStatus = "NEEDS_REVIEW"
)

// TicketPriority enumerates request urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// AssignmentStatus tracks the assignee's progress on a ticket.
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
)

// CallStatus tracks the conversation session attached to a ticket.
type CallStatus string

const (
	CallStatusNotInitiated CallStatus = "not_initiated"
	CallStatusActive       CallStatus = "active"
	CallStatusCompleted    CallStatus = "completed"
)

// Ticket is the unit of work routed by the engine. Field names are the
// stable external representation; tooling inspects ticket records directly.
type Ticket struct {
	ID          string         `json:"id"`
	Owner       string         `json:"owner"`
	Subject     string         `json:"subject"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Priority    TicketPriority `json:"priority"`
	Status      TicketStatus   `json:"status"`

	Response   *string    `json:"response,omitempty"`
	ResponseAt *time.Time `json:"response_at,omitempty"`

	AssignedTo       *string           `json:"assigned_to,omitempty"`
	AssignmentStatus *AssignmentStatus `json:"assignment_status,omitempty"`
	AssignmentDate   *time.Time        `json:"assignment_date,omitempty"`
	EmployeeSolution *string           `json:"employee_solution,omitempty"`

	RedirectCount     int        `json:"redirect_count"`
	MaxRedirects      int        `json:"max_redirects"`
	RedirectHistory   []string   `json:"redirect_history"`
	RedirectReason    *string    `json:"redirect_reason,omitempty"`
	PreviousAssignee  *string    `json:"previous_assignee,omitempty"`
	RedirectTimestamp *time.Time `json:"redirect_timestamp,omitempty"`

	CallStatus          CallStatus `json:"call_status"`
	ConversationSummary *string    `json:"conversation_summary,omitempty"`
	RedirectRequested   bool       `json:"redirect_requested"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InRedirectHistory reports whether username was a previous assignee.
func (t *Ticket) InRedirectHistory(username string) bool {
	for _, prev := range t.RedirectHistory {
		if prev == username {
			return true
		}
	}
	return false
}
