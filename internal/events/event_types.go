package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventWorkflowStarted   EventType = "workflow_started"
	EventTicketAssigned    EventType = "ticket_assigned"
	EventCallStarted       EventType = "call_started"
	EventCallEnded         EventType = "call_ended"
	EventTicketRedirected  EventType = "ticket_redirected"
	EventWorkflowCompleted EventType = "workflow_completed"
	EventWorkflowFailed    EventType = "workflow_failed"
	EventTicketNeedsReview EventType = "ticket_needs_review"
)

// Event represents a workflow event emitted by the engine.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	WorkflowID string      `json:"workflow_id"`
	TicketID   string      `json:"ticket_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeUsername string `json:"assignee_username"`
	Score            int    `json:"score"`
	Reasoning        string `json:"reasoning,omitempty"`
}

// CallStartedPayload payload.
type CallStartedPayload struct {
	SessionID      string `json:"session_id"`
	TargetUsername string `json:"target_username"`
	TicketSubject  string `json:"ticket_subject"`
	CallerLabel    string `json:"caller_label"`
	IsRedirect     bool   `json:"is_redirect"`
}

// CallEndedPayload payload.
type CallEndedPayload struct {
	SessionID         string `json:"session_id"`
	RedirectRequested bool   `json:"redirect_requested"`
}

// TicketRedirectedPayload payload.
type TicketRedirectedPayload struct {
	FromUsername  string `json:"from_username"`
	ToUsername    string `json:"to_username"`
	RedirectCount int    `json:"redirect_count"`
	Reason        string `json:"reason,omitempty"`
}

// WorkflowCompletedPayload payload.
type WorkflowCompletedPayload struct {
	Stage    string `json:"stage"`
	Response string `json:"response,omitempty"`
}

// NeedsReviewPayload payload.
type NeedsReviewPayload struct {
	Reason string `json:"reason"`
}
