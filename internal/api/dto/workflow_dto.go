package dto

// StartWorkflowRequest payload.
type StartWorkflowRequest struct {
	TicketID string `json:"ticket_id"`
}

// StartWorkflowResponse returns the launched run id.
type StartWorkflowResponse struct {
	WorkflowID string `json:"workflow_id"`
	TicketID   string `json:"ticket_id"`
}

// CallEndedRequest carries the raw conversation outcome text. The summary
// is a fallback for callers that deliver no structured outcome block.
type CallEndedRequest struct {
	RawOutcome          string `json:"raw_outcome"`
	ConversationSummary string `json:"conversation_summary,omitempty"`
}
