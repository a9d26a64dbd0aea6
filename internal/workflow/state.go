// Package workflow implements the ticket routing engine: a stage-based
// state machine that preprocesses a ticket, tries the knowledge base,
// assigns a worker, supervises the conversation session, and applies
// bounded redirection when the assignee hands the ticket off.
package workflow

import "time"

// Stage identifies where a workflow run currently is.
type Stage string

const (
	StageInitiated          Stage = "initiated"
	StagePreprocessing      Stage = "preprocessing"
	StageKnowledgeLookup    Stage = "knowledge_lookup"
	StageAssigning          Stage = "assigning"
	StageCallActive         Stage = "call_active"
	StageCallEnded          Stage = "call_ended"
	StageRedirectEvaluation Stage = "redirect_evaluation"
	StageSearching          Stage = "searching"
	StageReselecting        Stage = "reselecting"
	StageCompleted          Stage = "completed"
	StageNeedsReview        Stage = "needs_review"
	StageFailed             Stage = "failed"
	StageCancelled          Stage = "cancelled"
)

// Terminal reports whether the stage ends the run.
func (s Stage) Terminal() bool {
	switch s {
	case StageCompleted, StageNeedsReview, StageFailed, StageCancelled:
		return true
	}
	return false
}

// Snapshot is a point-in-time copy of a run's observable state.
type Snapshot struct {
	WorkflowID string         `json:"workflow_id"`
	TicketID   string         `json:"ticket_id"`
	Stage      Stage          `json:"stage"`
	IsTerminal bool           `json:"is_terminal"`
	Outputs    map[string]any `json:"outputs"`
	Errors     []string       `json:"errors,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
