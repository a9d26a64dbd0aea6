package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-routing/internal/call"
	"github.com/spec-kit/ticket-routing/internal/domain"
	"github.com/spec-kit/ticket-routing/internal/events"
	"github.com/spec-kit/ticket-routing/internal/repository"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

// Conversation bridges the engine to live call sessions. It owns the
// availability side effects around a call: the worker goes Busy when the
// session opens and back to Available when it ends.
type Conversation struct {
	sessions   *call.Controller
	directory  repository.WorkerDirectory
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func NewConversation(sessions *call.Controller, directory repository.WorkerDirectory, dispatcher events.Dispatcher, logger *zap.Logger) *Conversation {
	return &Conversation{sessions: sessions, directory: directory, dispatcher: dispatcher, logger: logger}
}

func (c *Conversation) Name() string { return "conversation" }

// Execute dispatches on "action": "start_call" opens a session for the
// ticket's assignee, "end_call" closes it and parses the raw outcome text.
func (c *Conversation) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	switch action := stringValue(input, "action"); action {
	case "start_call":
		return c.startCall(ctx, input)
	case "end_call":
		return c.endCall(ctx, input)
	default:
		return nil, apperrors.NewAgentError(c.Name(), fmt.Errorf("unknown action %q", action))
	}
}

func (c *Conversation) startCall(ctx context.Context, input map[string]any) (map[string]any, error) {
	ticket, _ := input["ticket"].(*domain.Ticket)
	worker, _ := input["worker"].(*domain.Employee)
	if ticket == nil || worker == nil {
		return nil, apperrors.NewAgentError(c.Name(), fmt.Errorf("start_call requires ticket and worker"))
	}

	session, err := c.sessions.StartSession(ticket, worker)
	if err != nil {
		return nil, err
	}

	if err := c.directory.SetAvailability(ctx, worker.Username, domain.AvailabilityBusy, nil); err != nil {
		c.logger.Warn("could not mark worker busy",
			zap.String("username", worker.Username), zap.Error(err))
	}

	_ = c.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventCallStarted,
		WorkflowID: stringValue(input, "workflow_id"),
		TicketID:   ticket.ID,
		Timestamp:  time.Now(),
		Payload: events.CallStartedPayload{
			SessionID:      session.ID,
			TargetUsername: worker.Username,
			TicketSubject:  ticket.Subject,
			CallerLabel:    ticket.Owner,
			IsRedirect:     boolValue(input, "is_redirect"),
		},
	})

	return map[string]any{"session_id": session.ID}, nil
}

func (c *Conversation) endCall(ctx context.Context, input map[string]any) (map[string]any, error) {
	sessionID := stringValue(input, "session_id")
	session, ok := c.sessions.Get(sessionID)
	if !ok {
		return nil, apperrors.NewNotFound("session", map[string]any{"session_id": sessionID})
	}

	outcome, err := c.sessions.EndSession(session, stringValue(input, "raw_outcome"))
	if err != nil {
		return nil, err
	}

	if err := c.directory.SetAvailability(ctx, session.WorkerUsername, domain.AvailabilityAvailable, nil); err != nil {
		c.logger.Warn("could not mark worker available",
			zap.String("username", session.WorkerUsername), zap.Error(err))
	}

	_ = c.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventCallEnded,
		WorkflowID: stringValue(input, "workflow_id"),
		TicketID:   session.TicketID,
		Timestamp:  time.Now(),
		Payload: events.CallEndedPayload{
			SessionID:         session.ID,
			RedirectRequested: outcome.RedirectRequested,
		},
	})

	output := map[string]any{
		"worker_username":    session.WorkerUsername,
		"redirect_requested": outcome.RedirectRequested,
		"solution":           outcome.SolutionText,
	}
	if outcome.RedirectCriteria != nil {
		output["redirect_criteria"] = outcome.RedirectCriteria
	}
	return output, nil
}
