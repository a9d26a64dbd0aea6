// Package call models a single conversation session between the requester
// and an assigned employee, and interprets the structured outcome block the
// dialogue layer produces when the session ends.
package call

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-routing/internal/domain"
	"github.com/spec-kit/ticket-routing/internal/match"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

// SessionState enumerates session lifecycle states.
type SessionState string

const (
	SessionNotStarted SessionState = "not_started"
	SessionActive     SessionState = "active"
	SessionEnded      SessionState = "ended"
)

// Session is one live conversation attempt.
type Session struct {
	ID             string
	TicketID       string
	WorkerUsername string
	State          SessionState
	StartedAt      time.Time
	EndedAt        *time.Time
}

// Outcome is the parsed result of an ended session.
type Outcome struct {
	RedirectRequested bool
	RedirectCriteria  *match.Criteria
	SolutionText      string
}

// Controller owns session lifecycles, one active session per ticket at most.
type Controller struct {
	mu       sync.Mutex
	sessions map[string]*Session // by session id
	byTicket map[string]string   // ticket id -> active session id
}

// NewController creates an empty session controller.
func NewController() *Controller {
	return &Controller{
		sessions: make(map[string]*Session),
		byTicket: make(map[string]string),
	}
}

// StartSession opens a session for the ticket with the given worker.
// Starting while another session for the same ticket is active is an error.
func (c *Controller) StartSession(ticket *domain.Ticket, worker *domain.Employee) (*Session, error) {
	if ticket == nil || worker == nil {
		return nil, apperrors.NewValidationError("ticket and worker required", nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if activeID, ok := c.byTicket[ticket.ID]; ok {
		return nil, apperrors.NewStateError("session already active for ticket", map[string]any{
			"ticket_id":  ticket.ID,
			"session_id": activeID,
		})
	}

	session := &Session{
		ID:             uuid.NewString(),
		TicketID:       ticket.ID,
		WorkerUsername: worker.Username,
		State:          SessionActive,
		StartedAt:      time.Now(),
	}
	c.sessions[session.ID] = session
	c.byTicket[ticket.ID] = session.ID
	return session, nil
}

// Get returns the session for the id, if known.
func (c *Controller) Get(sessionID string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions[sessionID]
	return session, ok
}

// EndSession closes an active session and parses the raw outcome text.
// Ending a session twice raises a StateError rather than double-mutating.
func (c *Controller) EndSession(session *Session, rawOutcome string) (*Outcome, error) {
	if session == nil {
		return nil, apperrors.NewValidationError("session required", nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.sessions[session.ID]
	if !ok {
		return nil, apperrors.NewNotFound("session", map[string]any{"session_id": session.ID})
	}
	if current.State != SessionActive {
		return nil, apperrors.NewStateError("session not active", map[string]any{
			"session_id": session.ID,
			"state":      string(current.State),
		})
	}

	now := time.Now()
	current.State = SessionEnded
	current.EndedAt = &now
	delete(c.byTicket, current.TicketID)

	outcome := ParseOutcome(rawOutcome)
	return &outcome, nil
}
