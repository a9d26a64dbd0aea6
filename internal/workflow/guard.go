package workflow

import (
	"time"

	"github.com/spec-kit/ticket-routing/internal/domain"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

// RedirectLoopGuard bounds how often a ticket can be handed off. Validate is
// checked before any redirect mutation; Apply performs the whole redirect
// bookkeeping in one step so the invariant count == len(history) holds at
// every observable point.
type RedirectLoopGuard struct {
	MaxRedirects int
}

func NewRedirectLoopGuard(maxRedirects int) *RedirectLoopGuard {
	return &RedirectLoopGuard{MaxRedirects: maxRedirects}
}

// limitFor prefers the per-ticket bound when one is set.
func (g *RedirectLoopGuard) limitFor(ticket *domain.Ticket) int {
	if ticket.MaxRedirects > 0 {
		return ticket.MaxRedirects
	}
	return g.MaxRedirects
}

// Validate rejects a redirect request once the ticket has exhausted its
// redirect budget.
func (g *RedirectLoopGuard) Validate(ticket *domain.Ticket) error {
	limit := g.limitFor(ticket)
	if ticket.RedirectCount >= limit {
		return apperrors.NewGuardRejected("redirect limit reached", map[string]any{
			"ticket_id":      ticket.ID,
			"redirect_count": ticket.RedirectCount,
			"max_redirects":  limit,
		})
	}
	return nil
}

// Apply records the redirect from the previous assignee to the next worker.
// Callers must have passed Validate first.
func (g *RedirectLoopGuard) Apply(ticket *domain.Ticket, previous string, next *domain.Employee, reason string) {
	now := time.Now()

	ticket.RedirectHistory = append(ticket.RedirectHistory, previous)
	ticket.RedirectCount = len(ticket.RedirectHistory)
	ticket.PreviousAssignee = &previous
	ticket.RedirectTimestamp = &now
	if reason != "" {
		ticket.RedirectReason = &reason
	}

	assignee := next.Username
	status := domain.AssignmentStatusAssigned
	ticket.AssignedTo = &assignee
	ticket.AssignmentStatus = &status
	ticket.AssignmentDate = &now
	ticket.Status = domain.TicketStatusAssigned

	ticket.RedirectRequested = false
	ticket.CallStatus = domain.CallStatusNotInitiated
	ticket.UpdatedAt = now
}
