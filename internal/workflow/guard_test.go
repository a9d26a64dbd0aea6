package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-routing/internal/domain"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

func TestGuardValidateWithinBudget(t *testing.T) {
	guard := NewRedirectLoopGuard(3)
	ticket := &domain.Ticket{ID: "t-1", RedirectCount: 2, MaxRedirects: 3}
	assert.NoError(t, guard.Validate(ticket))
}

func TestGuardValidateRejectsAtLimit(t *testing.T) {
	guard := NewRedirectLoopGuard(3)
	ticket := &domain.Ticket{ID: "t-1", RedirectCount: 3, MaxRedirects: 3}

	err := guard.Validate(ticket)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "GUARD_REJECTED"))
}

func TestGuardValidateUsesEngineDefaultWhenTicketUnset(t *testing.T) {
	guard := NewRedirectLoopGuard(2)
	ticket := &domain.Ticket{ID: "t-1", RedirectCount: 2}
	assert.Error(t, guard.Validate(ticket))

	ticket.RedirectCount = 1
	assert.NoError(t, guard.Validate(ticket))
}

func TestGuardApplyKeepsCountEqualToHistory(t *testing.T) {
	guard := NewRedirectLoopGuard(3)
	ticket := &domain.Ticket{ID: "t-1", MaxRedirects: 3}

	guard.Apply(ticket, "alice", &domain.Employee{Username: "bob"}, "needs infra access")

	assert.Equal(t, []string{"alice"}, ticket.RedirectHistory)
	assert.Equal(t, 1, ticket.RedirectCount)
	assert.Equal(t, len(ticket.RedirectHistory), ticket.RedirectCount)
	require.NotNil(t, ticket.PreviousAssignee)
	assert.Equal(t, "alice", *ticket.PreviousAssignee)
	require.NotNil(t, ticket.AssignedTo)
	assert.Equal(t, "bob", *ticket.AssignedTo)
	require.NotNil(t, ticket.RedirectReason)
	assert.Equal(t, "needs infra access", *ticket.RedirectReason)
	assert.NotNil(t, ticket.RedirectTimestamp)
	assert.Equal(t, domain.CallStatusNotInitiated, ticket.CallStatus)
	assert.False(t, ticket.RedirectRequested)
	assert.Equal(t, domain.TicketStatusAssigned, ticket.Status)

	guard.Apply(ticket, "bob", &domain.Employee{Username: "carol"}, "")
	assert.Equal(t, []string{"alice", "bob"}, ticket.RedirectHistory)
	assert.Equal(t, 2, ticket.RedirectCount)
}
