package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-routing/internal/domain"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

type memStore struct {
	items map[string]domain.Ticket
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]domain.Ticket)}
}

func (m *memStore) Create(_ context.Context, ticket *domain.Ticket) error {
	m.items[ticket.ID] = *ticket
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := m.items[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	copied := ticket
	return &copied, nil
}

func (m *memStore) Update(_ context.Context, ticket *domain.Ticket) error {
	m.items[ticket.ID] = *ticket
	return nil
}

func (m *memStore) ListByAssignee(_ context.Context, _ string) ([]domain.Ticket, error) {
	return nil, nil
}

func (m *memStore) ListByOwner(_ context.Context, _ string) ([]domain.Ticket, error) {
	return nil, nil
}

func TestCreateTicketValidation(t *testing.T) {
	svc := NewTicketService(newMemStore(), 3)

	_, err := svc.CreateTicket(context.Background(), "requester", TicketCreateInput{
		Subject: "  ", Description: "something broke",
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.CreateTicket(context.Background(), "requester", TicketCreateInput{
		Subject: "deploy fails", Description: "pipeline is red", Priority: "URGENT",
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	ticket, err := svc.CreateTicket(context.Background(), "requester", TicketCreateInput{
		Subject: "deploy fails", Description: "pipeline is red", Priority: domain.TicketPriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, 3, ticket.MaxRedirects)
	assert.Equal(t, domain.CallStatusNotInitiated, ticket.CallStatus)
}

func TestGetTicketVisibility(t *testing.T) {
	store := newMemStore()
	assignee := "carol"
	require.NoError(t, store.Create(context.Background(), &domain.Ticket{
		ID:              "t-1",
		Owner:           "requester",
		Subject:         "s",
		Description:     "d",
		AssignedTo:      &assignee,
		RedirectHistory: []string{"alice", "bob"},
	}))
	svc := NewTicketService(store, 3)

	for _, requester := range []string{"requester", "carol", "alice", "bob"} {
		_, err := svc.GetTicket(context.Background(), "t-1", requester, false)
		assert.NoError(t, err, "requester %s", requester)
	}

	_, err := svc.GetTicket(context.Background(), "t-1", "stranger", false)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = svc.GetTicket(context.Background(), "t-1", "stranger", true)
	assert.NoError(t, err)

	_, err = svc.GetTicket(context.Background(), "missing", "requester", false)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
