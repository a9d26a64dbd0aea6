package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-routing/internal/domain"
	"github.com/spec-kit/ticket-routing/internal/repository"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

// TicketService coordinates ticket creation and access.
type TicketService struct {
	tickets      repository.TicketStore
	maxRedirects int
}

// NewTicketService creates the service.
func NewTicketService(tickets repository.TicketStore, maxRedirects int) *TicketService {
	return &TicketService{tickets: tickets, maxRedirects: maxRedirects}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	Category    string
	Priority    domain.TicketPriority
}

// CreateTicket validates and stores a new ticket for the owner.
func (s *TicketService) CreateTicket(ctx context.Context, owner string, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" || description == "" {
		return nil, apperrors.NewValidationError("subject and description are required", nil)
	}
	if input.Priority != "" && !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{
			"priority": string(input.Priority),
		})
	}

	now := time.Now()
	ticket := &domain.Ticket{
		ID:           uuid.NewString(),
		Owner:        owner,
		Subject:      subject,
		Description:  description,
		Category:     strings.TrimSpace(input.Category),
		Priority:     input.Priority,
		Status:       domain.TicketStatusOpen,
		MaxRedirects: s.maxRedirects,
		CallStatus:   domain.CallStatusNotInitiated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// GetTicket loads a ticket readable by the requester: the owner, the current
// assignee, anyone who previously held it, or an admin.
func (s *TicketService) GetTicket(ctx context.Context, id, requester string, isAdmin bool) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if isAdmin || ticket.Owner == requester {
		return ticket, nil
	}
	if ticket.AssignedTo != nil && *ticket.AssignedTo == requester {
		return ticket, nil
	}
	if ticket.InRedirectHistory(requester) {
		return ticket, nil
	}
	return nil, apperrors.NewForbidden("not allowed to view this ticket")
}

// ListOwned returns the requester's own tickets.
func (s *TicketService) ListOwned(ctx context.Context, username string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByOwner(ctx, username)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListAssigned returns tickets currently assigned to the requester.
func (s *TicketService) ListAssigned(ctx context.Context, username string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByAssignee(ctx, username)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}
