package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-routing/internal/domain"
)

// TicketStore is the persistence port for tickets. Updates are whole-record
// replacements, last-write-wins; the engine issues one update per stage.
type TicketStore interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	ListByAssignee(ctx context.Context, username string) ([]domain.Ticket, error)
	ListByOwner(ctx context.Context, username string) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed ticket store.
func NewTicketRepository(pool *pgxpool.Pool) TicketStore {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `
        id, owner, subject, description, category, priority, status,
        response, response_at, assigned_to, assignment_status, assignment_date,
        employee_solution, redirect_count, max_redirects, redirect_history,
        redirect_reason, previous_assignee, redirect_timestamp,
        call_status, conversation_summary, redirect_requested,
        created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, owner, subject, description, category, priority, status,
            assigned_to, assignment_status, assignment_date, employee_solution,
            redirect_count, max_redirects, redirect_history, redirect_reason,
            previous_assignee, redirect_timestamp, call_status, conversation_summary,
            redirect_requested)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Owner,
		ticket.Subject,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedTo,
		ticket.AssignmentStatus,
		ticket.AssignmentDate,
		ticket.EmployeeSolution,
		ticket.RedirectCount,
		ticket.MaxRedirects,
		ticket.RedirectHistory,
		ticket.RedirectReason,
		ticket.PreviousAssignee,
		ticket.RedirectTimestamp,
		ticket.CallStatus,
		ticket.ConversationSummary,
		ticket.RedirectRequested,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, description=$2, category=$3, priority=$4, status=$5,
            response=$6, response_at=$7, assigned_to=$8, assignment_status=$9,
            assignment_date=$10, employee_solution=$11, redirect_count=$12,
            max_redirects=$13, redirect_history=$14, redirect_reason=$15,
            previous_assignee=$16, redirect_timestamp=$17, call_status=$18,
            conversation_summary=$19, redirect_requested=$20, updated_at=NOW()
        WHERE id=$21`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.Response,
		ticket.ResponseAt,
		ticket.AssignedTo,
		ticket.AssignmentStatus,
		ticket.AssignmentDate,
		ticket.EmployeeSolution,
		ticket.RedirectCount,
		ticket.MaxRedirects,
		ticket.RedirectHistory,
		ticket.RedirectReason,
		ticket.PreviousAssignee,
		ticket.RedirectTimestamp,
		ticket.CallStatus,
		ticket.ConversationSummary,
		ticket.RedirectRequested,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByAssignee(ctx context.Context, username string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE assigned_to=$1 ORDER BY updated_at DESC`
	return r.list(ctx, query, username)
}

func (r *ticketRepository) ListByOwner(ctx context.Context, username string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE owner=$1 ORDER BY updated_at DESC`
	return r.list(ctx, query, username)
}

func (r *ticketRepository) list(ctx context.Context, query string, arg any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Owner,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Response,
		&ticket.ResponseAt,
		&ticket.AssignedTo,
		&ticket.AssignmentStatus,
		&ticket.AssignmentDate,
		&ticket.EmployeeSolution,
		&ticket.RedirectCount,
		&ticket.MaxRedirects,
		&ticket.RedirectHistory,
		&ticket.RedirectReason,
		&ticket.PreviousAssignee,
		&ticket.RedirectTimestamp,
		&ticket.CallStatus,
		&ticket.ConversationSummary,
		&ticket.RedirectRequested,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}
