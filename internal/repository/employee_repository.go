package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-routing/internal/domain"
)

// WorkerDirectory is the read/write port over the employee directory. The
// engine never locks directory records; conflicting availability updates are
// serialized here.
type WorkerDirectory interface {
	GetByUsername(ctx context.Context, username string) (*domain.Employee, error)
	ListAll(ctx context.Context, activeOnly bool) ([]domain.Employee, error)
	SetAvailability(ctx context.Context, username string, status domain.AvailabilityStatus, until *time.Time) error
	CreatePendingCallNotification(ctx context.Context, notification *domain.CallNotification) error
	ListPendingCalls(ctx context.Context, username string) ([]domain.CallNotification, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository instantiates the Postgres-backed worker directory.
func NewEmployeeRepository(pool *pgxpool.Pool) WorkerDirectory {
	return &employeeRepository{pool: pool}
}

const employeeColumns = `
        username, full_name, role, expertise, responsibilities,
        availability_status, status_until, password_hash, is_admin, active, created_at`

func (r *employeeRepository) GetByUsername(ctx context.Context, username string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE username=$1`
	var emp domain.Employee
	if err := scanEmployee(r.pool.QueryRow(ctx, query, username), &emp); err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListAll returns employees in directory insertion order; the matcher relies
// on that order for deterministic tie-breaking.
func (r *employeeRepository) ListAll(ctx context.Context, activeOnly bool) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY created_at, username`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		var emp domain.Employee
		if err := scanEmployee(rows, &emp); err != nil {
			return nil, err
		}
		result = append(result, emp)
	}
	return result, rows.Err()
}

func (r *employeeRepository) SetAvailability(ctx context.Context, username string, status domain.AvailabilityStatus, until *time.Time) error {
	const query = `
        UPDATE employees SET availability_status=$1, status_until=$2
        WHERE username=$3`
	cmd, err := r.pool.Exec(ctx, query, status, until, username)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) CreatePendingCallNotification(ctx context.Context, notification *domain.CallNotification) error {
	const query = `
        INSERT INTO call_notifications (id, target_username, ticket_id, ticket_subject, caller_label, payload, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		notification.ID,
		notification.TargetUsername,
		notification.TicketID,
		notification.TicketSubject,
		notification.CallerLabel,
		notification.Payload,
		domain.CallNotificationPending,
	).Scan(&notification.CreatedAt)
}

func (r *employeeRepository) ListPendingCalls(ctx context.Context, username string) ([]domain.CallNotification, error) {
	const query = `
        SELECT id, target_username, ticket_id, ticket_subject, caller_label, payload, status, created_at
        FROM call_notifications
        WHERE target_username=$1 AND status='pending'
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CallNotification
	for rows.Next() {
		var n domain.CallNotification
		if err := rows.Scan(
			&n.ID,
			&n.TargetUsername,
			&n.TicketID,
			&n.TicketSubject,
			&n.CallerLabel,
			&n.Payload,
			&n.Status,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func scanEmployee(row pgx.Row, emp *domain.Employee) error {
	return row.Scan(
		&emp.Username,
		&emp.FullName,
		&emp.Role,
		&emp.Expertise,
		&emp.Responsibilities,
		&emp.Availability,
		&emp.StatusUntil,
		&emp.PasswordHash,
		&emp.IsAdmin,
		&emp.Active,
		&emp.CreatedAt,
	)
}
