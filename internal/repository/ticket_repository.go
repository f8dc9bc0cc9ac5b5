package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

// TicketRepository encapsulates ticket persistence for the assignment engine.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	CountActiveForAgent(ctx context.Context, agentID int64) (int, error)
	UpdateAssignment(ctx context.Context, ticketID int64, assignment domain.TicketAssignment) error
	ClaimAssignment(ctx context.Context, ticketID int64, assignment domain.TicketAssignment) error
	MarkDequeued(ctx context.Context, ticketID int64, at time.Time) error
	UpdatePending(ctx context.Context, ticketID int64, queueEnteredAt time.Time) error
	UpdateCompletion(ctx context.Context, ticketID int64, status domain.TicketStatus, at time.Time) error
	UpdatePriority(ctx context.Context, ticketID int64, priority domain.TicketPriority) error
	ListInProgressAssigned(ctx context.Context) ([]domain.Ticket, error)
	ListPending(ctx context.Context, limit int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, title, description, status, priority, category_id, customer_id, assigned_to,
               created_at, updated_at, assigned_at, queue_entered_at, dequeued_at, resolved_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, priority, category_id, customer_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.CustomerID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CountActiveForAgent counts tickets assigned to agentID that are not resolved, closed or cancelled.
func (r *ticketRepository) CountActiveForAgent(ctx context.Context, agentID int64) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE assigned_to=$1 AND status <> ALL($2)`
	var count int64
	if err := r.db.QueryRow(ctx, query, agentID, terminalStatusArgs()).Scan(&count); err != nil {
		return 0, err
	}
	return int(count), nil
}

// UpdateAssignment writes the assignment inside a transaction; nothing is written on failure.
func (r *ticketRepository) UpdateAssignment(ctx context.Context, ticketID int64, assignment domain.TicketAssignment) error {
	const query = `
        UPDATE tickets SET assigned_to=$1, status=$2, assigned_at=$3, queue_entered_at=$4,
            dequeued_at=NULL, updated_at=NOW()
        WHERE id=$5`
	return r.writeAssignment(ctx, query, ticketID, assignment)
}

// ClaimAssignment is UpdateAssignment restricted to open tickets nobody owns yet.
// It returns ErrTicketAlreadyRouted when another caller got there first.
func (r *ticketRepository) ClaimAssignment(ctx context.Context, ticketID int64, assignment domain.TicketAssignment) error {
	const query = `
        UPDATE tickets SET assigned_to=$1, status=$2, assigned_at=$3, queue_entered_at=$4,
            dequeued_at=NULL, updated_at=NOW()
        WHERE id=$5 AND assigned_to IS NULL AND status='open'`
	return r.writeAssignment(ctx, query, ticketID, assignment)
}

func (r *ticketRepository) writeAssignment(ctx context.Context, query string, ticketID int64, assignment domain.TicketAssignment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, query,
		assignment.AssignedTo,
		assignment.Status,
		assignment.AssignedAt,
		assignment.QueueEnteredAt,
		ticketID,
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if cmd.RowsAffected() == 0 {
		err := routedOrMissing(ctx, tx, ticketID)
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// UpdatePending marks an unassigned ticket as open. A ticket assigned in the
// meantime is left alone and ErrTicketAlreadyRouted is returned.
func (r *ticketRepository) UpdatePending(ctx context.Context, ticketID int64, queueEnteredAt time.Time) error {
	const query = `
        UPDATE tickets SET status=$1, queue_entered_at=$2, updated_at=NOW()
        WHERE id=$3 AND assigned_to IS NULL`
	cmd, err := r.db.Exec(ctx, query, domain.TicketStatusOpen, queueEnteredAt, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return routedOrMissing(ctx, r.db, ticketID)
	}
	return nil
}

// MarkDequeued records that the ticket left its agent's queue.
func (r *ticketRepository) MarkDequeued(ctx context.Context, ticketID int64, at time.Time) error {
	const query = `UPDATE tickets SET dequeued_at=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, at, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateCompletion sets a terminal status and stamps resolved_at or closed_at.
func (r *ticketRepository) UpdateCompletion(ctx context.Context, ticketID int64, status domain.TicketStatus, at time.Time) error {
	const query = `
        UPDATE tickets SET status=$1,
            resolved_at = CASE WHEN $1 = 'resolved' THEN $2 ELSE resolved_at END,
            closed_at   = CASE WHEN $1 = 'closed'   THEN $2 ELSE closed_at END,
            updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query, status, at, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) UpdatePriority(ctx context.Context, ticketID int64, priority domain.TicketPriority) error {
	const query = `UPDATE tickets SET priority=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, priority, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListInProgressAssigned returns assigned in-progress tickets that were never
// dequeued, oldest first.
func (r *ticketRepository) ListInProgressAssigned(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE status=$1 AND assigned_to IS NOT NULL AND dequeued_at IS NULL
        ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, domain.TicketStatusInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListPending returns open unassigned tickets, oldest first.
func (r *ticketRepository) ListPending(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE status=$1 AND assigned_to IS NULL
        ORDER BY created_at ASC
        LIMIT $2`
	rows, err := r.db.Query(ctx, query, domain.TicketStatusOpen, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// routedOrMissing explains a conditional write that touched no rows.
func routedOrMissing(ctx context.Context, q rowQuerier, ticketID int64) error {
	const query = `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`
	var exists bool
	if err := q.QueryRow(ctx, query, ticketID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrTicketAlreadyRouted
}

func terminalStatusArgs() []string {
	out := make([]string, len(domain.TerminalStatuses))
	for i, status := range domain.TerminalStatuses {
		out[i] = string(status)
	}
	return out
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CategoryID,
		&ticket.CustomerID,
		&ticket.AssignedTo,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.AssignedAt,
		&ticket.QueueEnteredAt,
		&ticket.DequeuedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
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
