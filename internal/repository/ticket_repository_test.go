package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

func TestTicketRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	category := int64(3)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO tickets").
		WithArgs("Login fails", "cannot sign in", domain.TicketStatusOpen, domain.TicketPriorityHigh, &category, int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	ticket := &domain.Ticket{
		Title:       "Login fails",
		Description: "cannot sign in",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityHigh,
		CategoryID:  &category,
		CustomerID:  42,
	}
	err = NewTicketRepository(mock).Create(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, int64(11), ticket.ID)
	assert.Equal(t, now, ticket.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_CountActiveForAgent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM tickets").
		WithArgs(int64(7), []string{"resolved", "closed", "cancelled"}).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

	count, err := NewTicketRepository(mock).CountActiveForAgent(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdateAssignmentCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tickets SET assigned_to").
		WithArgs(int64(7), domain.TicketStatusInProgress, at, at, int64(11)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err = NewTicketRepository(mock).UpdateAssignment(context.Background(), 11, domain.TicketAssignment{
		AssignedTo:     7,
		Status:         domain.TicketStatusInProgress,
		AssignedAt:     at,
		QueueEnteredAt: at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdateAssignmentRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tickets SET assigned_to").
		WithArgs(int64(7), domain.TicketStatusInProgress, pgxmock.AnyArg(), pgxmock.AnyArg(), int64(11)).
		WillReturnError(boom)
	mock.ExpectRollback()

	err = NewTicketRepository(mock).UpdateAssignment(context.Background(), 11, domain.TicketAssignment{
		AssignedTo: 7,
		Status:     domain.TicketStatusInProgress,
		AssignedAt: time.Now(),
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdateAssignmentMissingTicket(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tickets SET assigned_to").
		WithArgs(int64(7), domain.TicketStatusInProgress, pgxmock.AnyArg(), pgxmock.AnyArg(), int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err = NewTicketRepository(mock).UpdateAssignment(context.Background(), 99, domain.TicketAssignment{
		AssignedTo: 7,
		Status:     domain.TicketStatusInProgress,
	})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_ClaimAssignmentCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("(?s)UPDATE tickets SET assigned_to.*WHERE id=\\$5 AND assigned_to IS NULL AND status='open'").
		WithArgs(int64(7), domain.TicketStatusInProgress, at, at, int64(11)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err = NewTicketRepository(mock).ClaimAssignment(context.Background(), 11, domain.TicketAssignment{
		AssignedTo:     7,
		Status:         domain.TicketStatusInProgress,
		AssignedAt:     at,
		QueueEnteredAt: at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_ClaimAssignmentAlreadyRouted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tickets SET assigned_to").
		WithArgs(int64(9), domain.TicketStatusInProgress, pgxmock.AnyArg(), pgxmock.AnyArg(), int64(11)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err = NewTicketRepository(mock).ClaimAssignment(context.Background(), 11, domain.TicketAssignment{
		AssignedTo: 9,
		Status:     domain.TicketStatusInProgress,
	})
	assert.ErrorIs(t, err, ErrTicketAlreadyRouted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdatePending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Now()
	mock.ExpectExec("UPDATE tickets SET status").
		WithArgs(domain.TicketStatusOpen, at, int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewTicketRepository(mock).UpdatePending(context.Background(), 5, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdatePendingSkipsAssignedTicket(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Now()
	mock.ExpectExec("(?s)UPDATE tickets SET status.*AND assigned_to IS NULL").
		WithArgs(domain.TicketStatusOpen, at, int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	err = NewTicketRepository(mock).UpdatePending(context.Background(), 5, at)
	assert.ErrorIs(t, err, ErrTicketAlreadyRouted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_MarkDequeued(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Now()
	mock.ExpectExec("UPDATE tickets SET dequeued_at").
		WithArgs(at, int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewTicketRepository(mock).MarkDequeued(context.Background(), 5, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_ListInProgressSkipsDequeued(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("WHERE status=\\$1 AND assigned_to IS NOT NULL AND dequeued_at IS NULL").
		WithArgs(domain.TicketStatusInProgress).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	tickets, err := NewTicketRepository(mock).ListInProgressAssigned(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdateCompletionNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE tickets SET status").
		WithArgs(domain.TicketStatusResolved, pgxmock.AnyArg(), int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = NewTicketRepository(mock).UpdateCompletion(context.Background(), 5, domain.TicketStatusResolved, time.Now())
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
