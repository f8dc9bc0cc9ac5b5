package worker

import (
	"context"
	"fmt"
	"sync"

	cronlib "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

// PendingSource lists open tickets that have no agent yet.
type PendingSource interface {
	ListPending(ctx context.Context, limit int) ([]domain.Ticket, error)
}

// TicketRouter runs a ticket through assignment.
type TicketRouter interface {
	ProcessNewTicket(ctx context.Context, ticket *domain.Ticket) (*domain.Agent, error)
}

// PendingSweeperConfig wires a PendingSweeper.
type PendingSweeperConfig struct {
	Tickets PendingSource
	Router  TicketRouter
	Logger  *zap.Logger
	// Schedule is a cron spec such as "@every 1m" or "*/5 * * * *". Empty disables the sweeper.
	Schedule string
	Batch    int
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Scanned  int
	Assigned int
	Pending  int
	Failed   int
}

// PendingSweeper periodically retries assignment of pending tickets.
type PendingSweeper struct {
	tickets  PendingSource
	router   TicketRouter
	logger   *zap.Logger
	schedule string
	batch    int

	mu   sync.Mutex
	cron *cronlib.Cron
}

// NewPendingSweeper builds a sweeper. It does nothing until Start.
func NewPendingSweeper(cfg PendingSweeperConfig) *PendingSweeper {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	batch := cfg.Batch
	if batch <= 0 {
		batch = 50
	}
	return &PendingSweeper{
		tickets:  cfg.Tickets,
		router:   cfg.Router,
		logger:   logger,
		schedule: cfg.Schedule,
		batch:    batch,
	}
}

// Start schedules sweeps. Overlapping runs are skipped.
func (s *PendingSweeper) Start(ctx context.Context) error {
	if s.schedule == "" {
		s.logger.Info("pending sweeper disabled")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cronlib.New(cronlib.WithChain(cronlib.SkipIfStillRunning(cronlib.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule pending sweeper %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("pending sweeper started", zap.String("schedule", s.schedule), zap.Int("batch", s.batch))
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *PendingSweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("pending sweeper stopped")
}

// Sweep tries to assign up to one batch of pending tickets, oldest first.
// A failing ticket is logged and skipped.
func (s *PendingSweeper) Sweep(ctx context.Context) SweepResult {
	var result SweepResult
	pending, err := s.tickets.ListPending(ctx, s.batch)
	if err != nil {
		s.logger.Error("list pending tickets failed", zap.Error(err))
		return result
	}
	for i := range pending {
		if ctx.Err() != nil {
			break
		}
		ticket := &pending[i]
		result.Scanned++
		agent, err := s.router.ProcessNewTicket(ctx, ticket)
		switch {
		case err != nil:
			result.Failed++
			s.logger.Warn("retry assignment failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		case agent == nil:
			result.Pending++
		default:
			result.Assigned++
		}
	}
	if result.Scanned > 0 {
		s.logger.Info("pending sweep finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("assigned", result.Assigned),
			zap.Int("pending", result.Pending),
			zap.Int("failed", result.Failed))
	}
	return result
}
