package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/valorant-dhruv/FeathersUp.ai/internal/api/http"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/api/http/handlers"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/auth"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/events"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/observability"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/persistence"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/repository"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/repository/memory"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/service"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the pending sweeper",
	RunE:  runServe,
}

type repositories struct {
	agents        repository.AgentRepository
	categories    repository.CategoryRepository
	subscriptions repository.SubscriptionRepository
	tickets       repository.TicketRepository
}

func newRepositories(pg *persistence.Postgres, logger *zap.Logger) repositories {
	if pool := pg.PoolHandle(); pool != nil {
		return repositories{
			agents:        repository.NewAgentRepository(pool),
			categories:    repository.NewCategoryRepository(pool),
			subscriptions: repository.NewSubscriptionRepository(pool),
			tickets:       repository.NewTicketRepository(pool),
		}
	}
	logger.Warn("running on in-memory storage; data is lost on restart")
	db := memory.New()
	return repositories{
		agents:        db.Agents(),
		categories:    db.Categories(),
		subscriptions: db.Subscriptions(),
		tickets:       db.Tickets(),
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.NewTelemetry(ctx, cfg.App, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()
	metrics, err := observability.NewMetrics(telemetry.Meter)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return err
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := newRepositories(pg, logger)
	dispatcher := events.NewInMemoryDispatcher()

	var relay *events.RedisRelay
	if redis != nil && cfg.Events.RedisChannel != "" {
		relay = events.NewRedisRelay(redis.Client, cfg.Events.RedisChannel, logger)
	}
	worker.StartNotificationWorker(dispatcher, service.NewNotificationService(dispatcher, logger), relay)

	assignment := service.NewAssignmentService(service.AssignmentDependencies{
		AgentRepo:              repos.agents,
		CategoryRepo:           repos.categories,
		SubscriptionRepo:       repos.subscriptions,
		TicketRepo:             repos.tickets,
		Dispatcher:             dispatcher,
		Logger:                 logger,
		Metrics:                metrics,
		Tracer:                 telemetry.Tracer,
		RebuildFromAssignments: cfg.Queue.RebuildFromAssignments,
		BalancerConcurrency:    cfg.Queue.BalancerConcurrency,
	})
	if err := assignment.LoadAgentQueues(ctx); err != nil {
		return fmt.Errorf("load agent queues: %w", err)
	}
	if err := metrics.RegisterQueueDepth(assignment.QueuedTotal); err != nil {
		return fmt.Errorf("register queue depth gauge: %w", err)
	}

	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   repos.tickets,
		CategoryRepo: repos.categories,
		Assignment:   assignment,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	sweeper := worker.NewPendingSweeper(worker.PendingSweeperConfig{
		Tickets:  repos.tickets,
		Router:   assignment,
		Logger:   logger,
		Schedule: cfg.Queue.PendingSweepSchedule,
		Batch:    cfg.Queue.PendingSweepBatch,
	})
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	health := map[string]handlers.Pinger{"postgres": nil, "redis": nil}
	if pg.PoolHandle() != nil {
		health["postgres"] = pg
	}
	if redis != nil {
		health["redis"] = redis
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, health),
		Tickets:        handlers.NewTicketsHandler(tickets),
		Queue:          handlers.NewQueueHandler(tickets, assignment),
		Agents:         handlers.NewAgentsHandler(assignment),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.agents),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	}
	return app.ShutdownWithTimeout(shutdownTimeout)
}
