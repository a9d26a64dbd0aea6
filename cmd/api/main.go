package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-routing/internal/agent"
	httptransport "github.com/spec-kit/ticket-routing/internal/api/http"
	"github.com/spec-kit/ticket-routing/internal/api/http/handlers"
	"github.com/spec-kit/ticket-routing/internal/auth"
	"github.com/spec-kit/ticket-routing/internal/call"
	"github.com/spec-kit/ticket-routing/internal/config"
	"github.com/spec-kit/ticket-routing/internal/events"
	"github.com/spec-kit/ticket-routing/internal/observability"
	"github.com/spec-kit/ticket-routing/internal/persistence"
	"github.com/spec-kit/ticket-routing/internal/repository"
	"github.com/spec-kit/ticket-routing/internal/service"
	"github.com/spec-kit/ticket-routing/internal/worker"
	"github.com/spec-kit/ticket-routing/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	llm := agent.NewCompletionClient(cfg.LLM)
	answerCache := agent.NewRedisAnswerCache(redis.Client)
	sessions := call.NewController()

	engine := workflow.NewEngine(cfg.Workflow, workflow.EngineDeps{
		Tickets:      ticketRepo,
		Directory:    employeeRepo,
		Preprocessor: agent.NewPreprocessor(llm, logger),
		Knowledge:    agent.NewKnowledge(llm, answerCache, cfg.Workflow.CacheTTL(), logger),
		Assigner:     agent.NewAssigner(employeeRepo, logger),
		Conversation: agent.NewConversation(sessions, employeeRepo, dispatcher, logger),
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, employeeRepo)

	ticketService := service.NewTicketService(ticketRepo, cfg.Workflow.MaxRedirects)
	authService := service.NewAuthService(employeeRepo, tokens)
	notificationService := service.NewNotificationService(dispatcher, employeeRepo, logger, cfg.Notify)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Workflows:      handlers.NewWorkflowsHandler(engine, ticketService),
		Employees:      handlers.NewEmployeesHandler(employeeRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
