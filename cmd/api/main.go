package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/mailer"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
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

	rules := config.DefaultRules()
	if cfg.Tickets.RulesFile != "" {
		rules, err = config.LoadRules(cfg.Tickets.RulesFile)
		if err != nil {
			logger.Fatal("failed to load rules file", zap.String("path", cfg.Tickets.RulesFile), zap.Error(err))
		}
	}

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

	metrics := observability.NewMetrics()

	var (
		sink      mailer.Sink
		rabbitDep = handlers.Dependency{Name: "rabbitmq", Optional: true}
	)
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := mailer.NewRabbitSink(cfg.RabbitMQ.URL, cfg.RabbitMQ.MailExchange, cfg.RabbitMQ.MailRouting, logger)
		if err != nil {
			logger.Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		defer rabbit.Close() //nolint:errcheck
		sink = rabbit
		rabbitDep.Check = rabbit.Ping
	} else {
		logger.Warn("RABBITMQ_URL not provided; mail is logged instead of sent")
		sink = mailer.NewLogSink(logger)
	}

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	levelRepo := repository.NewLevelRepository(pool)
	slaRepo := repository.NewSLAConfigRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	notifications := service.NewNotificationService(service.NotificationDependencies{
		TemplateRepo: templateRepo,
		AgentRepo:    agentRepo,
		Rules:        rules,
		Sink:         sink,
		Config:       cfg.Notification,
		Metrics:      metrics,
		Logger:       logger,
	})
	notifier := worker.NewNotificationWorker(events.NewInMemoryDispatcher(), cfg.Notification.WorkerSize, logger)
	notifications.RegisterHandlers(notifier)
	go notifier.Run()

	var locker service.Locker
	if ticketLocker := persistence.NewTicketLocker(redis, cfg.Tickets.LockTTL()); ticketLocker != nil {
		locker = ticketLocker
	}

	ticketDeps := service.TicketDependencies{
		Engine:         lifecycle.NewEngine(),
		TicketRepo:     ticketRepo,
		MessageRepo:    messageRepo,
		HistoryRepo:    historyRepo,
		AttachmentRepo: attachmentRepo,
		LevelRepo:      levelRepo,
		SLARepo:        slaRepo,
		AgentRepo:      agentRepo,
		CategoryRepo:   categoryRepo,
		Rules:          rules,
		Locker:         locker,
		Dispatcher:     notifier,
		Metrics:        metrics,
		Logger:         logger,
	}
	ticketService := service.NewTicketService(ticketDeps)
	assignmentService := service.NewAssignmentService(ticketDeps)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	agentService := service.NewAgentService(service.AgentDependencies{
		AgentRepo:  agentRepo,
		LevelRepo:  levelRepo,
		Tokens:     tokens,
		BcryptCost: cfg.Auth.BcryptCost,
		Dispatcher: notifier,
		Logger:     logger,
	})
	levelService := service.NewLevelService(levelRepo)
	categoryService := service.NewCategoryService(categoryRepo)

	redisDep := handlers.Dependency{Name: "redis", Optional: true}
	if redis != nil {
		redisDep.Check = redis.Ping
	}

	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
		handlers.Dependency{Name: "postgres", Check: pg.Ping}, redisDep, rabbitDep)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         health,
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService),
		Agents:         handlers.NewAgentsHandler(agentService),
		Levels:         handlers.NewLevelsHandler(levelService, categoryService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, agentService),
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer drainCancel()
	if err := notifier.Stop(drainCtx); err != nil {
		logger.Warn("notification queue not drained", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
