package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/thejerf/suture/v4"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-sync/internal/api/http"
	"github.com/spec-kit/ticket-sync/internal/api/http/handlers"
	"github.com/spec-kit/ticket-sync/internal/auth"
	"github.com/spec-kit/ticket-sync/internal/config"
	"github.com/spec-kit/ticket-sync/internal/events"
	"github.com/spec-kit/ticket-sync/internal/feed"
	"github.com/spec-kit/ticket-sync/internal/observability"
	"github.com/spec-kit/ticket-sync/internal/persistence"
	"github.com/spec-kit/ticket-sync/internal/repository"
	"github.com/spec-kit/ticket-sync/internal/scheduler"
	"github.com/spec-kit/ticket-sync/internal/service"
	"github.com/spec-kit/ticket-sync/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	personRepo := repository.NewPersonRepository(pool)

	sheets := feed.NewSheetsClient(cfg.Sheets, logger)
	dispatcher := events.NewInMemoryDispatcher()

	personService := service.NewPersonService(personRepo, rdb.Client, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    ticketRepo,
		PersonService: personService,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	syncService := service.NewSyncService(service.SyncDependencies{
		Source:     sheets,
		TicketRepo: ticketRepo,
		Lock:       persistence.NewRunLock(rdb, cfg.Sync.LockKey, cfg.Sync.LockTTL()),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	writebackService := service.NewWritebackService(sheets, dispatcher, metrics, logger)
	worker.StartWritebackWorker(writebackService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	tree := suture.NewSimple(cfg.App.Name)
	tree.Add(observability.NewMetricsServer(cfg.Metrics.Addr, metrics, logger))
	if cfg.Sync.Enabled {
		tree.Add(scheduler.NewSyncScheduler(syncService, cfg.Sync.Interval(), logger))
	}
	supervisorErrs := tree.ServeBackground(ctx)

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Tickets: handlers.NewTicketsHandler(ticketService),
		People:  handlers.NewPeopleHandler(personService),
		Auth:    handlers.NewAuthHandler(personService, tokens),
		Sync:    handlers.NewSyncHandler(syncService),
		Tokens:  tokens,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger, supervisorErrs)

	_ = app.Shutdown()
	writebackService.Wait()
	cancel()
}

func waitForShutdown(logger *zap.Logger, supervisorErrs <-chan error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-supervisorErrs:
		logger.Error("supervisor tree stopped", zap.Error(err))
	}
}
