package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-triage/internal/api/http"
	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
	"github.com/spec-kit/ticket-triage/internal/cache"
	"github.com/spec-kit/ticket-triage/internal/classifier"
	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/persistence"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/repository/gormstore"
	"github.com/spec-kit/ticket-triage/internal/service"
	"github.com/spec-kit/ticket-triage/internal/worker"
)

// store is the selected relational backend.
type store struct {
	users   repository.UserRepository
	tickets repository.TicketRepository
	pinger  handlers.Pinger
	close   func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer st.close()

	var (
		redisClient *goredis.Client
		redisPinger handlers.Pinger
	)
	if ttl := cfg.Redis.StatsCacheTTL(); ttl > 0 {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		redisClient = redis.Client
		redisPinger = redis
	}
	statsCache := cache.NewStatsCache(redisClient, cfg.Redis.StatsCacheTTL())

	dispatcher := events.NewInMemoryDispatcher()
	gateway := classifier.New(cfg.Classifier, logger, metrics)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: st.tickets,
		UserRepo:   st.users,
		Classifier: gateway,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	queryService := service.NewQueryService(st.tickets, statsCache, metrics, logger)
	userService := service.NewUserService(st.users)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService, logger)
	worker.StartStatsCacheInvalidation(dispatcher, queryService, logger)

	if cfg.Bootstrap.Seed {
		bootstrap := service.NewBootstrapService(st.users, st.tickets, ticketService, cfg.Bootstrap, logger, nil)
		if _, err := bootstrap.Seed(ctx); err != nil {
			logger.Fatal("failed to seed store", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.CORSAllowOrigins)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, st.pinger, redisPinger),
		Users:   handlers.NewUsersHandler(userService),
		Tickets: handlers.NewTicketsHandler(ticketService, queryService, userService),
		Stats:   handlers.NewStatsHandler(queryService),
		Metrics: metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store, error) {
	if cfg.Store.Driver == config.StoreDriverPostgres {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		pool := pg.PoolHandle()
		return &store{
			users:   repository.NewUserRepository(pool),
			tickets: repository.NewTicketRepository(pool),
			pinger:  pg,
			close:   pg.Close,
		}, nil
	}

	lite, err := persistence.NewSQLite(cfg.Store.SQLiteDSN, logger)
	if err != nil {
		return nil, err
	}
	if err := gormstore.AutoMigrate(lite.DB); err != nil {
		lite.Close()
		return nil, err
	}
	return &store{
		users:   gormstore.NewUserRepository(lite.DB),
		tickets: gormstore.NewTicketRepository(lite.DB),
		pinger:  lite,
		close:   lite.Close,
	}, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
