package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebalkan/notifyhub/internal/config"
	"github.com/ebalkan/notifyhub/internal/gateway"
	"github.com/ebalkan/notifyhub/internal/handler"
	"github.com/ebalkan/notifyhub/internal/infra/postgresql"
	"github.com/ebalkan/notifyhub/internal/infra/postgresql/migrations"
	infraredis "github.com/ebalkan/notifyhub/internal/infra/redis"
	"github.com/ebalkan/notifyhub/internal/observability"
	"github.com/ebalkan/notifyhub/internal/queue"
	"github.com/ebalkan/notifyhub/internal/repository"
	"github.com/ebalkan/notifyhub/internal/service"
	"github.com/ebalkan/notifyhub/internal/transport"
	"github.com/ebalkan/notifyhub/internal/ws"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer observability.Sync(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("notifyhub exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer rabbit.Close()

	publisher := queue.NewRabbitMQPublisher(rabbit)
	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger.Named("consumer"))

	notificationRepo := repository.NewGormNotificationRepo(db)
	attemptRepo := repository.NewGormAttemptRepo(db)
	userRepo := repository.NewGormUserRepo(db)

	emailGateway, err := gateway.NewSendGridGateway(cfg.SendGridAPIKey, cfg.EmailFrom)
	if err != nil {
		return fmt.Errorf("sendgrid initialization failed: %w", err)
	}

	smsGateway, err := gateway.NewTwilioGateway(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	if err != nil {
		return fmt.Errorf("twilio initialization failed: %w", err)
	}

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	metrics := observability.NewMetrics()

	registry := ws.NewRegistry(logger.Named("ws"))
	metrics.RegisterLiveConnections(registry.TotalConnections)

	notificationService, err := service.NewNotificationService(
		notificationRepo,
		attemptRepo,
		userRepo,
		publisher,
		logger.Named("service"),
	)
	if err != nil {
		return fmt.Errorf("notification service initialization failed: %w", err)
	}

	worker, err := service.NewDeliveryWorker(
		notificationRepo,
		attemptRepo,
		consumer,
		publisher,
		emailGateway,
		smsGateway,
		registry,
		rateLimiter,
		service.NewRetryPolicy(cfg.MaxAttempts, cfg.RetryBaseDelay()),
		service.Recipients{Email: cfg.EmailRecipient, Phone: cfg.SMSRecipient},
		cfg.WorkerConcurrency,
		logger.Named("worker"),
	)
	if err != nil {
		return fmt.Errorf("delivery worker initialization failed: %w", err)
	}
	worker.SetMetrics(metrics)

	reconciler, err := service.NewReconciler(
		notificationRepo,
		publisher,
		0, 0, 0,
		logger.Named("reconciler"),
	)
	if err != nil {
		return fmt.Errorf("reconciler initialization failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "notifyhub",
		ErrorHandler: transport.ErrorHandler(logger.Named("http")),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app,
		handler.PostgresCheck(sqlDB),
		handler.RedisCheck(rdb),
		handler.BrokerCheck(rabbit),
	)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	if err := handler.RegisterNotificationRoutes(app, notificationService); err != nil {
		return fmt.Errorf("route registration failed: %w", err)
	}
	ws.RegisterSessionRoutes(app, registry, logger.Named("ws"))

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return worker.Start(groupCtx)
	})

	g.Go(func() error {
		return reconciler.Start(groupCtx)
	})

	g.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down")
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !isShutdownErr(err) {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

func isShutdownErr(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
