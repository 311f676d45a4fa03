package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shareit-backend/api/routes"
	"github.com/angelmondragon/shareit-backend/internal/bookings"
	"github.com/angelmondragon/shareit-backend/internal/items"
	"github.com/angelmondragon/shareit-backend/internal/users"
	"github.com/angelmondragon/shareit-backend/pkg/config"
	"github.com/angelmondragon/shareit-backend/pkg/db"
	"github.com/angelmondragon/shareit-backend/pkg/instance"
	"github.com/angelmondragon/shareit-backend/pkg/logger"
	"github.com/angelmondragon/shareit-backend/pkg/metrics"
	"github.com/angelmondragon/shareit-backend/pkg/migrate"
	"github.com/angelmondragon/shareit-backend/pkg/outbox"
	"github.com/angelmondragon/shareit-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var (
		redisClient *redis.Client
		redisPinger redis.Pinger
		idempotency redis.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		redisPinger = redisClient
		idempotency = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; idempotency and distributed locks disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var locker bookings.Locker
	if cfg.FeatureFlags.DistributedLocks {
		if redisClient == nil {
			return errors.New("distributed locks require redis")
		}
		locker, err = bookings.NewRedisLocker(bookings.RedisLockerParams{
			Store:    redisClient,
			TTL:      cfg.Bookings.LockTTL,
			Wait:     cfg.Bookings.LockWait,
			RetryGap: cfg.Bookings.LockRetryGap,
		})
		if err != nil {
			return err
		}
	}

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	userRepo := users.NewRepository(gormDB)
	itemRepo := items.NewRepository(gormDB)
	bookingSvc, err := bookings.NewService(bookings.ServiceParams{
		Repo:    bookings.NewRepository(gormDB, outboxSvc),
		Users:   userRepo,
		Items:   itemRepo,
		Locker:  locker,
		Metrics: metrics.NewBookingMetrics(registry),
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisPinger,
			Idempotency: idempotency,
			Bookings:    bookingSvc,
			Presenter:   bookings.NewPresenter(userRepo, itemRepo, logg),
			Gatherer:    registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
