package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gastaldl/lojaflow/internal/bootstrap"
	"github.com/gastaldl/lojaflow/internal/cron"
	"github.com/gastaldl/lojaflow/pkg/config"
	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/logger"
	"github.com/gastaldl/lojaflow/pkg/metrics"
	"github.com/gastaldl/lojaflow/pkg/migrate"
	"github.com/gastaldl/lojaflow/pkg/redis"
)

const lockName = "maintenance"

func main() {
	once := flag.Bool("once", false, "run a single maintenance cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if err := run(ctx, cfg, logg, *once); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	services, err := bootstrap.NewServices(ctx, cfg, dbClient, logg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()

	var lock cron.Lock = &cron.LocalLock{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		lock, err = cron.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Maintenance.LockTTL)
		if err != nil {
			return err
		}
	} else {
		logg.Warn(ctx, "redis not configured, maintenance lock is process-local")
	}

	loc, err := cfg.Orders.Location()
	if err != nil {
		return err
	}

	purge, err := cron.NewPurgeCancelledJob(services.Orders, logg, cfg.Orders.PurgeRetention)
	if err != nil {
		return err
	}

	scheduler, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Jobs:     []cron.Job{purge},
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Schedule: cfg.Maintenance.Schedule,
		Location: loc,
	})
	if err != nil {
		return err
	}

	if once {
		_, err := scheduler.RunOnce(ctx)
		return err
	}
	if addr := cfg.Maintenance.MetricsAddr; addr != "" {
		stopMetrics := serveMetrics(ctx, addr, logg)
		defer stopMetrics()
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"schedule": scheduler.Schedule(),
		"next_run": scheduler.NextRun(time.Now()),
	}), "starting cron worker")
	return scheduler.Run(ctx)
}

func serveMetrics(ctx context.Context, addr string, logg *logger.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics listener failed", err)
		}
	}()
	logg.Info(logg.WithField(ctx, "addr", addr), "serving worker metrics")

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
