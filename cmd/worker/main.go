package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eventra-app/eventra-backend/internal/attendance"
	"github.com/eventra-app/eventra-backend/internal/certificates"
	"github.com/eventra-app/eventra-backend/internal/certificates/render"
	"github.com/eventra-app/eventra-backend/internal/events"
	"github.com/eventra-app/eventra-backend/pkg/config"
	"github.com/eventra-app/eventra-backend/pkg/db"
	"github.com/eventra-app/eventra-backend/pkg/instance"
	"github.com/eventra-app/eventra-backend/pkg/logger"
	"github.com/eventra-app/eventra-backend/pkg/mail"
	"github.com/eventra-app/eventra-backend/pkg/metrics"
	"github.com/eventra-app/eventra-backend/pkg/migrate"
	"github.com/eventra-app/eventra-backend/pkg/pubsub"
	"github.com/eventra-app/eventra-backend/pkg/redis"
	"github.com/eventra-app/eventra-backend/pkg/storage/templates"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "certificate-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "certificate-worker"

	logg = logger.New(logger.Options{
		ServiceName: "certificate-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient))

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	mailClient, err := mail.New(cfg.Sendgrid, logg)
	requireResource(ctx, logg, "sendgrid", err)

	renderer, err := render.New()
	requireResource(ctx, logg, "renderer", err)

	eventsRepo := events.NewRepository(dbClient.DB())
	ledgerRepo := certificates.NewLedgerRepository(dbClient.DB())

	attendanceService, err := attendance.NewService(eventsRepo)
	requireResource(ctx, logg, "attendance service", err)

	batchMetrics := metrics.NewBatchMetrics(prometheus.DefaultRegisterer)
	templateClient := templates.NewClient(cfg.Certificates.TemplateTimeout, logg)

	worker, err := certificates.NewWorker(
		eventsRepo,
		ledgerRepo,
		attendanceService,
		templateClient,
		renderer,
		mailClient,
		batchMetrics,
		logg,
		cfg.Certificates.DispatchInterval,
	)
	requireResource(ctx, logg, "batch worker", err)

	consumer, err := certificates.NewConsumer(
		worker,
		pubsubClient.CertificateSubscription(),
		redisClient,
		cfg.Certificates.BatchLockTTL,
		logg,
	)
	requireResource(ctx, logg, "certificate consumer", err)

	service, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   pubsubClient,
		Consumer: consumer,
	})
	requireResource(ctx, logg, "worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
		"instance":    instance.GetID(),
	})
	logg.Info(runCtx, "certificate worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "certificate worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "certificate worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
