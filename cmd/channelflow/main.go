package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/channelflow/internal/admin"
	"github.com/your-org/channelflow/internal/alert"
	"github.com/your-org/channelflow/internal/consumer"
	"github.com/your-org/channelflow/internal/engine"
	"github.com/your-org/channelflow/internal/notify"
	"github.com/your-org/channelflow/internal/provisioning"
	"github.com/your-org/channelflow/internal/reconcile"
	"github.com/your-org/channelflow/internal/store"
	"github.com/your-org/channelflow/internal/worker"
	"github.com/your-org/channelflow/pkg/config"
	"github.com/your-org/channelflow/pkg/kafka"
	"github.com/your-org/channelflow/pkg/logger"
	"github.com/your-org/channelflow/pkg/storage/objectstore"
	"github.com/your-org/channelflow/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		Attributes:  parseResourceAttributes(cfg.Tracing.ResourceAttr),
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	objStore, err := objectstore.New(objectstore.Config{
		Provider:  cfg.Storage.Provider,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		logr.Fatal("init object store", zap.Error(err))
	}
	repo := store.NewObjectStoreRepository(objStore, logr)

	var engineClient provisioning.EngineClient
	if cfg.Provisioning.DryRun {
		logr.Info("dry run mode: using in-memory media engine client")
		engineClient = engine.NewDryRunClient()
	} else {
		grpcClient, err := engine.NewGRPCClient(engine.Config{
			Addr:           cfg.Engine.Addr,
			Insecure:       cfg.Engine.Insecure,
			RequestTimeout: cfg.Engine.RequestTimeout,
		})
		if err != nil {
			logr.Fatal("init media engine client", zap.Error(err))
		}
		defer grpcClient.Close() //nolint:errcheck
		engineClient = grpcClient
	}

	provisioner, err := provisioning.NewProvisioner(repo, engineClient, logr, provisioning.Config{
		ManifestBucket:    cfg.Provisioning.ManifestBucket,
		MaxProvisionRetry: cfg.Provisioning.MaxProvisionRetry,
		CdnBaseURL:        cfg.Provisioning.CdnBaseURL,
		SigningKeyID:      cfg.Provisioning.SigningKeyID,
		DryRun:            cfg.Provisioning.DryRun,
		Ladders: provisioning.LadderConfig{
			ReelsPreset:      cfg.Provisioning.ReelsPreset,
			SeriesPreset:     cfg.Provisioning.SeriesPreset,
			ReelsIngestPool:  cfg.Provisioning.ReelsIngestPool,
			SeriesIngestPool: cfg.Provisioning.SeriesIngestPool,
			ReelsEgressPool:  cfg.Provisioning.ReelsEgressPool,
			SeriesEgressPool: cfg.Provisioning.SeriesEgressPool,
		},
	})
	if err != nil {
		logr.Fatal("construct provisioner", zap.Error(err))
	}

	notifyProducer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.PlaybackReadyTopic,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		Compression:  kafka.CompressionFromString(cfg.Kafka.CompressionCodec),
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  cfg.Kafka.Retries,
	})
	notifier := notify.NewKafkaPublisher(notifyProducer)

	var webhookSink provisioning.AlertingSink
	if cfg.Alerting.WebhookURL != "" {
		webhookSink = alert.NewWebhookSink(cfg.Alerting.WebhookURL, cfg.Alerting.WebhookTimeout, logr)
	}
	alerts := alert.NewMultiSink(alert.NewZapSink(logr), webhookSink)

	w := worker.New(provisioner, notifier, alerts, logr, worker.Config{
		AckDeadlineSeconds:  cfg.Worker.AckDeadlineSeconds,
		ManifestTTLSeconds:  cfg.Worker.ManifestTTLSeconds,
		MaxDeliveryAttempts: cfg.Worker.MaxDeliveryAttempts,
	})

	consumerLoop := consumer.New(consumer.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.UploadEventsTopic,
		GroupID: cfg.Kafka.UploadEventsGroupID,
	}, w, logr)

	reconcileLoop := reconcile.New(repo, provisioner, alerts, logr, reconcile.Config{
		DefaultLimit:           cfg.Reconcile.DefaultLimit,
		DefaultTenantID:        cfg.Reconcile.DefaultTenantID,
		DefaultDurationSeconds: cfg.Reconcile.DefaultDurationSeconds,
		DefaultIngestRegion:    cfg.Reconcile.DefaultIngestRegion,
	})

	adminHandler := admin.New(repo, provisioner, engineClient, logr)
	adminServer := &http.Server{
		Addr:         cfg.Admin.Addr,
		Handler:      adminHandler.Router(),
		ReadTimeout:  cfg.Admin.ReadTimeout,
		WriteTimeout: cfg.Admin.WriteTimeout,
		IdleTimeout:  cfg.Admin.IdleTimeout,
	}

	go func() {
		if err := consumerLoop.Run(ctx); err != nil {
			logr.Error("consumer loop exited", zap.Error(err))
		}
	}()

	go runReconcileTicker(ctx, reconcileLoop, cfg.Reconcile.Interval, cfg.Reconcile.DefaultLimit, logr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logr.Error("admin server shutdown failed", zap.Error(err))
		}
		if err := consumerLoop.Close(); err != nil {
			logr.Error("consumer loop close failed", zap.Error(err))
		}
		if err := notifyProducer.Close(shutdownCtx); err != nil {
			logr.Error("notification producer close failed", zap.Error(err))
		}
		if err := objStore.Close(); err != nil {
			logr.Error("object store close failed", zap.Error(err))
		}
	}()

	logr.Info("channelflow provisioning service starting", zap.String("addr", cfg.Admin.Addr))
	if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Fatal("admin server failed", zap.Error(err))
	}
}

// runReconcileTicker drives the Reconciliation Loop on a fixed
// interval until ctx is canceled: the simplest in-process scheduler
// for a sweep that could just as easily be invoked externally.
func runReconcileTicker(ctx context.Context, loop *reconcile.Loop, interval time.Duration, limit int, log *zap.Logger) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := loop.ReconcileFailed(ctx, limit); err != nil {
				log.Error("reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

func parseResourceAttributes(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	attrs := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" || !strings.Contains(pair, "=") {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		attrs[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return attrs
}
