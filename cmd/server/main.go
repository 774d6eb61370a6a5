package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hoangnm/variant-sync/internal/adapter/handler"
	"github.com/hoangnm/variant-sync/internal/adapter/messaging"
	"github.com/hoangnm/variant-sync/internal/adapter/shopify"
	"github.com/hoangnm/variant-sync/internal/adapter/storage"
	"github.com/hoangnm/variant-sync/internal/config"
	"github.com/hoangnm/variant-sync/internal/core/service"
	"github.com/hoangnm/variant-sync/internal/port"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to yaml config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dedup cache: shared Redis store when configured, per-process map
	// otherwise (loop suppression then only holds within this instance).
	var dedup port.DedupCache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		dedup = storage.NewRedisDedupCache(rdb, cfg.DedupTTL)
	} else {
		logger.Info("using in-process dedup cache")
		dedup = storage.NewMemoryDedupCache(cfg.DedupTTL)
	}

	var publisher port.OutcomePublisher = port.NoopPublisher{}
	var kafkaPublisher *messaging.KafkaPublisher
	if cfg.KafkaBroker != "" {
		kafkaPublisher = messaging.NewKafkaPublisher(cfg.KafkaBroker)
		publisher = kafkaPublisher
		logger.Info("publishing sync outcomes",
			zap.String("broker", cfg.KafkaBroker),
			zap.String("topic", messaging.OutcomeTopic))
	}

	gateway := shopify.NewClient(shopify.Config{
		StoreDomain:      cfg.StoreDomain,
		AccessToken:      cfg.AdminAPIToken,
		APIVersion:       cfg.APIVersion,
		VariantPageLimit: cfg.VariantPageLimit,
		HTTPClient:       &http.Client{Timeout: cfg.CallTimeout},
	})

	resolver := service.NewResolver(gateway)
	propagator := service.NewPropagator(gateway, cfg.PropagationConcurrency, cfg.CallTimeout, logger)
	syncService := service.NewSyncService(dedup, resolver, propagator, publisher, logger)

	httpHandler := handler.NewHTTPHandler(syncService, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", httpHandler.HealthCheck)
	mux.HandleFunc("/webhook/inventory", httpHandler.InventoryWebhook)

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Listen))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("failed to close kafka writer", zap.Error(err))
		}
	}
	if rdb != nil {
		rdb.Close()
	}
	logger.Info("connections closed")
}
