package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	eventapp "github.com/early-express/inventory-service/internal/application/event"
	stockapp "github.com/early-express/inventory-service/internal/application/stock"
	"github.com/early-express/inventory-service/internal/domain/shared"
	"github.com/early-express/inventory-service/internal/infrastructure/cache"
	"github.com/early-express/inventory-service/internal/infrastructure/config"
	"github.com/early-express/inventory-service/internal/infrastructure/event"
	"github.com/early-express/inventory-service/internal/infrastructure/logger"
	"github.com/early-express/inventory-service/internal/infrastructure/messaging"
	"github.com/early-express/inventory-service/internal/infrastructure/persistence"
	"github.com/early-express/inventory-service/internal/interfaces/http/handler"
	"github.com/early-express/inventory-service/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("starting inventory service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	// Event plumbing: serializer, transactional outbox, broker publisher.
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)

	outboxPublisher := event.NewOutboxPublisher(serializer, &cfg.Kafka.Topics)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	stockRepo := persistence.NewGormStockCellRepository(db.DB, outboxPublisher)

	kafkaPublisher := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, log)
	defer func() {
		if err := kafkaPublisher.Close(); err != nil {
			log.Error("error closing kafka publisher", zap.Error(err))
		}
	}()

	if cfg.Outbox.ProcessorEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		processorConfig.BatchSize = cfg.Outbox.BatchSize
		processorConfig.PollInterval = cfg.Outbox.PollInterval
		processorConfig.MaxBackoff = cfg.Outbox.MaxBackoff
		processorConfig.CleanupEnabled = cfg.Outbox.CleanupEnabled
		processorConfig.CleanupRetention = cfg.Outbox.CleanupRetention

		outboxProcessor := event.NewOutboxProcessor(outboxRepo, kafkaPublisher, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := outboxProcessor.Stop(ctx); err != nil {
				log.Error("error stopping outbox processor", zap.Error(err))
			}
		}()
	}

	// Inbound dedup store: Redis when configured, in-process otherwise.
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		idempotencyStore = store
		log.Info("redis idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("using in-memory idempotency store")
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("error closing idempotency store", zap.Error(err))
		}
	}()

	stockService := stockapp.NewService(stockRepo, stockapp.Config{
		RetryMaxAttempts:   cfg.Engine.RetryMaxAttempts,
		DefaultSafetyFloor: cfg.Inventory.DefaultSafetyFloor,
		DefaultLocation:    cfg.Inventory.DefaultLocation,
		AvailableHubs:      cfg.Inventory.AvailableHubs,
		FanoutCreate:       cfg.Inventory.FanoutCreate,
	}, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Product lifecycle consumers, wrapped so redelivered events are
	// acknowledged without reapplying their effects.
	registry := event.NewHandlerRegistry()
	for _, h := range event.WrapHandlersWithIdempotency(
		[]shared.EventHandler{
			stockapp.NewProductCreatedHandler(stockService, log),
			stockapp.NewProductDeletedHandler(stockService, log),
		},
		idempotencyStore, log,
	) {
		registry.Register(h)
	}

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()

	consumer := messaging.NewProductEventConsumer(messaging.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID,
		Topics:  []string{cfg.Kafka.Topics.ProductCreated, cfg.Kafka.Topics.ProductDeleted},
	}, serializer, registry, log)
	consumer.Run(consumerCtx)
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Error("error closing consumer", zap.Error(err))
		}
	}()

	handler.RegisterValidations()

	engine, err := router.New(router.Config{
		Env:            cfg.App.Env,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, log,
		handler.NewInventoryInternalHandler(stockService),
		handler.NewInventoryWebHandler(stockService),
		handler.NewOutboxHandler(outboxService),
	)
	if err != nil {
		log.Fatal("failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	stopConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited gracefully")
}
