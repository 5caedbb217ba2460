package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"regsync/internal/importer"
	"regsync/internal/importer/enrich"
	importermetrics "regsync/internal/importer/metrics"
	"regsync/internal/importer/source"
	"regsync/internal/platform/config"
	"regsync/internal/platform/httpserver"
	"regsync/internal/platform/logger"
	"regsync/internal/platform/mongo"
	"regsync/internal/platform/redis"
	recordstore "regsync/internal/records/store"
	"regsync/internal/taskaudit"
	httptransport "regsync/internal/transport/http"
	"regsync/pkg/platform/events"
	"regsync/pkg/platform/middleware/auth"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal services packages.
func main() {
	cfg := config.Load()

	log, err := logger.New(os.Getenv("REGSYNC_DEBUG") != "")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Close(shutdownCtx)
	}()

	records := recordstore.NewMongo(mongoClient.Database)
	if err := records.EnsureIndexes(ctx); err != nil {
		log.Fatal("record index creation failed", zap.Error(err))
	}
	tasks := taskaudit.NewMongo(mongoClient.Database)

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connect failed", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	var publisher *events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatal("event publisher init failed", zap.Error(err))
		}
		defer publisher.Close()
	}

	sourceClient := source.NewClient(cfg.SourceBaseURL, source.NewHTTPFetcher(cfg.SourceAPIKey, 30*time.Second))

	var cache enrich.Cache
	if redisClient != nil {
		cache = enrich.NewRedisCache(redisClient, cfg.EnrichCacheTTL)
	} else {
		cache = enrich.NewMemoryCache(cfg.EnrichCacheTTL)
	}
	enricher := enrich.New(sourceClient, cache)

	svc := importer.New(importer.Config{
		Registry:  importer.DefaultRegistry(),
		Records:   records,
		Source:    sourceClient,
		Enricher:  enricher,
		Logger:    log,
		Metrics:   importermetrics.New(),
		Events:    publisher,
		BatchSize: cfg.BatchSize,
	})

	handler := httptransport.New(log, svc, tasks, auth.NewValidator(cfg.JWTSigningKey), publisher)
	handler.AddHealthCheck(func(r *http.Request) error {
		return mongoClient.Health(r.Context())
	})
	if redisClient != nil {
		handler.AddHealthCheck(func(r *http.Request) error {
			return redisClient.Health(r.Context())
		})
	}

	srv := httpserver.New(cfg.Addr, handler.Router())

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
