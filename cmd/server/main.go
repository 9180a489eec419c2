package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"mailbucket/internal/config"
	"mailbucket/internal/fetcher"
	"mailbucket/internal/fetcher/gmail"
	"mailbucket/internal/handler"
	"mailbucket/internal/httpserver"
	"mailbucket/internal/repository"
	"mailbucket/internal/service/classify"
	"mailbucket/internal/service/syncer"
	"mailbucket/pkg/db"
	"mailbucket/pkg/logger"
	"mailbucket/pkg/mq"
	"mailbucket/pkg/ratelimit"
	"mailbucket/pkg/redis"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting mailbucket server...")

	// Redis
	rdb := redis.NewClient(cfg.Redis)
	defer rdb.Close()

	// DB
	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	defer pool.Close()

	// MQ
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("MQ connection failed", zap.Error(err))
	}
	defer publisher.Close()

	// repositories
	emailRepo := repository.NewEmailRepository(pool)
	bucketRepo := repository.NewBucketRepository(pool)

	// sync
	syncService := syncer.NewService(emailRepo, publisher, 100, logger.Named(log, "syncer"))
	gmailFactory := handler.FetcherFactory(func(ctx context.Context, token string) (fetcher.ThreadFetcher, error) {
		return gmail.New(ctx, token)
	})

	// classification
	classifier := classify.NewHTTPClassifier(cfg.Classifier.URL, cfg.Pipeline.BatchTimeout())
	limiter := ratelimit.NewLimiter(cfg.Pipeline.StartsPerSecond, time.Second)
	orchestrator := classify.NewOrchestrator(
		classifier,
		limiter,
		cfg.Pipeline.BatchSize,
		cfg.Pipeline.BatchTimeout(),
		logger.Named(log, "orchestrator"),
	)
	runLock := classify.NewRunLock(rdb, 10*time.Minute, log)
	pipeline := classify.NewPipeline(
		emailRepo,
		bucketRepo,
		orchestrator,
		runLock,
		publisher,
		cfg.Pipeline.MaxWorkingSet,
		logger.Named(log, "pipeline"),
	)

	// handlers + router
	syncHandler := handler.NewSyncHandler(syncService, gmailFactory, bucketRepo, log)
	classifyHandler := handler.NewClassifyHandler(pipeline, log)
	router := httpserver.NewRouter(syncHandler, classifyHandler, pool, publisher, cfg.JWT.Secret)

	log.Info("Server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("Server crashed", zap.Error(err))
	}
}
