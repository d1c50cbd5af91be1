package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"docsearch-platform/internal/config"
	"docsearch-platform/internal/jobs"
	"docsearch-platform/internal/logger"
	"docsearch-platform/internal/queue"
	"docsearch-platform/internal/repository"
	"docsearch-platform/internal/telemetry"
	"docsearch-platform/internal/vectorstore"
	"docsearch-platform/internal/vectorstore/weaviate"
	"docsearch-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg.GinMode == "debug")

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Connect to Weaviate
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	vectorClient, err := weaviate.NewClient(ctx, weaviate.Config{
		Host:   cfg.WeaviateHost,
		Port:   cfg.WeaviatePort,
		Scheme: cfg.WeaviateScheme,
	})
	cancel()
	if err != nil {
		log.Fatal("Failed to connect to Weaviate:", err)
	}
	store := vectorstore.NewGuardedStore(vectorClient, cfg.VectorStoreRPS)

	// Wire the pipeline
	documentRepo := repository.NewDocumentRepository(mongoClient.Database(cfg.DBName))
	tracker := jobs.NewTracker(rdb, time.Duration(cfg.JobStatusTTLHours)*time.Hour)
	chunker := services.NewChunkingService(cfg.ChunkSize, cfg.ChunkOverlap)
	collectionService := services.NewCollectionService(store, cfg.Vectorizer)
	inserter := services.NewBatchInserter(store, collectionService)
	ingestService := services.NewIngestService(chunker, collectionService, inserter, tracker, documentRepo, cfg.BatchSize)

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}
	processor := queue.NewTaskProcessor(ingestService, metrics)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskDocumentIngest, processor.HandleDocumentIngest)

	logger.Info("Starting ingestion worker",
		"concurrency", cfg.WorkerConcurrency, "redis", cfg.RedisURL)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
