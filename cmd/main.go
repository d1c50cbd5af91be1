package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"docsearch-platform/internal/config"
	"docsearch-platform/internal/jobs"
	"docsearch-platform/internal/logger"
	"docsearch-platform/internal/queue"
	"docsearch-platform/internal/repository"
	"docsearch-platform/internal/telemetry"
	"docsearch-platform/internal/vectorstore"
	"docsearch-platform/internal/vectorstore/weaviate"
	"docsearch-platform/middleware"
	"docsearch-platform/routes"
	"docsearch-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg.GinMode == "debug")

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("docsearch-platform", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to init tracer:", err)
		}
		defer shutdown()
	}

	// Connect to MongoDB (durable document metadata)
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis (job status cache)
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Connect to Weaviate (vector store), guarded by a circuit breaker
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

	// Task queue client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer asynqClient.Close()

	// Wire services
	documentRepo := repository.NewDocumentRepository(mongoClient.Database(cfg.DBName))
	tracker := jobs.NewTracker(rdb, time.Duration(cfg.JobStatusTTLHours)*time.Hour)
	collectionService := services.NewCollectionService(store, cfg.Vectorizer)
	searchService := services.NewSearchService(store)
	documentService := services.NewDocumentService(documentRepo, collectionService, tracker, queue.NewEnqueuer(asynqClient))

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	if metrics, err := telemetry.InitMetrics(); err == nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupDocumentRoutes(router, documentService)
	routes.SetupSearchRoutes(router, cfg, searchService)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
