package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mentorme/matching-api/api/swagger"
	"github.com/mentorme/matching-api/internal/handler"
	"github.com/mentorme/matching-api/internal/middleware"
	"github.com/mentorme/matching-api/internal/repository"
	"github.com/mentorme/matching-api/internal/service"
	"github.com/mentorme/matching-api/pkg/cache"
	"github.com/mentorme/matching-api/pkg/config"
	"github.com/mentorme/matching-api/pkg/database"
	"github.com/mentorme/matching-api/pkg/embedding"
	"github.com/mentorme/matching-api/pkg/jobs"
	"github.com/mentorme/matching-api/pkg/logger"
	corsmiddleware "github.com/mentorme/matching-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mentorme/matching-api/pkg/middleware/requestid"
)

// @title MentorMe Matching API
// @version 0.1.0
// @description Tutor matching, trust scoring and profile embedding service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, embedding cache disabled", "error", err)
		rdb = nil
	}

	tutorRepo := repository.NewTutorRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	metricsSvc := service.NewMetricsService()
	embedClient := embedding.NewClient(cfg.Embedding.APIURL, cfg.Embedding.Model, cfg.Embedding.Timeout)

	var embeddingSvc *service.EmbeddingService
	if rdb != nil {
		cacheRepo := repository.NewCacheRepository(rdb, logr)
		embeddingSvc = service.NewEmbeddingService(tutorRepo, embedClient, cacheRepo, cfg.Embedding.CacheTTL, metricsSvc, logr)
	} else {
		embeddingSvc = service.NewEmbeddingService(tutorRepo, embedClient, nil, cfg.Embedding.CacheTTL, metricsSvc, logr)
	}

	trustSvc := service.NewTrustScoreService(tutorRepo, bookingRepo, reviewRepo, logr)
	matchingSvc, err := service.NewMatchingService(tutorRepo, embeddingSvc, cfg.Matching, nil, metricsSvc, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to build matching service", "error", err)
	}

	recomputeQueue := jobs.NewQueue("trust-recompute", func(ctx context.Context, job jobs.Job) error {
		_, err := trustSvc.Recompute(ctx, job.TutorID)
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Events.QueueWorkers,
		BufferSize: cfg.Events.QueueBufferSize,
		MaxRetries: cfg.Events.QueueMaxRetries,
		RetryDelay: cfg.Events.QueueRetryDelay,
		Logger:     logr,
	})
	recomputeQueue.Start(context.Background())
	defer recomputeQueue.Stop()

	matchingHandler := handler.NewMatchingHandler(matchingSvc)
	tutorHandler := handler.NewTutorHandler(tutorRepo, trustSvc, embeddingSvc)
	eventHandler := handler.NewEventHandler(recomputeQueue)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, rdb)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/matching/match", matchingHandler.Match)
		api.GET("/tutors", tutorHandler.List)
		api.POST("/tutors/:id/trust-score/recompute", tutorHandler.RecomputeTrustScore)
		api.POST("/tutors/:id/embedding/refresh", tutorHandler.RefreshEmbedding)
		api.POST("/events/booking-completed", eventHandler.BookingCompleted)
		api.POST("/events/review-created", eventHandler.ReviewCreated)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
