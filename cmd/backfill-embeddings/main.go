package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/mentorme/matching-api/internal/repository"
	"github.com/mentorme/matching-api/internal/service"
	"github.com/mentorme/matching-api/pkg/config"
	"github.com/mentorme/matching-api/pkg/database"
	"github.com/mentorme/matching-api/pkg/embedding"
	"github.com/mentorme/matching-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	batchSize := flag.Int("batch-size", cfg.Backfill.BatchSize, "tutors processed per batch")
	concurrency := flag.Int("concurrency", cfg.Backfill.Concurrency, "parallel embedding calls per batch")
	skip := flag.String("skip", "", "comma-separated tutor IDs to skip")
	flag.Parse()

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	tutorRepo := repository.NewTutorRepository(db)
	embedClient := embedding.NewClient(cfg.Embedding.APIURL, cfg.Embedding.Model, cfg.Embedding.Timeout)
	embeddingSvc := service.NewEmbeddingService(tutorRepo, embedClient, nil, cfg.Embedding.CacheTTL, nil, logr)

	opts := service.BackfillOptions{
		BatchSize:   *batchSize,
		Concurrency: *concurrency,
	}
	if trimmed := strings.TrimSpace(*skip); trimmed != "" {
		for _, id := range strings.Split(trimmed, ",") {
			if id = strings.TrimSpace(id); id != "" {
				opts.SkipIDs = append(opts.SkipIDs, id)
			}
		}
	}

	result, err := embeddingSvc.BackfillTutorEmbeddings(context.Background(), opts)
	if err != nil {
		logr.Sugar().Fatalw("backfill aborted", "error", err)
	}

	logr.Sugar().Infow("backfill finished",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	if result.Failed > 0 {
		os.Exit(1)
	}
}
