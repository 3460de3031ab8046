package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mentorme/matching-api/internal/models"
	appErrors "github.com/mentorme/matching-api/pkg/errors"
)

type embeddingTutorRepository interface {
	GetProfileText(ctx context.Context, id string) (*models.TutorProfileText, error)
	ListIDsOrderedByCreation(ctx context.Context, excludeIDs []string) ([]string, error)
	UpdateProfileEmbedding(ctx context.Context, id string, embedding models.Vector, modelTag *string) error
}

type embeddingGenerator interface {
	Generate(ctx context.Context, text string) ([]float64, error)
	Model() string
}

type embeddingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// BackfillOptions tunes the embedding backfill run. Concurrency defaults
// to 1: batching bounds load on the embedding service, it is not a
// parallelism knob unless explicitly raised.
type BackfillOptions struct {
	BatchSize   int
	Concurrency int
	SkipIDs     []string
}

// BackfillResult reports backfill totals. A nonzero Failed count is not
// an error at this layer; the caller decides what to do with it.
type BackfillResult struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// EmbeddingService regenerates tutor profile embeddings and embeds
// request descriptions, fronted by an optional Redis cache.
type EmbeddingService struct {
	tutors    embeddingTutorRepository
	generator embeddingGenerator
	cache     embeddingCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEmbeddingService constructs an EmbeddingService. The cache may be
// nil, in which case every description embed hits the remote service.
func NewEmbeddingService(tutors embeddingTutorRepository, generator embeddingGenerator, cache embeddingCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *EmbeddingService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingService{
		tutors:    tutors,
		generator: generator,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		logger:    logger,
	}
}

// EmbedDescription embeds free request text, consulting the cache first.
// Cache failures fall through to the remote call; embedding failures
// propagate untouched so matching can fail fast.
func (s *EmbeddingService) EmbedDescription(ctx context.Context, text string) ([]float64, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil, nil
	}

	key := s.cacheKey(cleaned)
	if s.cache != nil {
		start := time.Now()
		var cached []float64
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true, time.Since(start))
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false, time.Since(start))
		}
		if err != appErrors.ErrCacheMiss {
			s.logger.Sugar().Warnw("embedding cache read failed", "error", err)
		}
	}

	vec, err := s.generator.Generate(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, vec, s.cacheTTL); err != nil {
			s.logger.Sugar().Warnw("embedding cache write failed", "error", err)
		}
	}
	return vec, nil
}

func (s *EmbeddingService) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(s.generator.Model() + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// UpdateTutorProfileEmbedding rebuilds a tutor's profile embedding from
// bio, education and certificates. When the combined text is empty the
// stored embedding and model tag are cleared rather than left stale.
func (s *EmbeddingService) UpdateTutorProfileEmbedding(ctx context.Context, tutorID string) error {
	text, err := s.tutors.GetProfileText(ctx, tutorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor profile text")
	}

	var parts []string
	if text.Bio != nil && *text.Bio != "" {
		parts = append(parts, *text.Bio)
	}
	if text.Education != nil && *text.Education != "" {
		parts = append(parts, *text.Education)
	}
	if len(text.Certificates) > 0 {
		parts = append(parts, strings.Join(text.Certificates, "\n"))
	}

	combined := strings.TrimSpace(strings.Join(parts, "\n"))
	if combined == "" {
		if err := s.tutors.UpdateProfileEmbedding(ctx, tutorID, nil, nil); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear profile embedding")
		}
		return nil
	}

	vec, err := s.generator.Generate(ctx, combined)
	if err != nil {
		return err
	}

	model := s.generator.Model()
	if err := s.tutors.UpdateProfileEmbedding(ctx, tutorID, models.Vector(vec), &model); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist profile embedding")
	}
	return nil
}

// BackfillTutorEmbeddings recomputes profile embeddings for every tutor,
// oldest first, in batches. Per-tutor failures are counted and logged
// but never abort the run.
func (s *EmbeddingService) BackfillTutorEmbeddings(ctx context.Context, opts BackfillOptions) (*BackfillResult, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 25
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	ids, err := s.tutors.ListIDsOrderedByCreation(ctx, opts.SkipIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutors for backfill")
	}

	result := &BackfillResult{Total: len(ids)}
	var succeeded, failed int64

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		sem := make(chan struct{}, concurrency)
		var wg sync.WaitGroup
		for _, id := range batch {
			wg.Add(1)
			sem <- struct{}{}
			go func(tutorID string) {
				defer wg.Done()
				defer func() { <-sem }()
				if err := s.UpdateTutorProfileEmbedding(ctx, tutorID); err != nil {
					atomic.AddInt64(&failed, 1)
					s.logger.Sugar().Warnw("backfill failed for tutor", "tutor_id", tutorID, "error", err)
					return
				}
				atomic.AddInt64(&succeeded, 1)
			}(id)
		}
		wg.Wait()

		s.logger.Sugar().Infow("backfill batch done",
			"processed", end,
			"total", len(ids),
			"succeeded", atomic.LoadInt64(&succeeded),
			"failed", atomic.LoadInt64(&failed),
		)
	}

	result.Succeeded = int(succeeded)
	result.Failed = int(failed)
	return result, nil
}
