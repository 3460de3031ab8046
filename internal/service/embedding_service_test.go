package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mentorme/matching-api/internal/models"
	appErrors "github.com/mentorme/matching-api/pkg/errors"
)

type mockEmbeddingTutorRepo struct {
	mu sync.Mutex

	texts   map[string]*models.TutorProfileText
	textErr error

	ids     []string
	listErr error

	updated   map[string]models.Vector
	updatedBy map[string]*string
	failIDs   map[string]error
}

func newMockEmbeddingTutorRepo() *mockEmbeddingTutorRepo {
	return &mockEmbeddingTutorRepo{
		texts:     map[string]*models.TutorProfileText{},
		updated:   map[string]models.Vector{},
		updatedBy: map[string]*string{},
		failIDs:   map[string]error{},
	}
}

func (m *mockEmbeddingTutorRepo) GetProfileText(ctx context.Context, id string) (*models.TutorProfileText, error) {
	if m.textErr != nil {
		return nil, m.textErr
	}
	if err, ok := m.failIDs[id]; ok {
		return nil, err
	}
	text, ok := m.texts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return text, nil
}

func (m *mockEmbeddingTutorRepo) ListIDsOrderedByCreation(ctx context.Context, excludeIDs []string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if len(excludeIDs) == 0 {
		return m.ids, nil
	}
	skip := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		skip[id] = struct{}{}
	}
	out := make([]string, 0, len(m.ids))
	for _, id := range m.ids {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockEmbeddingTutorRepo) UpdateProfileEmbedding(ctx context.Context, id string, embedding models.Vector, modelTag *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated[id] = embedding
	m.updatedBy[id] = modelTag
	return nil
}

type mockGenerator struct {
	mu    sync.Mutex
	vec   []float64
	err   error
	calls int
	texts []string
}

func (m *mockGenerator) Generate(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.texts = append(m.texts, text)
	if m.err != nil {
		return nil, m.err
	}
	return m.vec, nil
}

func (m *mockGenerator) Model() string { return "all-MiniLM-L6-v2" }

type mockCache struct {
	store   map[string][]float64
	getErr  error
	setErr  error
	gets    int
	sets    int
	lastKey string
}

func newMockCache() *mockCache {
	return &mockCache{store: map[string][]float64{}}
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	m.lastKey = key
	if m.getErr != nil {
		return m.getErr
	}
	vec, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*[]float64)) = vec
	return nil
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.store[key] = value.([]float64)
	return nil
}

func TestEmbedDescriptionCache(t *testing.T) {
	generator := &mockGenerator{vec: []float64{0.1, 0.2}}
	cache := newMockCache()
	svc := NewEmbeddingService(newMockEmbeddingTutorRepo(), generator, cache, time.Minute, nil, zap.NewNop())

	vec, err := svc.EmbedDescription(context.Background(), "  calculus tutor  ")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, vec)
	assert.Equal(t, 1, generator.calls)
	assert.Equal(t, 1, cache.sets)

	// second call is served from the cache
	vec, err = svc.EmbedDescription(context.Background(), "calculus tutor")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, vec)
	assert.Equal(t, 1, generator.calls)
	assert.Equal(t, 2, cache.gets)
}

func TestEmbedDescriptionCacheFailureFallsThrough(t *testing.T) {
	generator := &mockGenerator{vec: []float64{0.3}}
	cache := newMockCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	svc := NewEmbeddingService(newMockEmbeddingTutorRepo(), generator, cache, time.Minute, nil, zap.NewNop())

	vec, err := svc.EmbedDescription(context.Background(), "physics tutor")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3}, vec)
	assert.Equal(t, 1, generator.calls)
}

func TestEmbedDescriptionEmptyText(t *testing.T) {
	generator := &mockGenerator{vec: []float64{0.1}}
	svc := NewEmbeddingService(newMockEmbeddingTutorRepo(), generator, nil, time.Minute, nil, zap.NewNop())

	vec, err := svc.EmbedDescription(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, vec)
	assert.Zero(t, generator.calls)
}

func TestUpdateTutorProfileEmbedding(t *testing.T) {
	t.Run("persists embedding with model tag", func(t *testing.T) {
		repo := newMockEmbeddingTutorRepo()
		repo.texts["t1"] = &models.TutorProfileText{
			Bio:          strPtr("Experienced maths tutor"),
			Education:    strPtr("HUST"),
			Certificates: []string{"IELTS 8.0", "Teaching cert"},
		}
		generator := &mockGenerator{vec: []float64{0.5, 0.6}}
		svc := NewEmbeddingService(repo, generator, nil, time.Minute, nil, zap.NewNop())

		require.NoError(t, svc.UpdateTutorProfileEmbedding(context.Background(), "t1"))
		require.Len(t, generator.texts, 1)
		assert.Equal(t, "Experienced maths tutor\nHUST\nIELTS 8.0\nTeaching cert", generator.texts[0])
		assert.Equal(t, models.Vector{0.5, 0.6}, repo.updated["t1"])
		require.NotNil(t, repo.updatedBy["t1"])
		assert.Equal(t, "all-MiniLM-L6-v2", *repo.updatedBy["t1"])
	})

	t.Run("clears embedding when profile text is empty", func(t *testing.T) {
		repo := newMockEmbeddingTutorRepo()
		repo.texts["t1"] = &models.TutorProfileText{Bio: strPtr("   ")}
		generator := &mockGenerator{vec: []float64{0.5}}
		svc := NewEmbeddingService(repo, generator, nil, time.Minute, nil, zap.NewNop())

		require.NoError(t, svc.UpdateTutorProfileEmbedding(context.Background(), "t1"))
		assert.Zero(t, generator.calls)
		vec, ok := repo.updated["t1"]
		require.True(t, ok)
		assert.Nil(t, vec)
		assert.Nil(t, repo.updatedBy["t1"])
	})

	t.Run("unknown tutor", func(t *testing.T) {
		svc := NewEmbeddingService(newMockEmbeddingTutorRepo(), &mockGenerator{}, nil, time.Minute, nil, zap.NewNop())
		err := svc.UpdateTutorProfileEmbedding(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	})

	t.Run("generator failure propagates", func(t *testing.T) {
		repo := newMockEmbeddingTutorRepo()
		repo.texts["t1"] = &models.TutorProfileText{Bio: strPtr("bio")}
		generator := &mockGenerator{err: appErrors.Clone(appErrors.ErrRemoteService, "embedding request failed with status 503")}
		svc := NewEmbeddingService(repo, generator, nil, time.Minute, nil, zap.NewNop())

		err := svc.UpdateTutorProfileEmbedding(context.Background(), "t1")
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrRemoteService))
		assert.Empty(t, repo.updated)
	})
}

func TestBackfillTutorEmbeddings(t *testing.T) {
	repo := newMockEmbeddingTutorRepo()
	repo.ids = []string{"t1", "t2", "t3"}
	repo.texts["t1"] = &models.TutorProfileText{Bio: strPtr("first tutor")}
	repo.texts["t3"] = &models.TutorProfileText{Bio: strPtr("third tutor")}
	repo.failIDs["t2"] = errors.New("connection reset")

	generator := &mockGenerator{vec: []float64{0.9}}
	svc := NewEmbeddingService(repo, generator, nil, time.Minute, nil, zap.NewNop())

	result, err := svc.BackfillTutorEmbeddings(context.Background(), BackfillOptions{BatchSize: 2, Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, &BackfillResult{Total: 3, Succeeded: 2, Failed: 1}, result)

	assert.Equal(t, models.Vector{0.9}, repo.updated["t1"])
	assert.Equal(t, models.Vector{0.9}, repo.updated["t3"])
	_, touched := repo.updated["t2"]
	assert.False(t, touched)
}

func TestBackfillSkipsExcludedIDs(t *testing.T) {
	repo := newMockEmbeddingTutorRepo()
	repo.ids = []string{"t1", "t2"}
	repo.texts["t1"] = &models.TutorProfileText{Bio: strPtr("first tutor")}
	repo.texts["t2"] = &models.TutorProfileText{Bio: strPtr("second tutor")}

	svc := NewEmbeddingService(repo, &mockGenerator{vec: []float64{0.1}}, nil, time.Minute, nil, zap.NewNop())

	result, err := svc.BackfillTutorEmbeddings(context.Background(), BackfillOptions{SkipIDs: []string{"t2"}})
	require.NoError(t, err)
	assert.Equal(t, &BackfillResult{Total: 1, Succeeded: 1, Failed: 0}, result)
	_, touched := repo.updated["t2"]
	assert.False(t, touched)
}
