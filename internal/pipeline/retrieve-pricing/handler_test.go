// internal/pipeline/retrieve-pricing/handler_test.go
package retrievepricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/models"
)

// fakeSearcher serves canned results per branch.
type fakeSearcher struct {
	vectorResults  []models.PricingResult
	vectorErr      error
	keywordResults []models.PricingResult
	keywordErr     error
}

func (f *fakeSearcher) VectorSearch(ctx context.Context, vector []float32, limit int, minSimilarity float64) ([]models.PricingResult, error) {
	return f.vectorResults, f.vectorErr
}

func (f *fakeSearcher) KeywordSearch(ctx context.Context, description string, categories []string, limit int) ([]models.PricingResult, error) {
	return f.keywordResults, f.keywordErr
}

// fakeEmbedder returns a fixed vector or an error.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

func createTestConfig() *Config {
	return &Config{
		EmbedTimeout:  time.Second,
		SearchTimeout: time.Second,
		VectorLimit:   10,
		KeywordLimit:  10,
		MergedLimit:   20,
		MinSimilarity: 0.70,
	}
}

func item(id, name string, score float64) models.PricingResult {
	return models.PricingResult{ID: id, Name: name, BaseCost: 10, Unit: "each", Score: score}
}

func TestHandler_Execute_MergeAndDedupe(t *testing.T) {
	store := &fakeSearcher{
		vectorResults: []models.PricingResult{
			item("a", "Twin and earth cable", 0.91),
			item("b", "Consumer unit", 0.85),
		},
		keywordResults: []models.PricingResult{
			item("b", "Consumer unit", 0),
			item("c", "LED downlight", 0),
		},
	}
	handler := NewHandler(createTestConfig(), store, &fakeEmbedder{vector: []float32{0.1, 0.2}}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Description: "rewire"})

	require.NoError(t, err)
	assert.False(t, output.Degraded)
	require.Len(t, output.Results, 3)
	// Vector hits come first and the duplicate keeps its first occurrence.
	assert.Equal(t, "a", output.Results[0].ID)
	assert.Equal(t, "b", output.Results[1].ID)
	assert.Equal(t, "c", output.Results[2].ID)
	assert.Equal(t, 0.85, output.Results[1].Score)
}

func TestHandler_Execute_CapEnforced(t *testing.T) {
	store := &fakeSearcher{}
	for i := 0; i < 15; i++ {
		store.vectorResults = append(store.vectorResults, item(string(rune('a'+i)), "vector item", 0.9))
	}
	for i := 0; i < 15; i++ {
		store.keywordResults = append(store.keywordResults, item(string(rune('A'+i)), "keyword item", 0))
	}

	cfg := createTestConfig()
	cfg.MergedLimit = 20
	handler := NewHandler(cfg, store, &fakeEmbedder{vector: []float32{0.1}}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Description: "big job"})

	require.NoError(t, err)
	assert.Len(t, output.Results, 20)
}

func TestHandler_Execute_NoEmbedder(t *testing.T) {
	store := &fakeSearcher{
		keywordResults: []models.PricingResult{item("k1", "Socket outlet", 0)},
	}
	handler := NewHandler(createTestConfig(), store, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Description: "sockets"})

	require.NoError(t, err)
	assert.False(t, output.Degraded, "a missing embedder is a skip, not a failure")
	require.Len(t, output.Results, 1)
	assert.Equal(t, "k1", output.Results[0].ID)
}

func TestHandler_Execute_EmbeddingFailure(t *testing.T) {
	store := &fakeSearcher{
		keywordResults: []models.PricingResult{item("k1", "Socket outlet", 0)},
	}
	embedder := &fakeEmbedder{err: errors.New("service unavailable")}
	handler := NewHandler(createTestConfig(), store, embedder, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Description: "sockets"})

	require.NoError(t, err)
	assert.True(t, output.Degraded)
	require.Len(t, output.Results, 1, "keyword branch still serves results")
}

func TestHandler_Execute_BothBranchesFail(t *testing.T) {
	store := &fakeSearcher{
		vectorErr:  errors.New("search exploded"),
		keywordErr: errors.New("search exploded"),
	}
	handler := NewHandler(createTestConfig(), store, &fakeEmbedder{vector: []float32{0.1}}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Description: "anything"})

	require.NoError(t, err, "the retriever degrades, it never fails")
	assert.True(t, output.Degraded)
	assert.Empty(t, output.Results)
}
