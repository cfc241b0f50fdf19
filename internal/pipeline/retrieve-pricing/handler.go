// Package retrievepricing gathers pricing evidence for a tender with a
// hybrid search. A semantic branch embeds the work description and runs a
// vector query; a lexical branch queries names and categories directly. The
// branches run concurrently, fail independently, and their hits merge
// vector-first with duplicates dropped by document ID.
package retrievepricing

import (
	"context"
	"strings"
	"sync"

	"tender-estimator/internal/ai/embedding"
	stderrors "tender-estimator/internal/common/errors"
	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/common/metrics"
	"tender-estimator/internal/models"
)

// Searcher is the pricing-index dependency.
type Searcher interface {
	VectorSearch(ctx context.Context, vector []float32, limit int, minSimilarity float64) ([]models.PricingResult, error)
	KeywordSearch(ctx context.Context, description string, categories []string, limit int) ([]models.PricingResult, error)
}

type Handler struct {
	config   *Config
	store    Searcher
	embedder embedding.Embedder
	logger   logger.Logger
}

// NewHandler creates the retriever. embedder may be nil when no embedding
// credential is configured; the semantic branch is then skipped.
func NewHandler(config *Config, store Searcher, embedder embedding.Embedder, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		store:    store,
		embedder: embedder,
		logger:   log.With(map[string]interface{}{"component": "retrieve-pricing"}),
	}
}

// Execute runs both branches and merges their results. It never returns an
// error; a run where both branches fail yields an empty, degraded output.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		wg       sync.WaitGroup
		vectorMu sync.Mutex

		vectorResults  []models.PricingResult
		keywordResults []models.PricingResult
		degraded       bool
	)

	markDegraded := func(branch string, err error) {
		vectorMu.Lock()
		degraded = true
		vectorMu.Unlock()
		metrics.RetrievalFailures.WithLabelValues(branch).Inc()

		stdErr := stderrors.ClassifySearchError(branch, err)
		h.logger.WithError(stdErr).Warn("retrieval branch degraded", map[string]interface{}{
			"branch":   branch,
			"category": stderrors.GetErrorCategory(stdErr.Code),
		})
	}

	wg.Add(2)

	go func() {
		defer wg.Done()
		results, err := h.vectorBranch(ctx, input)
		if err != nil {
			markDegraded("pricing-vector", err)
			return
		}
		vectorMu.Lock()
		vectorResults = results
		vectorMu.Unlock()
	}()

	go func() {
		defer wg.Done()
		searchCtx, cancel := context.WithTimeout(ctx, h.config.SearchTimeout)
		defer cancel()

		results, err := h.store.KeywordSearch(searchCtx, input.Description, input.Categories, h.config.KeywordLimit)
		if err != nil {
			markDegraded("pricing-keyword", err)
			return
		}
		vectorMu.Lock()
		keywordResults = results
		vectorMu.Unlock()
	}()

	wg.Wait()

	merged := mergeResults(vectorResults, keywordResults, h.config.MergedLimit)

	h.logger.Info("pricing retrieval complete", map[string]interface{}{
		"vectorHits":  len(vectorResults),
		"keywordHits": len(keywordResults),
		"merged":      len(merged),
		"degraded":    degraded,
	})

	return &Output{Results: merged, Degraded: degraded}, nil
}

// vectorBranch embeds the query text and runs the similarity search. An
// unavailable embedder skips the branch without degrading the run.
func (h *Handler) vectorBranch(ctx context.Context, input *Input) ([]models.PricingResult, error) {
	if h.embedder == nil {
		return nil, nil
	}

	embedCtx, cancelEmbed := context.WithTimeout(ctx, h.config.EmbedTimeout)
	defer cancelEmbed()

	vector, err := h.embedder.EmbedQuery(embedCtx, queryText(input))
	if err != nil {
		return nil, stderrors.NewEmbeddingUnavailableError(err)
	}

	searchCtx, cancelSearch := context.WithTimeout(ctx, h.config.SearchTimeout)
	defer cancelSearch()

	return h.store.VectorSearch(searchCtx, vector, h.config.VectorLimit, h.config.MinSimilarity)
}

// queryText builds the embedding query from description and scope, capped so
// oversized scopes do not blow the embedding request.
func queryText(input *Input) string {
	var sb strings.Builder
	sb.WriteString(input.Description)
	if input.Scope != "" {
		sb.WriteString("\n")
		scope := input.Scope
		if len(scope) > 2000 {
			scope = scope[:2000]
		}
		sb.WriteString(scope)
	}
	return sb.String()
}

// mergeResults concatenates vector hits before keyword hits, drops duplicate
// document IDs keeping the first occurrence, and caps the total.
func mergeResults(vector, keyword []models.PricingResult, limit int) []models.PricingResult {
	seen := make(map[string]bool, len(vector)+len(keyword))
	merged := make([]models.PricingResult, 0, limit)

	for _, result := range append(vector, keyword...) {
		if seen[result.ID] {
			continue
		}
		seen[result.ID] = true
		merged = append(merged, result)
		if len(merged) >= limit {
			break
		}
	}
	return merged
}
