// Package retrievelabour gathers labour-norm guidance for a tender. The
// index is small and lexical search over it performs well, so this retriever
// has no semantic branch and no embedding dependency.
package retrievelabour

import (
	"context"
	"strings"

	stderrors "tender-estimator/internal/common/errors"
	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/common/metrics"
	"tender-estimator/internal/models"
)

// Searcher is the labour-index dependency.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.LabourNormResult, error)
}

type Handler struct {
	config *Config
	store  Searcher
	logger logger.Logger
}

func NewHandler(config *Config, store Searcher, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.With(map[string]interface{}{"component": "retrieve-labour"}),
	}
}

// Execute searches the labour index. It never returns an error; a failed
// search yields an empty, degraded output.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	searchCtx, cancel := context.WithTimeout(ctx, h.config.SearchTimeout)
	defer cancel()

	results, err := h.store.Search(searchCtx, buildQuery(input), h.config.Limit)
	if err != nil {
		metrics.RetrievalFailures.WithLabelValues("labour").Inc()

		stdErr := stderrors.ClassifySearchError("labour", err)
		h.logger.WithError(stdErr).Warn("labour retrieval degraded", map[string]interface{}{
			"category": stderrors.GetErrorCategory(stdErr.Code),
		})
		return &Output{Degraded: true}, nil
	}

	h.logger.Info("labour retrieval complete", map[string]interface{}{
		"hits": len(results),
	})

	return &Output{Results: results}, nil
}

// buildQuery joins description, categories and a capped scope excerpt into
// one lexical query string.
func buildQuery(input *Input) string {
	parts := []string{input.Description}
	for _, cat := range input.Categories {
		parts = append(parts, strings.ReplaceAll(cat, "_", " "))
	}
	if input.Scope != "" {
		scope := input.Scope
		if len(scope) > 500 {
			scope = scope[:500]
		}
		parts = append(parts, scope)
	}
	return strings.Join(parts, " ")
}
