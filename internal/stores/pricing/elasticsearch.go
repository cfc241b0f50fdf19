// Package pricing queries the pricing-items reference index. Two search
// modes feed the hybrid retriever: a vector mode over item embeddings and a
// keyword mode over names and categories.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"tender-estimator/internal/models"
)

// genericKeywords seeds the keyword query when the request carries no
// category hints.
var genericKeywords = []string{
	"cable", "consumer unit", "socket", "switch", "luminaire",
	"containment", "distribution board",
}

// Store wraps the Elasticsearch pricing index.
type Store struct {
	client *elasticsearch.Client
	index  string
}

// NewStore creates a pricing store over the given index.
func NewStore(client *elasticsearch.Client, index string) *Store {
	return &Store{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore float64 `json:"max_score"`
		Hits     []struct {
			ID     string          `json:"_id"`
			Score  float64         `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type pricingDocument struct {
	Name     string  `json:"name"`
	BaseCost float64 `json:"base_cost"`
	Supplier string  `json:"supplier"`
	Unit     string  `json:"unit"`
	InStock  bool    `json:"in_stock"`
	Category string  `json:"category"`
}

// VectorSearch runs a script_score cosine-similarity query against the item
// embeddings. Scores are normalized to [0,1] and hits below minSimilarity
// are cut off by the query itself.
func (s *Store) VectorSearch(ctx context.Context, vector []float32, limit int, minSimilarity float64) ([]models.PricingResult, error) {
	queryBody := map[string]interface{}{
		"size":      limit,
		"min_score": minSimilarity,
		"query": map[string]interface{}{
			"script_score": map[string]interface{}{
				"query": map[string]interface{}{
					"match_all": map[string]interface{}{},
				},
				"script": map[string]interface{}{
					"source": "(cosineSimilarity(params.query_vector, 'embedding') + 1.0) / 2.0",
					"params": map[string]interface{}{
						"query_vector": vector,
					},
				},
			},
		},
	}

	return s.search(ctx, queryBody, true)
}

// KeywordSearch runs a lexical query over item names and categories. When no
// categories are supplied a generic electrical keyword set is used so the
// branch still returns broadly relevant items. Lexical relevance scores are
// not comparable to cosine similarity, so keyword hits carry no score.
func (s *Store) KeywordSearch(ctx context.Context, description string, categories []string, limit int) ([]models.PricingResult, error) {
	shouldClauses := []interface{}{}

	if description != "" {
		shouldClauses = append(shouldClauses, map[string]interface{}{
			"match": map[string]interface{}{
				"name": map[string]interface{}{
					"query": description,
				},
			},
		})
	}

	for _, term := range extractTerms(categories) {
		shouldClauses = append(shouldClauses, map[string]interface{}{
			"wildcard": map[string]interface{}{
				"name": map[string]interface{}{
					"value":            "*" + term + "*",
					"case_insensitive": true,
				},
			},
		})
	}

	if len(categories) > 0 {
		shouldClauses = append(shouldClauses, map[string]interface{}{
			"terms": map[string]interface{}{
				"category": categories,
			},
		})
	}

	queryBody := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               shouldClauses,
				"minimum_should_match": 1,
			},
		},
	}

	return s.search(ctx, queryBody, false)
}

func (s *Store) search(ctx context.Context, queryBody map[string]interface{}, includeScores bool) ([]models.PricingResult, error) {
	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build pricing query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("pricing search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("pricing search error: %s", res.Status())
	}

	var envelope searchResponse
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode pricing response: %w", err)
	}

	results := make([]models.PricingResult, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		var doc pricingDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		score := 0.0
		if includeScores {
			score = hit.Score
		}
		results = append(results, models.PricingResult{
			ID:       hit.ID,
			Name:     doc.Name,
			BaseCost: doc.BaseCost,
			Supplier: doc.Supplier,
			Unit:     doc.Unit,
			InStock:  doc.InStock,
			Category: doc.Category,
			Score:    score,
		})
	}

	return results, nil
}

// extractTerms picks the wildcard terms for the lexical query. Category
// names double as search terms with underscores flattened; without
// categories the generic set applies.
func extractTerms(categories []string) []string {
	if len(categories) == 0 {
		return genericKeywords
	}

	terms := make([]string, 0, len(categories))
	for _, cat := range categories {
		term := strings.ReplaceAll(strings.TrimSpace(cat), "_", " ")
		if term != "" {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return genericKeywords
	}
	return terms
}
