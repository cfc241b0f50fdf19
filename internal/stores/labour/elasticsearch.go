// Package labour queries the labour-norms reference index for installation
// guidance relevant to a scope of works.
package labour

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"tender-estimator/internal/models"
)

// Store wraps the Elasticsearch labour-norms index.
type Store struct {
	client *elasticsearch.Client
	index  string
}

// NewStore creates a labour store over the given index.
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
			Score  float64         `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type labourDocument struct {
	Topic             string `json:"topic"`
	Description       string `json:"description"`
	EquipmentCategory string `json:"equipment_category"`
}

// Search runs a lexical query over labour-norm topics and descriptions and
// returns hits with confidence normalized by the best score in the result
// set.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]models.LabourNormResult, error) {
	queryBody := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"topic^2", "description"},
				"type":   "best_fields",
			},
		},
	}

	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build labour query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("labour search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("labour search error: %s", res.Status())
	}

	var envelope searchResponse
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode labour response: %w", err)
	}

	maxScore := envelope.Hits.MaxScore
	results := make([]models.LabourNormResult, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		var doc labourDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		confidence := 0.0
		if maxScore > 0 {
			confidence = hit.Score / maxScore
		}
		results = append(results, models.LabourNormResult{
			Topic:             doc.Topic,
			Description:       doc.Description,
			EquipmentCategory: doc.EquipmentCategory,
			Confidence:        confidence,
		})
	}

	return results, nil
}
