// internal/stores/labour/elasticsearch_test.go
package labour

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	statusCode int
	response   string
	lastBody   string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		f.lastBody = string(raw)
	}

	status := f.statusCode
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header: http.Header{
			"X-Elastic-Product": []string{"Elasticsearch"},
			"Content-Type":      []string{"application/json"},
		},
		Body: io.NopCloser(strings.NewReader(f.response)),
	}, nil
}

func createTestStore(t *testing.T, transport *fakeTransport) *Store {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://localhost:9200"},
		Transport: transport,
	})
	require.NoError(t, err)
	return NewStore(client, "labour-norms")
}

func TestStore_Search(t *testing.T) {
	transport := &fakeTransport{response: `{
		"hits": {
			"total": {"value": 2},
			"max_score": 4.0,
			"hits": [
				{
					"_score": 4.0,
					"_source": {
						"topic": "Domestic rewire",
						"description": "Allow 0.5 hours per point for first fix",
						"equipment_category": "hand_tools"
					}
				},
				{
					"_score": 2.0,
					"_source": {
						"topic": "Consumer unit change",
						"description": "Allow 4 hours including testing",
						"equipment_category": "test_equipment"
					}
				}
			]
		}
	}`}
	store := createTestStore(t, transport)

	results, err := store.Search(context.Background(), "full rewire consumer unit", 5)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Domestic rewire", results[0].Topic)
	assert.Equal(t, 1.0, results[0].Confidence, "best hit normalizes to full confidence")
	assert.Equal(t, 0.5, results[1].Confidence)
	assert.Equal(t, "test_equipment", results[1].EquipmentCategory)

	assert.Contains(t, transport.lastBody, `"full rewire consumer unit"`)
	assert.Contains(t, transport.lastBody, `"topic^2"`)
	assert.Contains(t, transport.lastBody, `"best_fields"`)
}

func TestStore_Search_Empty(t *testing.T) {
	transport := &fakeTransport{response: `{
		"hits": {"total": {"value": 0}, "max_score": null, "hits": []}
	}`}
	store := createTestStore(t, transport)

	results, err := store.Search(context.Background(), "unmatched query", 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_Search_ErrorStatus(t *testing.T) {
	transport := &fakeTransport{
		statusCode: http.StatusServiceUnavailable,
		response:   `{"error": {"reason": "index unavailable"}}`,
	}
	store := createTestStore(t, transport)

	results, err := store.Search(context.Background(), "rewire", 5)

	require.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "labour search error")
}
