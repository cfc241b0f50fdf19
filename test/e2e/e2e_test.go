// test/e2e/e2e_test.go
//
// End-to-end pipeline scenarios. Every handler is real; only the leaf
// dependencies (search indices, embedding and generation endpoints) are
// faked, so these tests exercise the same wiring main sets up.
package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/models"
	adjustregion "tender-estimator/internal/pipeline/adjust-region"
	fallbackestimate "tender-estimator/internal/pipeline/fallback-estimate"
	"tender-estimator/internal/pipeline/orchestrator"
	retrievelabour "tender-estimator/internal/pipeline/retrieve-labour"
	retrievepricing "tender-estimator/internal/pipeline/retrieve-pricing"
	scorecomplexity "tender-estimator/internal/pipeline/score-complexity"
	synthesizeestimate "tender-estimator/internal/pipeline/synthesize-estimate"
)

// ==========================
// Leaf fakes
// ==========================

type fakePricingIndex struct {
	err error
}

func (f *fakePricingIndex) VectorSearch(ctx context.Context, vector []float32, limit int, minSimilarity float64) ([]models.PricingResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.PricingResult{
		{ID: "item-1", Name: "6242Y 2.5mm twin and earth 100m", BaseCost: 42.50, Supplier: "CityElec", Unit: "drum", Score: 0.91},
	}, nil
}

func (f *fakePricingIndex) KeywordSearch(ctx context.Context, description string, categories []string, limit int) ([]models.PricingResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.PricingResult{
		{ID: "item-2", Name: "10-way consumer unit", BaseCost: 89.00, Supplier: "Edmundson", Unit: "each", Score: 4.2},
	}, nil
}

type fakeLabourIndex struct {
	err error
}

func (f *fakeLabourIndex) Search(ctx context.Context, query string, limit int) ([]models.LabourNormResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.LabourNormResult{
		{Topic: "Domestic rewire", Description: "Allow 0.5 hours per point", Confidence: 1.0},
	}, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float32) (string, error) {
	return f.response, f.err
}

// ==========================
// Wiring
// ==========================

type pipelineDeps struct {
	pricingIndex *fakePricingIndex
	labourIndex  *fakeLabourIndex
	generator    *fakeGenerator
}

func buildPipeline(t *testing.T, deps pipelineDeps) *orchestrator.Orchestrator {
	log := logger.NewTestLogger(t)

	pricing := retrievepricing.NewHandler(&retrievepricing.Config{
		EmbedTimeout:  time.Second,
		SearchTimeout: time.Second,
		VectorLimit:   10,
		KeywordLimit:  10,
		MergedLimit:   20,
		MinSimilarity: 0.70,
	}, deps.pricingIndex, fakeEmbedder{}, log)

	labour := retrievelabour.NewHandler(&retrievelabour.Config{
		SearchTimeout: time.Second,
		Limit:         5,
	}, deps.labourIndex, log)

	synthesizer := synthesizeestimate.NewHandler(&synthesizeestimate.Config{
		Timeout:         time.Second,
		BaseTokenBudget: 2048,
		MaxTokenBudget:  4096,
		Temperature:     0.2,
		MaxPricingItems: 12,
		MaxLabourItems:  5,
	}, deps.generator, log)

	return orchestrator.NewOrchestrator(
		&orchestrator.Config{
			OverallTimeout:   10 * time.Second,
			RetrievalTimeout: 2 * time.Second,
			PersistTimeout:   time.Second,
		},
		pricing, labour,
		adjustregion.NewHandler(nil, log),
		scorecomplexity.NewHandler(log),
		synthesizer,
		fallbackestimate.NewHandler(log),
		nil, nil, nil,
		log,
	)
}

func groundedResponse(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"labour_hours":       100.0,
		"labour_cost":        4500.0,
		"materials_cost":     4000.0,
		"equipment_cost":     1000.0,
		"overheads":          950.0,
		"profit":             1567.50,
		"total_estimate":     12017.50,
		"hazards":            []string{"Safe isolation required"},
		"programme":          "Approximately 13 working days",
		"confidence":         "Medium",
		"confidence_factors": []string{"Grounded in retrieved prices"},
		"breakdown": map[string]interface{}{
			"labour": []map[string]interface{}{
				{"description": "Installation", "quantity": 100.0, "unit": "hours", "rate": 45.0, "cost": 4500.0},
			},
			"materials": []map[string]interface{}{
				{"description": "Materials package", "quantity": 1.0, "unit": "lot", "rate": 4000.0, "cost": 4000.0},
			},
			"equipment": []map[string]interface{}{
				{"description": "Access equipment", "quantity": 1.0, "unit": "lot", "rate": 1000.0, "cost": 1000.0},
			},
		},
		"citations": []map[string]interface{}{
			{"source": "CityElec", "item": "6242Y 2.5mm twin and earth 100m", "price": 42.50},
		},
	})
	require.NoError(t, err)
	return "```json\n" + string(raw) + "\n```"
}

// ==========================
// Scenarios
// ==========================

func TestPipeline_SimpleSmallJob(t *testing.T) {
	orch := buildPipeline(t, pipelineDeps{
		pricingIndex: &fakePricingIndex{},
		labourIndex:  &fakeLabourIndex{},
		generator:    &fakeGenerator{response: groundedResponse(t)},
	})

	response, err := orch.Run(context.Background(), &models.EstimateRequest{
		Description:   "Replace consumer unit in a two-bed flat",
		Location:      "Flat 2, Deansgate, Manchester M1 4BT",
		Categories:    []string{"consumer_units"},
		ValueEstimate: 800,
		CallerID:      "e2e",
	})

	require.NoError(t, err)
	assert.False(t, response.Metadata.FallbackUsed)
	assert.Equal(t, models.ComplexitySimple, response.Metadata.ComplexityLevel)
	assert.Equal(t, 30, response.Metadata.ComplexityScore)
	assert.Equal(t, 1638, response.Metadata.TokenBudget, "simple jobs get a reduced generation budget")
	assert.Equal(t, "Greater Manchester", response.Metadata.RegionLabel)
	assert.Equal(t, 1.12, response.Metadata.RegionalMultiplier)
	assert.Equal(t, 2, response.Metadata.PricingCount, "vector and keyword hits merge")
	assert.Equal(t, 1.12, response.Estimate.RegionalMultiplier)
	assert.Equal(t, 12017.50, response.Estimate.TotalEstimate)
}

func TestPipeline_ComplexLargeJob(t *testing.T) {
	orch := buildPipeline(t, pipelineDeps{
		pricingIndex: &fakePricingIndex{},
		labourIndex:  &fakeLabourIndex{},
		generator:    &fakeGenerator{response: groundedResponse(t)},
	})

	response, err := orch.Run(context.Background(), &models.EstimateRequest{
		Description:   "Fire alarm and three-phase distribution for a production facility",
		Scope:         strings.Repeat("Install addressable fire alarm devices across all zones. ", 20),
		Location:      "Unit 7, Shoreditch, London EC2A 4DS",
		Categories:    []string{"fire_alarm", "three_phase"},
		ValueEstimate: 120000,
		CallerID:      "e2e",
	})

	require.NoError(t, err)
	assert.False(t, response.Metadata.FallbackUsed)
	assert.Equal(t, models.ComplexityComplex, response.Metadata.ComplexityLevel)
	assert.Equal(t, 100, response.Metadata.ComplexityScore)
	assert.Equal(t, 3072, response.Metadata.TokenBudget, "complex jobs get an enlarged generation budget")
	assert.Equal(t, "Central London", response.Metadata.RegionLabel)
	assert.Equal(t, 1.30, response.Metadata.RegionalMultiplier)
}

func TestPipeline_FallbackOnUngroundedOutput(t *testing.T) {
	orch := buildPipeline(t, pipelineDeps{
		pricingIndex: &fakePricingIndex{},
		labourIndex:  &fakeLabourIndex{},
		generator:    &fakeGenerator{response: "I cannot produce a JSON estimate for this."},
	})

	response, err := orch.Run(context.Background(), &models.EstimateRequest{
		Description:   "Full rewire of a three-bed house",
		Location:      "M1 4BT",
		Categories:    []string{"lighting"},
		ValueEstimate: 12000,
		CallerID:      "e2e",
	})

	require.NoError(t, err, "a rejected generation never fails the request")
	assert.True(t, response.Metadata.FallbackUsed)
	assert.Equal(t, models.ConfidenceLow, response.Estimate.Confidence)
	assert.NotEmpty(t, response.Estimate.ConfidenceFactors)
	assert.Greater(t, response.Estimate.TotalEstimate, 0.0)

	// The fallback is internally consistent like any other estimate.
	componentSum := response.Estimate.LabourCost + response.Estimate.MaterialsCost +
		response.Estimate.EquipmentCost + response.Estimate.Overheads + response.Estimate.Profit
	assert.InDelta(t, response.Estimate.TotalEstimate, componentSum, 0.02)
}

func TestPipeline_DegradedRetrievalStillEstimates(t *testing.T) {
	orch := buildPipeline(t, pipelineDeps{
		pricingIndex: &fakePricingIndex{err: errors.New("index unavailable")},
		labourIndex:  &fakeLabourIndex{err: errors.New("index unavailable")},
		generator:    &fakeGenerator{response: groundedResponse(t)},
	})

	response, err := orch.Run(context.Background(), &models.EstimateRequest{
		Description:   "Warehouse lighting replacement",
		Location:      "LS1 4AP",
		Categories:    []string{"lighting"},
		ValueEstimate: 30000,
		CallerID:      "e2e",
	})

	require.NoError(t, err, "retrieval outages degrade the estimate, not the request")
	assert.Zero(t, response.Metadata.PricingCount)
	assert.Zero(t, response.Metadata.LabourCount)
	assert.False(t, response.Metadata.FallbackUsed,
		"synthesis may still succeed on an empty evidence set")
	assert.Equal(t, "Leeds & West Yorkshire", response.Metadata.RegionLabel)

	// Degradation is visible to the caller: the metadata carries the flag and
	// the estimate discloses the missing evidence.
	assert.True(t, response.Metadata.RetrievalDegraded)
	assert.NotEqual(t, models.ConfidenceHigh, response.Estimate.Confidence)
	require.NotEmpty(t, response.Estimate.ConfidenceFactors)
	assert.Contains(t, response.Estimate.ConfidenceFactors[len(response.Estimate.ConfidenceFactors)-1], "degraded")
}
