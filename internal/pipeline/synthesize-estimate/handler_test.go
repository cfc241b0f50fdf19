// internal/pipeline/synthesize-estimate/handler_test.go
package synthesizeestimate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/models"
)

// fakeGenerator captures the call and returns a canned response.
type fakeGenerator struct {
	response      string
	err           error
	lastSystem    string
	lastPrompt    string
	lastMaxTokens int
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float32) (string, error) {
	f.lastSystem = system
	f.lastPrompt = prompt
	f.lastMaxTokens = maxTokens
	return f.response, f.err
}

func createTestConfig() *Config {
	return &Config{
		Timeout:         time.Second,
		BaseTokenBudget: 2048,
		MaxTokenBudget:  4096,
		Temperature:     0.2,
		MaxPricingItems: 12,
		MaxLabourItems:  5,
	}
}

func createTestInput() *Input {
	return &Input{
		Description:   "Full rewire of a three-bed house",
		Scope:         "Replace consumer unit, rewire all circuits",
		Location:      "M1 4BT",
		Categories:    []string{"consumer_units", "lighting"},
		ValueEstimate: 12000,
		Pricing: []models.PricingResult{
			{ID: "p1", Name: "6242Y 2.5mm cable 100m", BaseCost: 42.50, Supplier: "CityElec", Unit: "drum", Category: "cable"},
		},
		Labour: []models.LabourNormResult{
			{Topic: "Rewire", Description: "Allow 0.5 hours per point", Confidence: 0.9},
		},
		Adjustment: models.RegionalAdjustment{Multiplier: 1.12, Region: "Greater Manchester"},
		Assessment: models.ComplexityAssessment{Score: 45, Level: models.ComplexityStandard, BudgetMultiplier: 1.0},
	}
}

func validResponse(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal(validPayload())
	require.NoError(t, err)
	return "Here is the estimate:\n" + string(raw)
}

func TestHandler_Execute_Success(t *testing.T) {
	generator := &fakeGenerator{response: validResponse(t)}
	handler := NewHandler(createTestConfig(), generator, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, 12017.50, output.Estimate.TotalEstimate)
	assert.Equal(t, 1.12, output.Estimate.RegionalMultiplier,
		"the applied multiplier is attached for auditability")
	assert.Equal(t, 2048, output.TokenBudget)

	assert.Contains(t, generator.lastPrompt, "6242Y 2.5mm cable 100m")
	assert.Contains(t, generator.lastPrompt, "Allow 0.5 hours per point")
	assert.Contains(t, generator.lastPrompt, "1.12")
	assert.Contains(t, generator.lastSystem, "senior electrical estimator")
}

func TestHandler_Execute_Failures(t *testing.T) {
	tests := []struct {
		name      string
		generator *fakeGenerator
	}{
		{
			name:      "service unreachable",
			generator: &fakeGenerator{err: errors.New("connection refused")},
		},
		{
			name:      "plain text with no JSON",
			generator: &fakeGenerator{response: "I am unable to produce an estimate."},
		},
		{
			name:      "JSON that fails validation",
			generator: &fakeGenerator{response: `{"labour_cost": 100}`},
		},
		{
			name:      "JSON with irreconcilable totals",
			generator: &fakeGenerator{response: irreconcilableResponse(t)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(createTestConfig(), tt.generator, logger.NewTestLogger(t))

			output, err := handler.Execute(context.Background(), createTestInput())

			require.ErrorIs(t, err, ErrSynthesisFailed)
			assert.Nil(t, output)
		})
	}
}

func irreconcilableResponse(t *testing.T) string {
	t.Helper()
	payload := validPayload()
	payload["total_estimate"] = 1.0
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(raw)
}

func TestHandler_TokenBudget(t *testing.T) {
	handler := NewHandler(createTestConfig(), &fakeGenerator{}, logger.NewTestLogger(t))

	assert.Equal(t, 2048, handler.tokenBudget(1.0))
	assert.Equal(t, 1638, handler.tokenBudget(0.8))
	// The complex multiplier would exceed the cap.
	assert.Equal(t, 3072, handler.tokenBudget(1.5))

	cfg := createTestConfig()
	cfg.BaseTokenBudget = 3000
	capped := NewHandler(cfg, &fakeGenerator{}, logger.NewTestLogger(t))
	assert.Equal(t, 4096, capped.tokenBudget(1.5))
}

func TestHandler_Execute_BudgetScalesWithComplexity(t *testing.T) {
	generator := &fakeGenerator{response: validResponse(t)}
	handler := NewHandler(createTestConfig(), generator, logger.NewTestLogger(t))

	input := createTestInput()
	input.Assessment.BudgetMultiplier = 1.5

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, 3072, output.TokenBudget)
	assert.Equal(t, 3072, generator.lastMaxTokens)
}
