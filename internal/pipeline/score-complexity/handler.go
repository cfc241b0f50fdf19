// Package scorecomplexity derives a deterministic complexity assessment from
// the request context. The score is additive over category, scope-length and
// value signals, clamped to [10,100], and never fails.
package scorecomplexity

import (
	"context"

	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/models"
)

const (
	baseScore = 50
	minScore  = 10
	maxScore  = 100

	simpleThreshold  = 30
	complexThreshold = 75

	simpleBudgetMultiplier   = 0.8
	standardBudgetMultiplier = 1.0
	complexBudgetMultiplier  = 1.5
)

// complexCategories add to the score; each reflects specialist design,
// certification or coordination burden.
var complexCategories = map[string]bool{
	"fire_alarm":      true,
	"ev_charging":     true,
	"three_phase":     true,
	"solar_pv":        true,
	"machinery_power": true,
	"data_networking": true,
}

// simpleCategories subtract; these are routine domestic-grade works.
var simpleCategories = map[string]bool{
	"consumer_units":       true,
	"lighting":             true,
	"sockets_and_switches": true,
	"minor_works":          true,
}

type Handler struct {
	logger logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log.With(map[string]interface{}{"component": "score-complexity"}),
	}
}

// Execute scores the input. The same input always yields the same
// assessment.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	score := baseScore

	for _, cat := range input.Categories {
		if complexCategories[cat] {
			score += 10
		}
		if simpleCategories[cat] {
			score -= 10
		}
	}

	if len(input.Scope) >= 300 {
		score += 5
	}
	if len(input.Scope) >= 1000 {
		score += 10
	}

	if input.ValueEstimate > 0 && input.ValueEstimate < 10000 {
		score -= 10
	}
	if input.ValueEstimate >= 50000 {
		score += 10
	}
	if input.ValueEstimate >= 100000 {
		score += 10
	}

	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}

	assessment := models.ComplexityAssessment{
		Score: score,
	}
	switch {
	case score <= simpleThreshold:
		assessment.Level = models.ComplexitySimple
		assessment.BudgetMultiplier = simpleBudgetMultiplier
	case score >= complexThreshold:
		assessment.Level = models.ComplexityComplex
		assessment.BudgetMultiplier = complexBudgetMultiplier
	default:
		assessment.Level = models.ComplexityStandard
		assessment.BudgetMultiplier = standardBudgetMultiplier
	}

	h.logger.Debug("complexity scored", map[string]interface{}{
		"score": assessment.Score,
		"level": assessment.Level,
	})

	return &Output{Assessment: assessment}, nil
}
