// internal/pipeline/fallback-estimate/models.go
package fallbackestimate

import "tender-estimator/internal/models"

// Input carries the adjusted base value and the signals the percentage
// split keys on. BaseValue already has the regional multiplier applied.
type Input struct {
	BaseValue          float64  `json:"baseValue"`
	Categories         []string `json:"categories"`
	ComplexityLevel    string   `json:"complexityLevel"`
	RegionalMultiplier float64  `json:"regionalMultiplier"`
}

// Output wraps the deterministic estimate.
type Output struct {
	Estimate *models.EstimateOutput `json:"estimate"`
}
