// internal/pipeline/synthesize-estimate/models.go
package synthesizeestimate

import "tender-estimator/internal/models"

// Input carries everything the synthesizer grounds the prompt on.
type Input struct {
	Description   string   `json:"description"`
	Scope         string   `json:"scopeOfWorks"`
	Location      string   `json:"location"`
	Categories    []string `json:"categories"`
	ValueEstimate float64  `json:"valueEstimate"`

	Pricing    []models.PricingResult      `json:"pricing"`
	Labour     []models.LabourNormResult   `json:"labour"`
	Adjustment models.RegionalAdjustment   `json:"adjustment"`
	Assessment models.ComplexityAssessment `json:"assessment"`
}

// Output holds the validated estimate and the token budget that was used.
type Output struct {
	Estimate    *models.EstimateOutput `json:"estimate"`
	TokenBudget int                    `json:"tokenBudget"`
}
