// internal/pipeline/score-complexity/models.go
package scorecomplexity

import "tender-estimator/internal/models"

// Input carries the resolved request context the scorer reads.
type Input struct {
	Categories    []string `json:"categories"`
	Scope         string   `json:"scopeOfWorks"`
	ValueEstimate float64  `json:"valueEstimate"`
}

// Output wraps the assessment for the orchestrator.
type Output struct {
	Assessment models.ComplexityAssessment `json:"assessment"`
}
