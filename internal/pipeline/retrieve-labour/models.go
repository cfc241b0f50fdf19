// internal/pipeline/retrieve-labour/models.go
package retrievelabour

import "tender-estimator/internal/models"

// Input carries the request context the labour retriever searches with.
type Input struct {
	Description string   `json:"description"`
	Scope       string   `json:"scopeOfWorks"`
	Categories  []string `json:"categories"`
}

// Output holds labour-norm evidence with per-hit confidence.
type Output struct {
	Results  []models.LabourNormResult `json:"results"`
	Degraded bool                      `json:"degraded"`
}
