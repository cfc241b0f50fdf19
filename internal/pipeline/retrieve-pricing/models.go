// internal/pipeline/retrieve-pricing/models.go
package retrievepricing

import "tender-estimator/internal/models"

// Input carries the request context the retriever searches with.
type Input struct {
	Description string   `json:"description"`
	Scope       string   `json:"scopeOfWorks"`
	Categories  []string `json:"categories"`
}

// Output holds the merged, deduplicated pricing evidence. Degraded reports
// whether any branch failed or was skipped.
type Output struct {
	Results  []models.PricingResult `json:"results"`
	Degraded bool                   `json:"degraded"`
}
