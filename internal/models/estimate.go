// internal/models/estimate.go
package models

import "time"

// Confidence levels attached to an estimate.
const (
	ConfidenceLow    = "Low"
	ConfidenceMedium = "Medium"
	ConfidenceHigh   = "High"
)

// DefaultCategory is applied when a request carries no category tags.
const DefaultCategory = "general_electrical"

// EstimateRequest is the caller-supplied input for one pipeline run. It is
// merged with any stored project record before the run starts and is not
// mutated afterwards.
type EstimateRequest struct {
	ProjectID     string   `json:"project_id,omitempty"`
	Description   string   `json:"description,omitempty"`
	Scope         string   `json:"scope_of_works,omitempty"`
	Location      string   `json:"location,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	ValueEstimate float64  `json:"value_estimate,omitempty"`

	// CallerID is set from the authenticated API key, never from the body.
	CallerID string `json:"-"`
}

// BreakdownLine is a single costed line item. Cost must equal Quantity*Rate
// within rounding tolerance.
type BreakdownLine struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Rate        float64 `json:"rate"`
	Cost        float64 `json:"cost"`
}

// EstimateBreakdown holds the ordered line items behind the top-level figures.
type EstimateBreakdown struct {
	Labour    []BreakdownLine `json:"labour"`
	Materials []BreakdownLine `json:"materials"`
	Equipment []BreakdownLine `json:"equipment"`
}

// Citation records a piece of pricing evidence the estimate relied on.
type Citation struct {
	Source string  `json:"source"`
	Item   string  `json:"item"`
	Price  float64 `json:"price"`
}

// EstimateOutput is the fully-populated estimate returned to the caller.
// TotalEstimate must equal the sum of the five monetary components within
// rounding tolerance.
type EstimateOutput struct {
	LabourHours        float64           `json:"labour_hours"`
	LabourCost         float64           `json:"labour_cost"`
	MaterialsCost      float64           `json:"materials_cost"`
	EquipmentCost      float64           `json:"equipment_cost"`
	Overheads          float64           `json:"overheads"`
	Profit             float64           `json:"profit"`
	TotalEstimate      float64           `json:"total_estimate"`
	Hazards            []string          `json:"hazards"`
	Programme          string            `json:"programme"`
	Confidence         string            `json:"confidence"`
	ConfidenceFactors  []string          `json:"confidence_factors"`
	Notes              string            `json:"notes,omitempty"`
	Breakdown          EstimateBreakdown `json:"breakdown"`
	RegionalMultiplier float64           `json:"regional_multiplier"`
	Citations          []Citation        `json:"citations"`
}

// EstimateMetadata describes how an estimate was produced.
type EstimateMetadata struct {
	EstimateID         string    `json:"estimate_id"`
	ComplexityLevel    string    `json:"complexity_level"`
	ComplexityScore    int       `json:"complexity_score"`
	RegionLabel        string    `json:"region_label"`
	RegionalMultiplier float64   `json:"regional_multiplier"`
	PricingCount       int       `json:"pricing_count"`
	LabourCount        int       `json:"labour_count"`
	TokenBudget        int       `json:"token_budget"`
	RetrievalDegraded  bool      `json:"retrieval_degraded"`
	FallbackUsed       bool      `json:"fallback_used"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// EstimateResponse is the inbound API response envelope.
type EstimateResponse struct {
	Estimate *EstimateOutput  `json:"estimate"`
	Metadata EstimateMetadata `json:"metadata"`
}

// EstimateRecord is the shape persisted by the external persistence
// collaborator, keyed by project and caller identity.
type EstimateRecord struct {
	EstimateID   string          `json:"estimateId"`
	ProjectID    string          `json:"projectId"`
	CallerID     string          `json:"callerId"`
	Output       *EstimateOutput `json:"output"`
	FallbackUsed bool            `json:"fallbackUsed"`
	CreatedAt    time.Time       `json:"createdAt"`
}
