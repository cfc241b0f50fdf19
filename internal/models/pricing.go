// internal/models/pricing.go
package models

// PricingResult is one row of the pricing reference set. ID is the dedupe key
// when vector and keyword results are merged.
type PricingResult struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	BaseCost float64 `json:"base_cost"`
	Supplier string  `json:"supplier"`
	Unit     string  `json:"unit"`
	InStock  bool    `json:"in_stock"`
	Category string  `json:"category,omitempty"`
	// Score is the vector similarity in [0,1]; zero for keyword-only hits.
	Score float64 `json:"score,omitempty"`
}

// LabourNormResult is one entry from the labour-time knowledge base.
type LabourNormResult struct {
	Topic             string  `json:"topic"`
	Description       string  `json:"description"`
	EquipmentCategory string  `json:"equipment_category,omitempty"`
	Confidence        float64 `json:"confidence,omitempty"`
}
