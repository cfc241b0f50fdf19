// internal/models/complexity.go
package models

// Complexity levels with their fixed score boundaries: a score of 30 or below
// is simple, 75 or above is complex, anything between is standard.
const (
	ComplexitySimple   = "simple"
	ComplexityStandard = "standard"
	ComplexityComplex  = "complex"
)

// ComplexityAssessment is the deterministic output of the complexity scorer.
// Score is always within [10,100]; BudgetMultiplier scales the generative
// token allowance.
type ComplexityAssessment struct {
	Score            int     `json:"score"`
	Level            string  `json:"level"`
	BudgetMultiplier float64 `json:"budget_multiplier"`
}
