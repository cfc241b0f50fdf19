// internal/pipeline/synthesize-estimate/validate.go
package synthesizeestimate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"tender-estimator/internal/models"
)

// estimateSchema is the contract a generated payload must satisfy before
// the pipeline will use it. Numeric fields are required and non-negative.
const estimateSchema = `{
	"type": "object",
	"required": [
		"labour_hours", "labour_cost", "materials_cost", "equipment_cost",
		"overheads", "profit", "total_estimate", "hazards", "programme",
		"confidence", "confidence_factors", "breakdown"
	],
	"properties": {
		"labour_hours": {"type": "number", "minimum": 0},
		"labour_cost": {"type": "number", "minimum": 0},
		"materials_cost": {"type": "number", "minimum": 0},
		"equipment_cost": {"type": "number", "minimum": 0},
		"overheads": {"type": "number", "minimum": 0},
		"profit": {"type": "number", "minimum": 0},
		"total_estimate": {"type": "number", "minimum": 0},
		"hazards": {"type": "array", "items": {"type": "string"}},
		"programme": {"type": "string"},
		"confidence": {"type": "string", "enum": ["Low", "Medium", "High"]},
		"confidence_factors": {"type": "array", "items": {"type": "string"}},
		"notes": {"type": "string"},
		"breakdown": {
			"type": "object",
			"required": ["labour", "materials", "equipment"],
			"properties": {
				"labour": {"type": "array", "items": {"$ref": "#/definitions/line"}},
				"materials": {"type": "array", "items": {"$ref": "#/definitions/line"}},
				"equipment": {"type": "array", "items": {"$ref": "#/definitions/line"}}
			}
		},
		"citations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["source", "item", "price"],
				"properties": {
					"source": {"type": "string"},
					"item": {"type": "string"},
					"price": {"type": "number", "minimum": 0}
				}
			}
		}
	},
	"definitions": {
		"line": {
			"type": "object",
			"required": ["description", "quantity", "unit", "rate", "cost"],
			"properties": {
				"description": {"type": "string"},
				"quantity": {"type": "number", "minimum": 0},
				"unit": {"type": "string"},
				"rate": {"type": "number", "minimum": 0},
				"cost": {"type": "number", "minimum": 0}
			}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(estimateSchema)

// validateEstimate checks a raw payload against the schema and the
// arithmetic invariants, returning the decoded estimate when both hold.
func validateEstimate(raw string) (*models.EstimateOutput, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema validation errored: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("schema validation failed: %s", strings.Join(details, "; "))
	}

	var estimate models.EstimateOutput
	if err := json.Unmarshal([]byte(raw), &estimate); err != nil {
		return nil, fmt.Errorf("failed to decode estimate: %w", err)
	}

	if err := reconcile(&estimate); err != nil {
		return nil, err
	}

	return &estimate, nil
}

// reconcile checks the arithmetic invariants: the total equals the sum of
// its components and every line's cost equals quantity times rate.
func reconcile(estimate *models.EstimateOutput) error {
	componentSum := estimate.LabourCost + estimate.MaterialsCost +
		estimate.EquipmentCost + estimate.Overheads + estimate.Profit
	if !withinTolerance(estimate.TotalEstimate, componentSum) {
		return fmt.Errorf("total %.2f does not reconcile with component sum %.2f",
			estimate.TotalEstimate, componentSum)
	}

	sections := map[string][]models.BreakdownLine{
		"labour":    estimate.Breakdown.Labour,
		"materials": estimate.Breakdown.Materials,
		"equipment": estimate.Breakdown.Equipment,
	}
	for section, lines := range sections {
		for i, line := range lines {
			if !withinTolerance(line.Cost, line.Quantity*line.Rate) {
				return fmt.Errorf("%s line %d: cost %.2f does not equal quantity %.2f x rate %.2f",
					section, i, line.Cost, line.Quantity, line.Rate)
			}
		}
	}

	return nil
}

// withinTolerance compares two monetary values allowing for rounding. The
// tolerance is the larger of 2p and 0.5 percent of the bigger operand. A
// small epsilon absorbs float subtraction noise so drift exactly at the
// tolerance still passes.
func withinTolerance(a, b float64) bool {
	tolerance := math.Max(0.02, 0.005*math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tolerance+1e-9
}
