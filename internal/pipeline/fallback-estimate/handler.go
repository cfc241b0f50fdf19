// Package fallbackestimate produces a deterministic percentage-split
// estimate with no external calls. It backs the pipeline's availability
// guarantee: whenever synthesis is unavailable or its output is rejected,
// this estimator answers instead, and it is total over its inputs.
package fallbackestimate

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/models"
)

const (
	defaultBaseValue = 10000
	hourlyRate       = 45
	hoursPerDay      = 8

	overheadRate = 0.10
	profitRate   = 0.15
)

// split is the (labour, materials, equipment) share of the base value keyed
// by complexity level. Complex work skews toward labour and equipment,
// simple work toward materials.
type split struct {
	labour    decimal.Decimal
	materials decimal.Decimal
	equipment decimal.Decimal
}

var splits = map[string]split{
	models.ComplexitySimple: {
		labour:    decimal.NewFromFloat(0.30),
		materials: decimal.NewFromFloat(0.55),
		equipment: decimal.NewFromFloat(0.15),
	},
	models.ComplexityStandard: {
		labour:    decimal.NewFromFloat(0.40),
		materials: decimal.NewFromFloat(0.45),
		equipment: decimal.NewFromFloat(0.15),
	},
	models.ComplexityComplex: {
		labour:    decimal.NewFromFloat(0.45),
		materials: decimal.NewFromFloat(0.35),
		equipment: decimal.NewFromFloat(0.20),
	},
}

// standardHazards applies to every electrical installation.
var standardHazards = []string{
	"Safe isolation and lock-off procedures required before work commences",
	"Working at height for containment and luminaire installation",
	"Asbestos survey required for buildings constructed before 2000",
	"Manual handling of cable drums and distribution equipment",
}

// categoryHazards adds category-specific lines.
var categoryHazards = map[string]string{
	"fire_alarm":  "Fire alarm works require coordination with building fire strategy and BS 5839 certification",
	"ev_charging": "EV charging installation requires earthing arrangement assessment and DNO notification",
}

type Handler struct {
	logger logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log.With(map[string]interface{}{"component": "fallback-estimate"}),
	}
}

// Execute builds the estimate. It never returns an error; unknown levels
// use the standard split and a zero or negative value uses the default.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	base := input.BaseValue
	if base <= 0 {
		base = defaultBaseValue
	}

	levelSplit, ok := splits[input.ComplexityLevel]
	if !ok {
		levelSplit = splits[models.ComplexityStandard]
	}

	value := decimal.NewFromFloat(base)
	rate := decimal.NewFromInt(hourlyRate)

	// Labour is derived from whole hours so the phase breakdown can sum
	// exactly back to the top-level figure.
	hours := value.Mul(levelSplit.labour).Div(rate).Round(0)
	if hours.LessThan(decimal.NewFromInt(1)) {
		hours = decimal.NewFromInt(1)
	}
	labourCost := hours.Mul(rate)

	materialsCost := value.Mul(levelSplit.materials).Round(2)
	equipmentCost := value.Mul(levelSplit.equipment).Round(2)

	subtotal := labourCost.Add(materialsCost).Add(equipmentCost)
	overheads := subtotal.Mul(decimal.NewFromFloat(overheadRate)).Round(2)
	profit := subtotal.Add(overheads).Mul(decimal.NewFromFloat(profitRate)).Round(2)
	total := subtotal.Add(overheads).Add(profit)

	estimate := &models.EstimateOutput{
		LabourHours:        hours.InexactFloat64(),
		LabourCost:         labourCost.InexactFloat64(),
		MaterialsCost:      materialsCost.InexactFloat64(),
		EquipmentCost:      equipmentCost.InexactFloat64(),
		Overheads:          overheads.InexactFloat64(),
		Profit:             profit.InexactFloat64(),
		TotalEstimate:      total.InexactFloat64(),
		Hazards:            buildHazards(input.Categories),
		Programme:          buildProgramme(hours),
		Confidence:         models.ConfidenceLow,
		ConfidenceFactors:  confidenceFactors(input.ComplexityLevel),
		Notes:              "Heuristic estimate produced without generative synthesis. Figures are percentage-based and should be refined with a detailed take-off.",
		Breakdown:          buildBreakdown(hours, rate, materialsCost, equipmentCost),
		RegionalMultiplier: input.RegionalMultiplier,
		Citations:          []models.Citation{},
	}

	h.logger.Info("fallback estimate produced", map[string]interface{}{
		"baseValue": base,
		"level":     input.ComplexityLevel,
		"total":     estimate.TotalEstimate,
	})

	return &Output{Estimate: estimate}, nil
}

// buildBreakdown splits labour into three phases, materials into three
// groupings and equipment into one line, with each section summing exactly
// to its top-level component.
func buildBreakdown(hours, rate, materialsCost, equipmentCost decimal.Decimal) models.EstimateBreakdown {
	firstFix := hours.Mul(decimal.NewFromFloat(0.40)).Round(0)
	secondFix := hours.Mul(decimal.NewFromFloat(0.40)).Round(0)
	testing := hours.Sub(firstFix).Sub(secondFix)

	labourLines := []models.BreakdownLine{
		labourLine("First fix installation", firstFix, rate),
		labourLine("Second fix installation", secondFix, rate),
		labourLine("Testing and commissioning", testing, rate),
	}

	cableShare := materialsCost.Mul(decimal.NewFromFloat(0.40)).Round(2)
	accessoryShare := materialsCost.Mul(decimal.NewFromFloat(0.35)).Round(2)
	sundryShare := materialsCost.Sub(cableShare).Sub(accessoryShare)

	materialLines := []models.BreakdownLine{
		lotLine("Cables and containment", cableShare),
		lotLine("Accessories and distribution equipment", accessoryShare),
		lotLine("Fixings and sundries", sundryShare),
	}

	equipmentLines := []models.BreakdownLine{
		lotLine("Access equipment and tool hire", equipmentCost),
	}

	return models.EstimateBreakdown{
		Labour:    labourLines,
		Materials: materialLines,
		Equipment: equipmentLines,
	}
}

func labourLine(description string, hours, rate decimal.Decimal) models.BreakdownLine {
	return models.BreakdownLine{
		Description: description,
		Quantity:    hours.InexactFloat64(),
		Unit:        "hours",
		Rate:        rate.InexactFloat64(),
		Cost:        hours.Mul(rate).InexactFloat64(),
	}
}

func lotLine(description string, cost decimal.Decimal) models.BreakdownLine {
	return models.BreakdownLine{
		Description: description,
		Quantity:    1,
		Unit:        "lot",
		Rate:        cost.InexactFloat64(),
		Cost:        cost.InexactFloat64(),
	}
}

func buildHazards(categories []string) []string {
	hazards := make([]string, len(standardHazards))
	copy(hazards, standardHazards)

	for _, cat := range categories {
		if line, ok := categoryHazards[cat]; ok {
			hazards = append(hazards, line)
		}
	}
	return hazards
}

func buildProgramme(hours decimal.Decimal) string {
	days := int(math.Ceil(hours.InexactFloat64() / hoursPerDay))
	if days < 1 {
		days = 1
	}
	if days == 1 {
		return "Approximately 1 working day"
	}
	return fmt.Sprintf("Approximately %d working days", days)
}

func confidenceFactors(level string) []string {
	return []string{
		"Estimate produced by deterministic percentage split, not grounded synthesis",
		fmt.Sprintf("Percentage split keyed on %s complexity level", level),
		"No retrieved pricing evidence applied to line items",
		"Figures should be validated against a detailed take-off before submission",
	}
}
