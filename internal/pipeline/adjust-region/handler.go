// Package adjustregion resolves a labour-market cost multiplier from the
// site location. Well-known postcode areas resolve from a built-in table;
// anything else falls through to the regional_multipliers table, and every
// failure mode lands on the national average.
package adjustregion

import (
	"context"
	"regexp"
	"strings"

	stderrors "tender-estimator/internal/common/errors"
	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/models"
)

// Lookup is the store dependency for outward codes not covered by the
// built-in table.
type Lookup interface {
	Lookup(ctx context.Context, outward string) (*models.RegionalAdjustment, error)
}

// knownAreas maps postcode areas to multipliers for the major UK labour
// markets. Matched on the exact area letters of the outward code.
var knownAreas = map[string]models.RegionalAdjustment{
	"EC": {Multiplier: 1.30, Region: "Central London"},
	"WC": {Multiplier: 1.30, Region: "Central London"},
	"E":  {Multiplier: 1.25, Region: "Greater London"},
	"N":  {Multiplier: 1.25, Region: "Greater London"},
	"NW": {Multiplier: 1.25, Region: "Greater London"},
	"SE": {Multiplier: 1.25, Region: "Greater London"},
	"SW": {Multiplier: 1.25, Region: "Greater London"},
	"W":  {Multiplier: 1.25, Region: "Greater London"},
	"M":  {Multiplier: 1.12, Region: "Greater Manchester"},
	"B":  {Multiplier: 1.06, Region: "Birmingham & West Midlands"},
	"G":  {Multiplier: 1.08, Region: "Glasgow"},
	"EH": {Multiplier: 1.08, Region: "Edinburgh"},
	"LS": {Multiplier: 1.05, Region: "Leeds & West Yorkshire"},
	"BS": {Multiplier: 1.07, Region: "Bristol & Avon"},
}

// outwardPattern matches a UK outward code token, e.g. SW1A, M1, EH12.
var outwardPattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9][0-9A-Z]?$`)

type Handler struct {
	store  Lookup
	logger logger.Logger
}

func NewHandler(store Lookup, log logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log.With(map[string]interface{}{"component": "adjust-region"}),
	}
}

// Execute resolves the adjustment for the location. It never returns an
// error; lookup failures degrade to the national average.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	outward := extractOutward(input.Location)
	if outward == "" {
		return &Output{Adjustment: models.NationalAverage()}, nil
	}

	area := areaLetters(outward)
	if adj, ok := knownAreas[area]; ok {
		return &Output{Adjustment: adj}, nil
	}

	if h.store != nil {
		adj, err := h.store.Lookup(ctx, outward)
		if err != nil {
			h.logger.WithError(stderrors.NewRegionLookupFailedError(err)).Warn(
				"regional multiplier lookup failed", map[string]interface{}{
					"outward": outward,
				})
			return &Output{Adjustment: models.NationalAverage()}, nil
		}
		if adj != nil {
			return &Output{Adjustment: *adj}, nil
		}
	}

	return &Output{Adjustment: models.NationalAverage()}, nil
}

// extractOutward finds the last token in the location that looks like a UK
// outward code. Postcodes sit at the end of most addresses.
func extractOutward(location string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(location))
	if cleaned == "" {
		return ""
	}

	tokens := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})

	for i := len(tokens) - 1; i >= 0; i-- {
		if outwardPattern.MatchString(tokens[i]) {
			return tokens[i]
		}
	}
	return ""
}

func areaLetters(outward string) string {
	for i, r := range outward {
		if r >= '0' && r <= '9' {
			return outward[:i]
		}
	}
	return outward
}
