// internal/models/region.go
package models

// NationalAverageRegion is the label used whenever no regional signal exists.
const NationalAverageRegion = "National average"

// RegionalAdjustment scales baseline cost assumptions for a location.
// Multiplier is always positive; 1.0 means no adjustment.
type RegionalAdjustment struct {
	Multiplier float64 `json:"multiplier"`
	Region     string  `json:"region"`
}

// NationalAverage returns the default adjustment.
func NationalAverage() RegionalAdjustment {
	return RegionalAdjustment{Multiplier: 1.0, Region: NationalAverageRegion}
}
