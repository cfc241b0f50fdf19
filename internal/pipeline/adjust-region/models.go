// internal/pipeline/adjust-region/models.go
package adjustregion

import "tender-estimator/internal/models"

// Input carries the free-text site location from the request.
type Input struct {
	Location string `json:"location"`
}

// Output holds the resolved adjustment. Always populated; the national
// average is the floor for every failure mode.
type Output struct {
	Adjustment models.RegionalAdjustment `json:"adjustment"`
}
