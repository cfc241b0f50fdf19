// internal/pipeline/synthesize-estimate/config.go
package synthesizeestimate

import "time"

type Config struct {
	Timeout         time.Duration
	BaseTokenBudget int
	MaxTokenBudget  int
	Temperature     float32
	MaxPricingItems int
	MaxLabourItems  int
}
