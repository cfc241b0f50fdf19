// internal/pipeline/retrieve-pricing/config.go
package retrievepricing

import "time"

type Config struct {
	EmbedTimeout  time.Duration
	SearchTimeout time.Duration
	VectorLimit   int
	KeywordLimit  int
	MergedLimit   int
	MinSimilarity float64
}
