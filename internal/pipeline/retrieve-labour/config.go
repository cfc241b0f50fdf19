// internal/pipeline/retrieve-labour/config.go
package retrievelabour

import "time"

type Config struct {
	SearchTimeout time.Duration
	Limit         int
}
